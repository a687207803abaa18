// Package safebuf wraps bytes.Buffer with explicit lifecycle management so
// the Splice Controller's single working-copy buffer cannot be mutated after
// a sample has been handed to the sink. A write-after-commit is a
// programming error, not a recoverable condition, so it panics.
package safebuf

import (
	"bytes"
	"fmt"
)

// VerboseMode is set by the CLI's -v/--verbose flag. Nothing in this
// package reads it; buffer lifecycle events are not logged.
var VerboseMode bool

// Buffer is a bytes.Buffer with commit/reset guards.
type Buffer struct {
	buf       *bytes.Buffer
	committed bool
	name      string
}

// New creates a new Buffer with a name used in panic/debug messages.
func New(name string) *Buffer {
	return &Buffer{buf: &bytes.Buffer{}, name: name}
}

// Write appends bytes. Panics if the buffer is committed.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.committed {
		panic(fmt.Sprintf("safebuf(%s): write to committed buffer", b.name))
	}
	return b.buf.Write(p)
}

// WriteByte appends a single byte. Panics if the buffer is committed.
func (b *Buffer) WriteByte(c byte) error {
	if b.committed {
		panic(fmt.Sprintf("safebuf(%s): write to committed buffer", b.name))
	}
	return b.buf.WriteByte(c)
}

// Bytes returns the buffer contents. Safe to call before or after commit.
func (b *Buffer) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the current buffer length.
func (b *Buffer) Len() int {
	return b.buf.Len()
}

// Commit marks the buffer complete. No further writes are permitted until
// Reset is called.
func (b *Buffer) Commit() {
	b.committed = true
}

// Reset clears the buffer and uncommits it.
func (b *Buffer) Reset() {
	b.buf.Reset()
	b.committed = false
}

// ReplaceWith discards the current contents and writes data in their
// place, still uncommitted afterward. Used when an engine re-emits the
// working copy at a different length (a resource regrow or a signature
// splice) rather than mutating it byte-for-byte in place.
func (b *Buffer) ReplaceWith(data []byte) {
	b.MustNotBeCommitted()
	b.Reset()
	b.buf.Write(data)
}

// IsCommitted reports whether Commit has been called since the last Reset.
func (b *Buffer) IsCommitted() bool {
	return b.committed
}

// MustNotBeCommitted panics if the buffer is committed. Useful as a defensive
// precondition check at the top of a function that is about to write.
func (b *Buffer) MustNotBeCommitted() {
	if b.committed {
		panic(fmt.Sprintf("safebuf(%s): expected uncommitted buffer", b.name))
	}
}
