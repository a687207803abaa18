//go:build unix

package cli

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockOutputFile takes an advisory exclusive lock on f for the duration of
// the write, the same POSIX flock discipline other sample-producing tools
// in the pack use to avoid two concurrent runs clobbering the same output
// path. Best-effort: the caller writes without the lock if locking fails.
func lockOutputFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockOutputFile(f *os.File) {
	unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
