package pe

import (
	"github.com/xyproto/pegraft/internal/diag"
	"github.com/xyproto/pegraft/internal/resource"
)

// Image is the parsed, typed model of one PE file: an immutable view over
// the original bytes plus whichever sub-models parsed successfully. The
// Splice Controller is the only component that mutates a derived byte
// buffer; Image itself is read-only once returned from Open.
type Image struct {
	raw []byte // the original file bytes this Image was parsed from

	ELfanew     int64
	IsPE32Plus  bool
	ImageBase   uint64
	EntryPoint  uint32
	BaseOfCode  uint32
	FileAlign   uint32
	SectionAlign uint32
	TimeDateStamp uint32
	Checksum    uint32
	SizeOfImage uint32

	Sections []Section

	Rich      *RichRegion
	Debug     []DebugEntry
	Resources *resource.Tree
	RsrcSection int // index into Sections, -1 if none
	Imports   *ImportDirectory
	Relocs    *RelocTable
	Security  *SecurityDir
	Overlay   *Overlay

	// Warnings collected during a ModeStrict parse (see Collector).
	Warnings *diag.Collector

	numSectionsHint uint16
	soohHint        uint16
}

// Raw returns the original bytes this Image was parsed from. Callers must
// not retain it beyond the buffer's lifetime.
func (img *Image) Raw() []byte {
	return img.raw
}

// offsetFor returns the absolute file offset of a field given its PE32 and
// PE32+ relative-to-e_lfanew offsets.
func (img *Image) offsetFor(off32, off64 int64) int64 {
	if img.IsPE32Plus {
		return img.ELfanew + off64
	}
	return img.ELfanew + off32
}

// SectionContaining returns the section whose virtual address range
// contains rva, or nil.
func (img *Image) SectionContaining(rva uint32) *Section {
	for i := range img.Sections {
		s := &img.Sections[i]
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+s.VirtualSize {
			return s
		}
	}
	return nil
}

// RVAToFileOffset converts an RVA to a file offset using the owning
// section's va_offset_delta, or returns ok=false if no section contains it.
func (img *Image) RVAToFileOffset(rva uint32) (int64, bool) {
	s := img.SectionContaining(rva)
	if s == nil {
		return 0, false
	}
	return int64(rva) - s.VAOffsetDelta(), true
}

// EndOfRawData returns the file offset one past the last section's raw
// extent, the Splice Controller's initial end-of-raw-data cursor before any
// engine has grown the file.
func (img *Image) EndOfRawData() int64 {
	var end int64
	for _, s := range img.Sections {
		if e := int64(s.RawEnd()); e > end {
			end = e
		}
	}
	return end
}
