package pe

// ParseMode controls how strictly the Reader treats anomalies.
type ParseMode int

const (
	// ModeStrict is used for the acceptor: the Reader may prompt via
	// Diagnostics on recoverable anomalies and disable the offending
	// capability for the session rather than aborting outright.
	ModeStrict ParseMode = iota
	// ModeDonor is used for candidate donors: any parse failure for a
	// capability simply disqualifies the donor for that capability.
	ModeDonor
)

// DataDirectory is one 8-byte entry of the Optional Header's data
// directory array (RVA + size).
type DataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

// Section is one 40-byte section header, plus the derived delta used to
// translate between file offsets and RVAs.
type Section struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLinenumbers uint32
	NumberOfRelocations  uint16
	NumberOfLinenumbers  uint16
	Characteristics      uint32

	// headerIndex is this record's position in the on-disk section table,
	// which survives the strict-mode sort by raw address.
	headerIndex int
}

// NameString returns the section name up to its first NUL byte; trailing
// spaces are kept.
func (s *Section) NameString() string {
	n := 0
	for n < len(s.Name) && s.Name[n] != 0 {
		n++
	}
	return string(s.Name[:n])
}

// IsRsrc reports whether this is the special ".rsrc" section.
func (s *Section) IsRsrc() bool {
	return s.NameString() == ".rsrc"
}

// VAOffsetDelta is vaddr - raddr, used to translate a raw file offset
// within this section into a virtual address and back.
func (s *Section) VAOffsetDelta() int64 {
	return int64(s.VirtualAddress) - int64(s.PointerToRawData)
}

// RawEnd is the end of this section's raw (on-disk) extent.
func (s *Section) RawEnd() uint32 {
	return s.PointerToRawData + s.SizeOfRawData
}

// Part is a uniform feasibility descriptor for any splice target: a
// directory-entry slot, an in-place fixed struct, and/or a variable data
// payload. A zero Size for a dimension means "acceptor does not constrain
// this dimension" (Fits ignores it). Fits never compares the header
// dimension.
type Part struct {
	HeaderOffset, HeaderSize int64
	StructOffset, StructSize int64
	DataOffset, DataSize     int64
}

// Fits reports whether donor fits within acceptor: for the struct and data
// dimensions acceptor defines (non-zero size), donor's counterpart must be <=.
func (donor Part) Fits(acceptor Part) bool {
	if acceptor.StructSize > 0 && donor.StructSize > acceptor.StructSize {
		return false
	}
	if acceptor.DataSize > 0 && donor.DataSize > acceptor.DataSize {
		return false
	}
	return true
}

// RichRegion is the parsed form of a Rich Header occupying [Start, End) of
// the file (Start is the DanS marker's offset after decoding, End is one
// past the last byte of the checksum key dword that follows the literal
// "Rich" marker).
type RichRegion struct {
	Start, End int64 // file offsets of the decoded region, [Start, End)
	Key        uint32
	Values     []uint32 // decoded compid/count dwords, XORed with Key
	Synthesized bool    // true if this is an empty zero-run slot, not a parsed Rich
}

// RichSlotLen is the raw byte length of the Rich region including both
// markers and the checksum key, i.e. End-Start.
func (r *RichRegion) RichSlotLen() int64 {
	if r == nil {
		return 0
	}
	return r.End - r.Start
}

// richPaddingWords is the number of zero dwords between the DanS marker
// and the first compid/count pair, padding the header to a 16-byte
// boundary.
const richPaddingWords = 3

// Bytes reconstructs the Rich region's on-disk byte sequence from its
// decoded form: the DanS marker, three zero-padding dwords, the XORed
// compid/count pairs, the literal "Rich" marker, and the checksum key.
// This is the canonical encoding used whenever Values or Key change.
func (r *RichRegion) Bytes() []byte {
	n := 4 + richPaddingWords*4 + len(r.Values)*4 + 4 + 4
	out := make([]byte, n)
	putU32 := func(off int, v uint32) { putLE32(out[off:], v) }
	putU32(0, danSLittleEndian^r.Key)
	for i := 0; i < richPaddingWords; i++ {
		putU32(4+i*4, r.Key) // zero ^ key == key
	}
	base := 4 + richPaddingWords*4
	for i, v := range r.Values {
		putU32(base+i*4, v^r.Key)
	}
	tail := base + len(r.Values)*4
	copy(out[tail:], richMarkBytes)
	putU32(tail+4, r.Key)
	return out
}

var richMarkBytes = []byte{0x52, 0x69, 0x63, 0x68} // "Rich"

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// DebugEntry is one 28-byte IMAGE_DEBUG_DIRECTORY record.
type DebugEntry struct {
	Characteristics  uint32
	TimeDateStamp    uint32
	MajorVersion     uint16
	MinorVersion     uint16
	Type             uint32
	SizeOfData       uint32
	AddressOfRawData uint32
	PointerToRawData uint32

	// FileOffset is where this 28-byte entry lives in the backing file.
	FileOffset int64
	// Data is a copy of the referenced blob, length SizeOfData, read from
	// PointerToRawData.
	Data []byte
}

// ImportFunc is one thunk (ordinal or hint+name) in a DLL's import list.
type ImportFunc struct {
	Ordinal    uint16
	IsOrdinal  bool
	Hint       uint16
	Name       string
	NameRVA    uint32 // RVA of the hint/name struct (0 if ordinal)
	ThunkVA    uint64 // VA the loader will patch / the code references
	OFTIndex   int    // index within the DLL's OFT/FT arrays
}

// ImportDLL is one IMAGE_IMPORT_DESCRIPTOR plus its resolved function list.
type ImportDLL struct {
	OriginalFirstThunkRVA uint32
	TimeDateStamp         uint32
	ForwarderChain        uint32
	NameRVA               uint32
	FirstThunkRVA         uint32
	Name                  string
	Functions             []ImportFunc
}

// ImportDirectory is the ordered list of imported DLLs.
type ImportDirectory struct {
	DLLs []ImportDLL

	// NamesContiguous, OFTContiguous, FTContiguous record whether the three
	// layout invariants the shuffler depends on hold for this PE.
	NamesContiguous, OFTContiguous, FTContiguous bool
}

// RelocEntry is one 12-bit-offset/4-bit-type entry within a relocation
// block.
type RelocEntry struct {
	Offset uint16 // low 12 bits
	Type   uint8  // high 4 bits
}

// RelocBlock is one IMAGE_BASE_RELOCATION block.
type RelocBlock struct {
	VirtualAddress uint32
	SizeOfBlock    uint32
	Entries        []RelocEntry
}

// RelocTable is the read-only base relocation table.
type RelocTable struct {
	Blocks []RelocBlock
}

// SecurityDir describes the Authenticode blob referenced by the Security
// Data Directory. Offset is a *file* offset (not RVA, per the PE spec).
type SecurityDir struct {
	Offset uint32
	Size   uint32
	Data   []byte
}

// Overlay is any bytes beyond the last section's raw extent (and beyond the
// signature blob, if present).
type Overlay struct {
	Offset int64
	Data   []byte
}
