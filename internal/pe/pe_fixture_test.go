package pe

import "encoding/binary"

// buildMinimalPE32 assembles a syntactically valid, minimal PE32 image: DOS
// header + stub up to elfanew, COFF header, a standard 224-byte optional
// header (16 data directories, all zeroed), and sectionCount section
// headers immediately following, each given sizeOfRawData bytes of raw
// data laid out contiguously starting right after the header region,
// file-aligned to fileAlign. Returns the full buffer plus the computed
// elfanew so callers can patch fields by the same offsets const.go uses.
func buildMinimalPE32(sections []testSection, fileAlign, sectionAlign uint32) ([]byte, int64) {
	const elfanew = 0x80
	const soohPE32 = 224
	sectionTableOff := elfanew + 24 + soohPE32
	headersEnd := sectionTableOff + len(sections)*40
	firstRaw := alignUp32(uint32(headersEnd), fileAlign)

	total := int(firstRaw)
	raw := uint32(firstRaw)
	va := sectionAlign
	offsets := make([]uint32, len(sections))
	vaddrs := make([]uint32, len(sections))
	for i, s := range sections {
		offsets[i] = raw
		vaddrs[i] = va
		total += int(alignUp32(s.size, fileAlign))
		raw += alignUp32(s.size, fileAlign)
		va = alignUp32(va+s.size, sectionAlign)
	}

	buf := make([]byte, total)
	binary.LittleEndian.PutUint16(buf[0:], dosMagic)
	binary.LittleEndian.PutUint32(buf[0x3c:], elfanew)
	binary.LittleEndian.PutUint32(buf[elfanew:], peSigWord)

	// COFF header.
	binary.LittleEndian.PutUint16(buf[elfanew+4:], 0x014c) // Machine: I386
	binary.LittleEndian.PutUint16(buf[elfanew+6:], uint16(len(sections)))
	binary.LittleEndian.PutUint16(buf[elfanew+20:], soohPE32)

	// Optional header.
	oh := elfanew + 24
	binary.LittleEndian.PutUint16(buf[oh:], magicPE32)
	binary.LittleEndian.PutUint32(buf[elfanew+offSectionAlignment:], sectionAlign)
	binary.LittleEndian.PutUint32(buf[elfanew+offFileAlignment:], fileAlign)
	binary.LittleEndian.PutUint32(buf[elfanew+offSizeOfImage:], va)
	binary.LittleEndian.PutUint32(buf[elfanew+84:], uint32(firstRaw)) // SizeOfHeaders

	// Section headers.
	for i, s := range sections {
		off := sectionTableOff + i*40
		copy(buf[off:off+8], []byte(s.name))
		binary.LittleEndian.PutUint32(buf[off+8:], s.size)    // VirtualSize
		binary.LittleEndian.PutUint32(buf[off+12:], vaddrs[i]) // VirtualAddress
		binary.LittleEndian.PutUint32(buf[off+16:], alignUp32(s.size, fileAlign))
		binary.LittleEndian.PutUint32(buf[off+20:], offsets[i])
	}

	return buf, elfanew
}

type testSection struct {
	name string
	size uint32
}

// setDataDirectory patches entry index i (0=Export,1=Import,...,4=Security,
// 6=Debug) of a PE32 image built by buildMinimalPE32.
func setDataDirectory(buf []byte, elfanew int64, index int, rva, size uint32) {
	base := elfanew + 120
	off := base + int64(index)*8
	binary.LittleEndian.PutUint32(buf[off:], rva)
	binary.LittleEndian.PutUint32(buf[off+4:], size)
}
