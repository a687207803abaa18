package splice

import (
	"encoding/binary"
	"testing"
)

// buildTestPE assembles a minimal valid PE32 image with one .text section,
// stamped with timeDateStamp, for exercising the Splice Controller without
// needing a real Windows binary on disk.
func buildTestPE(t *testing.T, timeDateStamp uint32) []byte {
	t.Helper()
	const elfanew = 0x80
	const sooh = 224
	const fileAlign, sectionAlign = 0x200, 0x1000
	sectionTableOff := elfanew + 24 + sooh
	headersEnd := sectionTableOff + 40
	firstRaw := alignUp(uint32(headersEnd), fileAlign)
	total := int(firstRaw) + int(alignUp(0x100, fileAlign))

	buf := make([]byte, total)
	binary.LittleEndian.PutUint16(buf[0:], 0x5A4D)
	binary.LittleEndian.PutUint32(buf[0x3c:], elfanew)
	binary.LittleEndian.PutUint32(buf[elfanew:], 0x00004550)
	binary.LittleEndian.PutUint16(buf[elfanew+4:], 0x014c)
	binary.LittleEndian.PutUint16(buf[elfanew+6:], 1)
	binary.LittleEndian.PutUint32(buf[elfanew+8:], timeDateStamp)
	binary.LittleEndian.PutUint16(buf[elfanew+20:], sooh)

	oh := elfanew + 24
	binary.LittleEndian.PutUint16(buf[oh:], 0x10B)
	binary.LittleEndian.PutUint32(buf[elfanew+56:], sectionAlign)
	binary.LittleEndian.PutUint32(buf[elfanew+60:], fileAlign)
	binary.LittleEndian.PutUint32(buf[elfanew+80:], alignUp(sectionAlign+0x100, sectionAlign))
	binary.LittleEndian.PutUint32(buf[elfanew+84:], firstRaw)

	off := sectionTableOff
	copy(buf[off:off+8], []byte(".text"))
	binary.LittleEndian.PutUint32(buf[off+8:], 0x100)
	binary.LittleEndian.PutUint32(buf[off+12:], sectionAlign)
	binary.LittleEndian.PutUint32(buf[off+16:], alignUp(0x100, fileAlign))
	binary.LittleEndian.PutUint32(buf[off+20:], firstRaw)

	return buf
}

func alignUp(n, align uint32) uint32 {
	if r := n % align; r != 0 {
		return n + (align - r)
	}
	return n
}
