package pe

import "github.com/xyproto/pegraft/internal/diag"

const ddIndexBaseReloc = 5

// parseRelocs reads the base relocation table: a sequence of blocks, each
// an RVA + block size followed by size-8 bytes of 12-bit-offset/4-bit-type
// entries. The model is read-only; engines consult it only to decide
// whether rewriting a code operand would invalidate a relocation entry
// that describes it.
func (img *Image) parseRelocs(data []byte) error {
	dd := img.dataDirectory(ddIndexBaseReloc)
	if dd.Size == 0 {
		return nil
	}
	fileOff, ok := img.RVAToFileOffset(dd.VirtualAddress)
	if !ok {
		return diag.MalformedRegion(diag.RegionReloc, diag.Offset(dd.VirtualAddress), "base relocation RVA not within any section")
	}

	var blocks []RelocBlock
	end := int64(fileOff) + int64(dd.Size)
	if end > int64(len(data)) {
		return diag.MalformedRegion(diag.RegionReloc, diag.Offset(fileOff), "base relocation table out of bounds")
	}
	off := int64(fileOff)
	for off < end {
		if off+8 > int64(len(data)) {
			return diag.MalformedRegion(diag.RegionReloc, diag.Offset(off), "relocation block header out of bounds")
		}
		va := u32(data, off)
		size := u32(data, off+4)
		if size < 8 || int64(off)+int64(size) > int64(len(data)) {
			return diag.MalformedRegion(diag.RegionReloc, diag.Offset(off), "relocation block size invalid")
		}
		count := (int(size) - 8) / 2
		entries := make([]RelocEntry, 0, count)
		for i := 0; i < count; i++ {
			w := u16(data, off+8+int64(i*2))
			entries = append(entries, RelocEntry{Offset: w & 0x0fff, Type: uint8(w >> 12)})
		}
		blocks = append(blocks, RelocBlock{VirtualAddress: va, SizeOfBlock: size, Entries: entries})
		off += int64(size)
	}
	img.Relocs = &RelocTable{Blocks: blocks}
	return nil
}
