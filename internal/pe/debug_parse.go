package pe

import "github.com/xyproto/pegraft/internal/diag"

const ddIndexDebug = 6

// parseDebug reads the Debug Directory: each 28-byte entry must start with
// a zero Characteristics dword; raw-pointer must be <= virtual address;
// size/offset must be in-bounds; total size must be divisible by 28.
func (img *Image) parseDebug(data []byte) error {
	dd := img.dataDirectory(ddIndexDebug)
	if dd.Size == 0 {
		return nil // no debug directory present; not an error
	}
	if dd.Size%debugEntrySize != 0 {
		return diag.MalformedRegion(diag.RegionDebug, diag.Offset(dd.VirtualAddress), "debug directory size not a multiple of 28")
	}
	fileOff, ok := img.RVAToFileOffset(dd.VirtualAddress)
	if !ok {
		return diag.MalformedRegion(diag.RegionDebug, diag.Offset(dd.VirtualAddress), "debug directory RVA not within any section")
	}

	count := int(dd.Size) / debugEntrySize
	entries := make([]DebugEntry, 0, count)
	for i := 0; i < count; i++ {
		off := fileOff + int64(i*debugEntrySize)
		if int(off)+debugEntrySize > len(data) {
			return diag.MalformedRegion(diag.RegionDebug, diag.Offset(off), "debug entry out of bounds")
		}
		e := DebugEntry{
			Characteristics:  u32(data, off),
			TimeDateStamp:    u32(data, off+4),
			MajorVersion:     u16(data, off+8),
			MinorVersion:     u16(data, off+10),
			Type:             u32(data, off+12),
			SizeOfData:       u32(data, off+16),
			AddressOfRawData: u32(data, off+20),
			PointerToRawData: u32(data, off+24),
			FileOffset:       off,
		}
		if e.Characteristics != 0 {
			return diag.MalformedRegion(diag.RegionDebug, diag.Offset(off), "debug entry Characteristics must be zero")
		}
		if e.PointerToRawData > e.AddressOfRawData {
			return diag.MalformedRegion(diag.RegionDebug, diag.Offset(off), "debug entry raw pointer exceeds virtual address")
		}
		if e.SizeOfData > 0 {
			dataOff := int64(e.PointerToRawData)
			if int(dataOff)+int(e.SizeOfData) > len(data) {
				return diag.MalformedRegion(diag.RegionDebug, diag.Offset(dataOff), "debug entry data out of bounds")
			}
			e.Data = append([]byte(nil), data[dataOff:int64(dataOff)+int64(e.SizeOfData)]...)
		}
		entries = append(entries, e)
	}
	img.Debug = entries
	return nil
}
