package pe

import (
	"sort"

	"github.com/xyproto/pegraft/internal/diag"
)

const ddIndexImport = 1

// importDescriptorSize is the size of one IMAGE_IMPORT_DESCRIPTOR.
const importDescriptorSize = 20

// parseImports walks the Import Directory until an all-zero descriptor,
// then each DLL's thunk array (4 bytes on PE32, 8 on PE32+) until a null
// thunk. It also determines the three layout invariants (contiguous name
// block, contiguous OFT block, contiguous FT block) the shuffler depends
// on: DLL-name and function hint/name strings occupy one sorted block,
// and the OFT/FT tables each occupy their own contiguous block.
func (img *Image) parseImports(data []byte) error {
	dd := img.dataDirectory(ddIndexImport)
	if dd.Size == 0 {
		return nil
	}
	fileOff, ok := img.RVAToFileOffset(dd.VirtualAddress)
	if !ok {
		return diag.MalformedRegion(diag.RegionImport, diag.Offset(dd.VirtualAddress), "import directory RVA not within any section")
	}

	thunkSize := int64(4)
	if img.IsPE32Plus {
		thunkSize = 8
	}

	var dlls []ImportDLL
	var nameExtents, oftExtents, ftExtents []rvaExtent
	for off := fileOff; ; off += importDescriptorSize {
		if int(off)+importDescriptorSize > len(data) {
			return diag.MalformedRegion(diag.RegionImport, diag.Offset(off), "import descriptor out of bounds")
		}
		oftRVA := u32(data, off)
		ts := u32(data, off+4)
		fwd := u32(data, off+8)
		nameRVA := u32(data, off+12)
		ftRVA := u32(data, off+16)
		if oftRVA == 0 && ts == 0 && fwd == 0 && nameRVA == 0 && ftRVA == 0 {
			break
		}
		name, err := img.readCString(data, nameRVA)
		if err != nil {
			return diag.MalformedRegion(diag.RegionImport, diag.Offset(off), err.Error())
		}
		dll := ImportDLL{
			OriginalFirstThunkRVA: oftRVA,
			TimeDateStamp:         ts,
			ForwarderChain:        fwd,
			NameRVA:               nameRVA,
			FirstThunkRVA:         ftRVA,
			Name:                  name,
		}
		nameExtents = append(nameExtents, rvaExtent{nameRVA, len(name) + 1})

		thunkRVA := oftRVA
		if thunkRVA == 0 {
			thunkRVA = ftRVA
		}
		thunkOff, ok := img.RVAToFileOffset(thunkRVA)
		if !ok {
			return diag.MalformedRegion(diag.RegionImport, diag.Offset(off), "import thunk RVA not within any section")
		}

		idx := 0
		for {
			if int(thunkOff)+int(thunkSize) > len(data) {
				return diag.MalformedRegion(diag.RegionImport, diag.Offset(thunkOff), "import thunk out of bounds")
			}
			var raw uint64
			var highBit uint64
			if img.IsPE32Plus {
				raw = u64(data, thunkOff)
				highBit = 1 << 63
			} else {
				raw = uint64(u32(data, thunkOff))
				highBit = 1 << 31
			}
			if raw == 0 {
				break
			}
			fn := ImportFunc{OFTIndex: idx}
			if raw&highBit != 0 {
				fn.IsOrdinal = true
				fn.Ordinal = uint16(raw &^ highBit)
			} else {
				fn.NameRVA = uint32(raw)
				hintOff, ok := img.RVAToFileOffset(fn.NameRVA)
				if !ok {
					return diag.MalformedRegion(diag.RegionImport, diag.Offset(thunkOff), "hint/name RVA not within any section")
				}
				fn.Hint = u16(data, hintOff)
				nm, err := img.readCString(data, fn.NameRVA+2)
				if err != nil {
					return diag.MalformedRegion(diag.RegionImport, diag.Offset(hintOff), err.Error())
				}
				fn.Name = nm
				nameExtents = append(nameExtents, rvaExtent{fn.NameRVA, 2 + len(nm) + 1})
			}
			fn.ThunkVA = img.ImageBase + uint64(ftRVA) + uint64(idx)*uint64(thunkSize)
			dll.Functions = append(dll.Functions, fn)
			idx++
			thunkOff += thunkSize
		}

		// Each thunk table spans its functions plus the null terminator.
		tableLen := (len(dll.Functions) + 1) * int(thunkSize)
		if oftRVA != 0 {
			oftExtents = append(oftExtents, rvaExtent{oftRVA, tableLen})
		}
		ftExtents = append(ftExtents, rvaExtent{ftRVA, tableLen})
		dlls = append(dlls, dll)
	}

	imp := &ImportDirectory{DLLs: dlls}
	imp.NamesContiguous = isContiguousBlock(nameExtents, 2)
	imp.OFTContiguous = isContiguousBlock(oftExtents, 0)
	imp.FTContiguous = isContiguousBlock(ftExtents, 0)
	img.Imports = imp
	return nil
}

// readCString reads a NUL-terminated ASCII string at the given RVA,
// capped at importNameLengthCap bytes.
func (img *Image) readCString(data []byte, rva uint32) (string, error) {
	off, ok := img.RVAToFileOffset(rva)
	if !ok {
		return "", diag.MalformedRegion(diag.RegionImport, diag.Offset(rva), "string RVA not within any section")
	}
	end := off
	limit := off + importNameLengthCap
	for end < int64(len(data)) && end < limit && data[end] != 0 {
		end++
	}
	if end >= limit {
		return "", diag.MalformedRegion(diag.RegionImport, diag.Offset(off), "string exceeds import name length cap")
	}
	if end > int64(len(data)) {
		return "", diag.MalformedRegion(diag.RegionImport, diag.Offset(off), "string runs out of bounds")
	}
	return string(data[off:end]), nil
}

// rvaExtent is one occupied [rva, rva+size) range used by the contiguity
// checks below.
type rvaExtent struct {
	rva  uint32
	size int
}

// isContiguousBlock reports whether the extents, sorted by RVA, tile one
// block with no overlap and no gap larger than pad bytes between
// neighbors, the layout invariant the shuffler requires before it will
// move names or thunk tables. pad absorbs the linker's 2-byte alignment
// between hint/name strings; thunk tables tolerate no gap at all.
func isContiguousBlock(extents []rvaExtent, pad int) bool {
	if len(extents) < 2 {
		return true
	}
	sorted := append([]rvaExtent(nil), extents...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].rva < sorted[j].rva })
	for i := 1; i < len(sorted); i++ {
		prevEnd := sorted[i-1].rva + uint32(sorted[i-1].size)
		if sorted[i].rva < prevEnd || sorted[i].rva > prevEnd+uint32(pad) {
			return false
		}
	}
	return true
}
