package pe

import (
	"math/rand"

	"github.com/xyproto/pegraft/internal/imports"
)

// dllShuffle holds the per-DLL state the shuffler needs across its several
// passes: the chosen function permutation plus where its thunk tables live.
type dllShuffle struct {
	dll        *ImportDLL
	perm       []int // perm[newPos] = old function index now at newPos
	ftFileOff  int64
	oftFileOff int64
	hasOFT     bool
	oldVAs     []uint64
}

// ShuffleImportDirectory implements the Import Shuffler end to end:
// it permutes the DLL descriptor list, jointly permutes every DLL's OFT and
// FT thunk tables (so the loader's own FT rebinding from OFT at load time
// still agrees with the order the rewritten code operands assume), rewrites
// the contiguous DLL/function name block in the new order when
// imp.NamesContiguous holds, and finally rewrites every call/jmp/mov site
// in the code section that addressed an old FT slot to address the same
// logical function's new slot. Returns the number of code-section sites
// rewritten.
func ShuffleImportDirectory(buf []byte, img *Image, rng *rand.Rand) (int, error) {
	if img.Imports == nil || len(img.Imports.DLLs) == 0 {
		return 0, nil
	}
	// Work on a copy: img is shared across every donor of a search run, so
	// the shuffle's bookkeeping (DLL order, NameRVAs, function order) must
	// not leak into the model the next sample starts from.
	imp := cloneImportDirectory(img.Imports)
	thunkSize := int64(4)
	if img.IsPE32Plus {
		thunkSize = 8
	}

	if len(imp.DLLs) > 1 {
		reorderImportDescriptors(buf, img, imp, rng.Perm(len(imp.DLLs)))
	}

	shuffles := make([]*dllShuffle, 0, len(imp.DLLs))
	iatVAs := map[uint64]bool{}
	for i := range imp.DLLs {
		dll := &imp.DLLs[i]
		n := len(dll.Functions)
		if n == 0 {
			continue
		}
		ftFileOff, ok := img.RVAToFileOffset(dll.FirstThunkRVA)
		if !ok {
			continue
		}
		var oftFileOff int64
		hasOFT := dll.OriginalFirstThunkRVA != 0
		if hasOFT {
			oftFileOff, hasOFT = img.RVAToFileOffset(dll.OriginalFirstThunkRVA)
		}
		oldVAs := make([]uint64, n)
		for j := range dll.Functions {
			oldVAs[j] = img.ImageBase + uint64(dll.FirstThunkRVA) + uint64(j)*uint64(thunkSize)
			iatVAs[oldVAs[j]] = true
		}
		shuffles = append(shuffles, &dllShuffle{
			dll: dll, perm: rng.Perm(n),
			ftFileOff: ftFileOff, oftFileOff: oftFileOff, hasOFT: hasOFT,
			oldVAs: oldVAs,
		})
	}
	if len(shuffles) == 0 {
		return 0, nil
	}

	if imp.NamesContiguous {
		if rewriteNameBlock(buf, img, imp, shuffles) {
			patchDescriptorNameRVAs(buf, img, imp)
		}
	}

	// FT slot VAs never move; only which function occupies each slot does.
	// Emit OFT and FT together so a loader that rebinds FT from OFT at load
	// time still agrees with the permutation the code-operand rewrite below
	// assumes.
	for _, sh := range shuffles {
		for newPos, oldIdx := range sh.perm {
			fn := &sh.dll.Functions[oldIdx]
			raw := thunkRawValue(fn, img.IsPE32Plus)
			writeThunk(buf[sh.ftFileOff+int64(newPos)*thunkSize:], raw, img.IsPE32Plus)
			if sh.hasOFT {
				writeThunk(buf[sh.oftFileOff+int64(newPos)*thunkSize:], raw, img.IsPE32Plus)
			}
		}
		sh.dll.Functions = permuteFunctions(sh.dll.Functions, sh.perm)
	}

	codeSec := img.SectionContaining(img.BaseOfCode)
	if codeSec == nil {
		return 0, nil
	}
	codeFileOff := int64(codeSec.PointerToRawData)
	codeVA := img.ImageBase + uint64(codeSec.VirtualAddress)
	codeData := buf[codeFileOff : codeFileOff+int64(codeSec.SizeOfRawData)]

	dec := imports.X86Decoder{}
	sites := imports.ScanSites(dec, codeData, codeVA, codeFileOff, img.IsPE32Plus, iatVAs)
	sites = dropUnrelocatedSites(sites, img, codeSec, codeFileOff)

	total := 0
	for _, sh := range shuffles {
		rewrites := imports.Resolve(sites, sh.perm, sh.oldVAs, sh.oldVAs)
		for _, r := range rewrites {
			val := r.NewVA
			if r.RIPRelative {
				val = uint64(uint32(int64(r.NewVA) - int64(r.NextInstVA)))
			}
			switch r.Size {
			case 4:
				putLE32(buf[r.FileOffset:], uint32(val))
			case 8:
				putLE32(buf[r.FileOffset:], uint32(val))
				putLE32(buf[r.FileOffset+4:], uint32(val>>32))
			}
		}
		total += len(rewrites)
	}

	return total, nil
}

// dropUnrelocatedSites filters out absolute-addressing sites whose operand
// bytes are not described by any base relocation entry, when the image
// carries a relocation table at all. A dword in the code section can match
// an IAT VA by coincidence (inline data, jump tables); a real absolute
// reference to the IAT is always relocated, so the table separates the two.
// RIP-relative sites carry no relocation and pass through untouched.
func dropUnrelocatedSites(sites []imports.Site, img *Image, codeSec *Section, codeFileOff int64) []imports.Site {
	if img.Relocs == nil {
		return sites
	}
	relocated := make(map[uint32]bool)
	for _, blk := range img.Relocs.Blocks {
		for _, e := range blk.Entries {
			if e.Type != 0 {
				relocated[blk.VirtualAddress+uint32(e.Offset)] = true
			}
		}
	}
	out := sites[:0]
	for _, s := range sites {
		if !s.RIPRelative {
			operandRVA := uint32(s.FileOffset-codeFileOff) + codeSec.VirtualAddress
			if !relocated[operandRVA] {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// cloneImportDirectory deep-copies the DLL and function lists so the
// shuffle can permute them without mutating the parsed model.
func cloneImportDirectory(imp *ImportDirectory) *ImportDirectory {
	out := &ImportDirectory{
		NamesContiguous: imp.NamesContiguous,
		OFTContiguous:   imp.OFTContiguous,
		FTContiguous:    imp.FTContiguous,
		DLLs:            make([]ImportDLL, len(imp.DLLs)),
	}
	for i, d := range imp.DLLs {
		nd := d
		nd.Functions = append([]ImportFunc(nil), d.Functions...)
		out.DLLs[i] = nd
	}
	return out
}

// reorderImportDescriptors rewrites the 20-byte IMAGE_IMPORT_DESCRIPTOR
// array in dllPerm's order: dllPerm[newPos] names which original DLL row
// now occupies position newPos. Each descriptor's own fields (OFT/FT RVAs,
// timestamp, forwarder chain, name RVA) travel with the row unchanged; only
// which DLL sits at which array slot changes.
func reorderImportDescriptors(buf []byte, img *Image, imp *ImportDirectory, dllPerm []int) {
	dd := img.dataDirectory(ddIndexImport)
	base, ok := img.RVAToFileOffset(dd.VirtualAddress)
	if !ok {
		return
	}
	old := make([]byte, len(imp.DLLs)*importDescriptorSize)
	copy(old, buf[base:base+int64(len(old))])

	for newPos, oldIdx := range dllPerm {
		src := old[oldIdx*importDescriptorSize : (oldIdx+1)*importDescriptorSize]
		dst := buf[base+int64(newPos)*importDescriptorSize : base+int64(newPos+1)*importDescriptorSize]
		copy(dst, src)
	}

	reordered := make([]ImportDLL, len(imp.DLLs))
	for newPos, oldIdx := range dllPerm {
		reordered[newPos] = imp.DLLs[oldIdx]
	}
	imp.DLLs = reordered
}

// rewriteNameBlock re-emits the PE's combined, contiguous DLL-name and
// function-hint/name-string block at its original base RVA, in DLL order
// (as already reordered) then, within each DLL, the function order
// shuffles.perm selects, and updates every DLL.NameRVA/ImportFunc.NameRVA to
// match. If the re-packed block would not fit the original block's extent,
// names are left untouched entirely (the "otherwise keep names in
// place" fallback); the OFT/FT and code-operand rewrites remain sound
// either way, since they reference functions by identity, not position.
func rewriteNameBlock(buf []byte, img *Image, imp *ImportDirectory, shuffles []*dllShuffle) bool {
	blockBase := ^uint32(0)
	blockEnd := uint32(0)
	for i := range imp.DLLs {
		dll := &imp.DLLs[i]
		if dll.NameRVA < blockBase {
			blockBase = dll.NameRVA
		}
		if end := dll.NameRVA + uint32(len(dll.Name)) + 1; end > blockEnd {
			blockEnd = end
		}
		for _, fn := range dll.Functions {
			if fn.IsOrdinal {
				continue
			}
			if fn.NameRVA < blockBase {
				blockBase = fn.NameRVA
			}
			if end := fn.NameRVA + 2 + uint32(len(fn.Name)) + 1; end > blockEnd {
				blockEnd = end
			}
		}
	}
	if blockEnd <= blockBase {
		return false
	}

	var newBytes []byte
	cursor := blockBase
	var newRVA []uint32
	var setters []func(uint32)

	for _, sh := range shuffles {
		dll := sh.dll
		newRVA = append(newRVA, cursor)
		setters = append(setters, func(d *ImportDLL) func(uint32) { return func(rva uint32) { d.NameRVA = rva } }(dll))
		newBytes = append(newBytes, []byte(dll.Name)...)
		newBytes = append(newBytes, 0)
		cursor += uint32(len(dll.Name) + 1)
		if cursor%2 != 0 {
			newBytes = append(newBytes, 0)
			cursor++
		}

		for _, oldIdx := range sh.perm {
			fn := &dll.Functions[oldIdx]
			if fn.IsOrdinal {
				continue
			}
			newRVA = append(newRVA, cursor)
			setters = append(setters, func(f *ImportFunc) func(uint32) { return func(rva uint32) { f.NameRVA = rva } }(fn))
			newBytes = append(newBytes, byte(fn.Hint), byte(fn.Hint>>8))
			newBytes = append(newBytes, []byte(fn.Name)...)
			newBytes = append(newBytes, 0)
			cursor += uint32(2 + len(fn.Name) + 1)
			if cursor%2 != 0 {
				newBytes = append(newBytes, 0)
				cursor++
			}
		}
	}

	if blockBase+uint32(len(newBytes)) > blockEnd {
		return false
	}
	fileOff, ok := img.RVAToFileOffset(blockBase)
	if !ok {
		return false
	}
	copy(buf[fileOff:fileOff+int64(len(newBytes))], newBytes)
	for i, rva := range newRVA {
		setters[i](rva)
	}
	return true
}

// patchDescriptorNameRVAs rewrites each live IMAGE_IMPORT_DESCRIPTOR's Name
// field (offset+12 within its 20-byte row) to match imp.DLLs' current
// in-memory NameRVA, after rewriteNameBlock has moved the DLL name strings;
// the descriptor rows themselves may already have been reordered by
// reorderImportDescriptors, so this always reads the directory's current
// base and walks it in the image's present row order.
func patchDescriptorNameRVAs(buf []byte, img *Image, imp *ImportDirectory) {
	dd := img.dataDirectory(ddIndexImport)
	base, ok := img.RVAToFileOffset(dd.VirtualAddress)
	if !ok {
		return
	}
	for i, dll := range imp.DLLs {
		off := base + int64(i)*importDescriptorSize + 12
		putLE32(buf[off:], dll.NameRVA)
	}
}

// permuteFunctions returns dll's function list reordered so that slot
// newPos holds the function that used to be at perm[newPos], keeping the
// in-memory model consistent with the thunk tables just rewritten.
func permuteFunctions(fns []ImportFunc, perm []int) []ImportFunc {
	out := make([]ImportFunc, len(fns))
	for newPos, oldIdx := range perm {
		f := fns[oldIdx]
		f.OFTIndex = newPos
		out[newPos] = f
	}
	return out
}

// thunkRawValue is the 4-or-8-byte raw encoding a thunk slot holds for fn:
// the ordinal bit set plus the ordinal, or the bare name-struct RVA.
func thunkRawValue(fn *ImportFunc, is64 bool) uint64 {
	if fn.IsOrdinal {
		highBit := uint64(1) << 31
		if is64 {
			highBit = uint64(1) << 63
		}
		return highBit | uint64(fn.Ordinal)
	}
	return uint64(fn.NameRVA)
}

// writeThunk encodes raw little-endian into a thunk-sized slot (4 bytes on
// PE32, 8 on PE32+).
func writeThunk(b []byte, raw uint64, is64 bool) {
	putLE32(b, uint32(raw))
	if is64 {
		putLE32(b[4:], uint32(raw>>32))
	}
}
