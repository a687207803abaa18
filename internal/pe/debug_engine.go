package pe

import "sort"

// debugStructPrefixSize is the 20-byte prefix of a debug entry (everything
// but the trailing AddressOfRawData/PointerToRawData pair) that the
// in-place transplant takes from the donor wholesale.
const debugStructPrefixSize = 20

// TransplantDebugInPlace pairs each acceptor debug entry (ascending by
// data size) with the first donor entry (donor pool sorted descending) it
// fits: the donor's 20-byte entry prefix (including its
// SizeOfData) replaces the acceptor's, the acceptor's trailing
// (AddressOfRawData, PointerToRawData) 8 bytes are preserved verbatim, and
// the acceptor's data region is overwritten with the donor's data,
// zero-padded to the acceptor's original capacity. It mutates buf in
// place and returns how many of the acceptor's entries were changed.
func TransplantDebugInPlace(buf []byte, acceptorEntries []DebugEntry, donorEntries []DebugEntry) int {
	acc := append([]DebugEntry(nil), acceptorEntries...)
	sort.SliceStable(acc, func(i, j int) bool { return acc[i].SizeOfData < acc[j].SizeOfData })
	pool := append([]DebugEntry(nil), donorEntries...)
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].SizeOfData > pool[j].SizeOfData })

	changed := 0
	for _, a := range acc {
		for i, d := range pool {
			if d.SizeOfData > a.SizeOfData {
				continue
			}
			prefix := make([]byte, debugStructPrefixSize)
			putLE32(prefix[0:], d.Characteristics)
			putLE32(prefix[4:], d.TimeDateStamp)
			prefix[8] = byte(d.MajorVersion)
			prefix[9] = byte(d.MajorVersion >> 8)
			prefix[10] = byte(d.MinorVersion)
			prefix[11] = byte(d.MinorVersion >> 8)
			putLE32(prefix[12:], d.Type)
			putLE32(prefix[16:], d.SizeOfData)
			copy(buf[a.FileOffset:a.FileOffset+debugStructPrefixSize], prefix)

			dataOff := int64(a.PointerToRawData)
			n := copy(buf[dataOff:dataOff+int64(a.SizeOfData)], d.Data)
			for z := n; z < int(a.SizeOfData); z++ {
				buf[dataOff+int64(z)] = 0
			}

			pool = append(pool[:i], pool[i+1:]...)
			changed++
			break
		}
	}
	return changed
}

// align16 rounds n up to the next multiple of 16.
func align16(n int) int {
	if r := n % 16; r != 0 {
		return n + (16 - r)
	}
	return n
}

// SetDebugDirectory rewrites the acceptor's Debug Data Directory entry
// (index 6, e_lfanew+168/+184) to point at rva with the given size, for the
// spill-to-resources fallback once the packed block's final VA is known;
// size is n*28 for an n-entry packed block.
func SetDebugDirectory(buf []byte, img *Image, rva, size uint32) {
	img.setDataDirectory(buf, ddIndexDebug, rva, size)
}

// PackDebugToResource serializes donor's debug entry array followed by its
// data blobs into a single 16-byte-aligned block, every entry rewritten to
// point at its blob's position within the block (AddressOfRawData and
// PointerToRawData both set relative to blockVA/blockRawOffset, the future
// position of this block once appended to .rsrc). Used by the spill-to-
// resources fallback when no acceptor debug slot can hold any donor
// entry.
func PackDebugToResource(donorEntries []DebugEntry, blockVA, blockRawOffset uint32) []byte {
	n := len(donorEntries)
	headerSize := n * debugEntrySize
	blobOff := headerSize
	blobOffsets := make([]int, n)
	for i, e := range donorEntries {
		blobOffsets[i] = blobOff
		blobOff += int(e.SizeOfData)
	}
	total := align16(blobOff)
	out := make([]byte, total)
	for i, e := range donorEntries {
		base := i * debugEntrySize
		putLE32(out[base:], e.Characteristics)
		putLE32(out[base+4:], e.TimeDateStamp)
		out[base+8] = byte(e.MajorVersion)
		out[base+9] = byte(e.MajorVersion >> 8)
		out[base+10] = byte(e.MinorVersion)
		out[base+11] = byte(e.MinorVersion >> 8)
		putLE32(out[base+12:], e.Type)
		putLE32(out[base+16:], e.SizeOfData)
		putLE32(out[base+20:], blockVA+uint32(blobOffsets[i]))
		putLE32(out[base+24:], blockRawOffset+uint32(blobOffsets[i]))
		copy(out[blobOffsets[i]:], e.Data)
	}
	return out
}
