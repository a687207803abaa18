package pe

import "github.com/xyproto/pegraft/internal/resource"

// ResourceCascade reports the section-table and header effects of a
// .rsrc re-emission, so the Splice Controller's end-of-raw-data cursor and
// later engines (Sign) can account for a shifted file tail.
type ResourceCascade struct {
	RawDelta       int64  // new SizeOfRawData - old, for .rsrc
	NewRawSize     uint32 // .rsrc's new SizeOfRawData
	NewVSize       uint32 // .rsrc's new VirtualSize
	NewSizeOfImage uint32
}

// ApplyResourceEngine flattens mergedTree into a new .rsrc body, splices it
// into buf in place of the acceptor's current .rsrc raw region, and
// cascades the section table: SizeOfRawData/VirtualSize for .rsrc,
// SizeOfInitializedData, and VirtualAddress/PointerToRawData realignment
// for every following section, finishing with a recomputed SizeOfImage.
// Sections are assumed laid out contiguously in raw file order (true of
// every PE this engine is expected to see; see DESIGN.md). Returns the new
// full-file buffer (which may differ in length from buf) and a
// ResourceCascade describing what moved.
func ApplyResourceEngine(buf []byte, img *Image, mergedTree *resource.Tree) ([]byte, ResourceCascade, error) {
	rsrc := img.Sections[img.RsrcSection]
	newRsrcBytes, err := mergedTree.Flatten(rsrc.VirtualAddress, int(img.FileAlign))
	if err != nil {
		return nil, ResourceCascade{}, err
	}

	rawDelta := int64(len(newRsrcBytes)) - int64(rsrc.SizeOfRawData)
	newVSize := rsrc.VirtualSize
	if uint32(len(newRsrcBytes)) > newVSize {
		newVSize = uint32(len(newRsrcBytes))
	}
	out := make([]byte, 0, len(buf)+int(rawDelta))
	out = append(out, buf[:rsrc.PointerToRawData]...)
	out = append(out, newRsrcBytes...)
	out = append(out, buf[rsrc.RawEnd():]...)

	// Patch SizeOfRawData/VirtualSize for .rsrc in the (unmoved) section table.
	rsrcStructOff := img.sectionStructOffset(img.RsrcSection)
	putLE32(out[rsrcStructOff+8:], newVSize)
	putLE32(out[rsrcStructOff+16:], uint32(len(newRsrcBytes)))

	// SizeOfInitializedData grows by the absolute size of the .rsrc change
	// on either a grow or a shrink (|delta|, not the signed delta).
	sizeInitOff := img.offsetFor(offSizeOfInitializedData, offSizeOfInitializedData)
	cur := u32(out, sizeInitOff)
	absDelta := rawDelta
	if absDelta < 0 {
		absDelta = -absDelta
	}
	putLE32(out[sizeInitOff:], uint32(int64(cur)+absDelta))

	// Cascade following sections: raw addresses shift by rawDelta (already
	// file-aligned, since Flatten pads to fileAlign); virtual addresses are
	// recomputed from newVSize and realigned up to section alignment.
	rpointer := rsrc.PointerToRawData + uint32(len(newRsrcBytes))
	vpointer := rsrc.VirtualAddress + newVSize
	vpointer = alignUp32(vpointer, img.SectionAlign)

	lastVA, lastVSize := rsrc.VirtualAddress, newVSize
	for i := range img.Sections {
		s := &img.Sections[i]
		if s.PointerToRawData <= rsrc.PointerToRawData {
			continue
		}
		structOff := img.sectionStructOffset(i)
		putLE32(out[structOff+12:], vpointer)
		putLE32(out[structOff+20:], rpointer)
		lastVA, lastVSize = vpointer, s.VirtualSize
		rpointer += s.SizeOfRawData
		vpointer = alignUp32(vpointer+s.VirtualSize, img.SectionAlign)
	}

	newSizeOfImage := alignUp32(lastVA+lastVSize, img.SectionAlign)
	sizeImgOff := img.offsetFor(offSizeOfImage, offSizeOfImage)
	putLE32(out[sizeImgOff:], newSizeOfImage)

	return out, ResourceCascade{
		RawDelta:       rawDelta,
		NewRawSize:     uint32(len(newRsrcBytes)),
		NewVSize:       newVSize,
		NewSizeOfImage: newSizeOfImage,
	}, nil
}

// sectionStructOffset returns the file offset of section i's 40-byte
// header record, using the record's original table position (the model may
// have been re-sorted by raw address; the on-disk table never moves).
func (img *Image) sectionStructOffset(i int) int64 {
	base := img.ELfanew + 24 + int64(img.soohHint)
	return base + int64(img.Sections[i].headerIndex)*40
}

// alignUp32 rounds n up to the next multiple of align (align must be a
// power of two, or zero to mean "no alignment").
func alignUp32(n, align uint32) uint32 {
	if align == 0 {
		return n
	}
	if r := n % align; r != 0 {
		return n + (align - r)
	}
	return n
}
