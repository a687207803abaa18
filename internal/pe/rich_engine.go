package pe

import "github.com/xyproto/pegraft/internal/rich"

// SpliceRich copies the donor's Rich byte run into the acceptor's slot
// (parsed or synthesized), zero-padding any tail bytes if the donor is
// shorter, and returns the RichRegion describing the result as it now
// exists at the acceptor's original slot offset. buf must be the working
// copy of the acceptor's bytes; the slot's length never changes, so this
// never moves any later byte.
func SpliceRich(buf []byte, acceptorSlot *RichRegion, donor *RichRegion) *RichRegion {
	donorBytes := donor.Bytes()
	slotLen := acceptorSlot.RichSlotLen()
	start := acceptorSlot.Start

	for i := int64(0); i < slotLen; i++ {
		if i < int64(len(donorBytes)) {
			buf[start+i] = donorBytes[i]
		} else {
			buf[start+i] = 0
		}
	}

	out := &RichRegion{
		Start:  start,
		End:    start + int64(len(donorBytes)),
		Key:    donor.Key,
		Values: append([]uint32(nil), donor.Values...),
	}
	if int64(len(donorBytes)) > slotLen {
		// Fit Scorer guarantees this cannot happen, but guard defensively:
		// truncate to the slot rather than overrun the buffer.
		out.End = start + slotLen
	}
	return out
}

// ApplyRichFix runs the linker-version, import-count, and checksum
// fixups against region's decoded Values and re-emits the corrected bytes
// into buf at region's original slot.
func ApplyRichFix(buf []byte, elfanew int64, region *RichRegion, iatFuncCount uint32) {
	if major, minor, ok := rich.LinkerVersion(region.Values); ok {
		buf[elfanew+offMajorLinkerVersion] = major
		buf[elfanew+offMinorLinkerVersion] = minor
	}
	rich.FixImportCount(region.Values, iatFuncCount)

	dosStub := buf[:elfanew]
	newChecksum := rich.Checksum(dosStub, region.Start, region.Values)
	if newChecksum != region.Key {
		region.Key = newChecksum
	}
	out := region.Bytes()
	copy(buf[region.Start:region.Start+int64(len(out))], out)
}
