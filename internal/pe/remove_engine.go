package pe

// RemoveRich zeroes the acceptor's Rich slot in place. No-op if none was
// parsed (nothing to remove).
func RemoveRich(buf []byte, rich *RichRegion) {
	if rich == nil {
		return
	}
	n := rich.RichSlotLen()
	for i := int64(0); i < n; i++ {
		buf[rich.Start+i] = 0
	}
}

// RemoveStamp zeroes the File Header TimeDateStamp field.
func RemoveStamp(buf []byte, img *Image) {
	off := img.ELfanew + offTimeDateStamp
	putLE32(buf[off:], 0)
}

// RemoveDebug zeroes every debug entry's 28-byte struct and its referenced
// data region, leaving the Debug Data Directory entry (size/RVA) as-is;
// callers that also want the directory slot cleared do so separately.
func RemoveDebug(buf []byte, entries []DebugEntry) {
	for _, e := range entries {
		for i := int64(0); i < debugEntrySize; i++ {
			buf[e.FileOffset+i] = 0
		}
		if e.PointerToRawData != 0 {
			dataOff := int64(e.PointerToRawData)
			for i := uint32(0); i < e.SizeOfData; i++ {
				buf[dataOff+int64(i)] = 0
			}
		}
	}
}

// RemoveSign truncates the file at the acceptor's signature offset,
// discarding the signature and everything the resource cascade may have
// pushed after it, then zeroes the Security Data Directory entry. lastOffset,
// if nonzero, overrides sec.Offset (set when a prior resource re-emission
// moved the intended truncation point forward).
func RemoveSign(buf []byte, img *Image, sec *SecurityDir, lastOffset int64) []byte {
	if sec == nil {
		return buf
	}
	off := int64(sec.Offset)
	if lastOffset > 0 && lastOffset != off {
		off = lastOffset
	}
	ddOff := img.offsetFor(offSecurityDir32, offSecurityDir64)
	putLE32(buf[ddOff:], 0)
	putLE32(buf[ddOff+4:], 0)
	return buf[:off]
}

// RemoveOverlay truncates the file at the overlay's start offset.
func RemoveOverlay(buf []byte, ov *Overlay, lastOffset int64) []byte {
	if ov == nil {
		return buf
	}
	off := ov.Offset
	if lastOffset > 0 && lastOffset != off {
		off = lastOffset
	}
	return buf[:off]
}
