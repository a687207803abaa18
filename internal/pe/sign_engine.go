package pe

// ApplySign splices donorSig into buf as the Authenticode signature,
// discarding whatever the acceptor carried there. cursor is the
// Splice Controller's running end-of-raw-data position (the acceptor's
// EndOfRawData, moved by however much the resource engine grew or shrank
// the file); if the acceptor's own signature started later than cursor, its
// offset wins instead; a bare acceptor with no prior signature and a zero
// cursor falls back to EndOfRawData. When donorSig is the same length as
// whatever occupied that slot, the bytes are overwritten in place, the
// Security Data Directory's size is left untouched and its offset is
// rewritten only if the slot no longer starts where it says. Otherwise the
// trailing overlay is zero-padded to an 8-byte boundary and the directory
// entry is rewritten to (signOffset, len(donorSig)+overlayLen). Returns the
// new buffer (its length may change) and the signature's final offset.
func ApplySign(buf []byte, img *Image, cursor int64, donorSig []byte) ([]byte, int64) {
	signOffset := cursor
	var oldSize int64
	if img.Security != nil {
		oldSize = int64(img.Security.Size)
		if int64(img.Security.Offset) > signOffset {
			signOffset = int64(img.Security.Offset)
		}
	} else if signOffset == 0 {
		signOffset = img.EndOfRawData()
	}

	if int64(len(donorSig)) == oldSize {
		copy(buf[signOffset:signOffset+oldSize], donorSig)
		if img.Security != nil && int64(img.Security.Offset) != signOffset {
			putLE32(buf[img.offsetFor(offSecurityDir32, offSecurityDir64):], uint32(signOffset))
		}
		return buf, signOffset
	}

	overlay := append([]byte(nil), buf[signOffset+oldSize:]...)
	if pad := len(overlay) % 8; pad != 0 {
		overlay = append(overlay, make([]byte, 8-pad)...)
	}

	out := make([]byte, 0, signOffset+int64(len(donorSig))+int64(len(overlay)))
	out = append(out, buf[:signOffset]...)
	out = append(out, donorSig...)
	out = append(out, overlay...)

	ddOff := img.offsetFor(offSecurityDir32, offSecurityDir64)
	putLE32(out[ddOff:], uint32(signOffset))
	putLE32(out[ddOff+4:], uint32(len(donorSig)+len(overlay)))

	return out, signOffset
}

// FixSignOffset rewrites the Security Data Directory's offset field to
// lastOffset without touching its size or the signature bytes themselves,
// for the case where an earlier region (the resource cascade from a
// VersionInfo removal) shifted the file tail but the signature itself is
// not being removed or replaced. A no-op when the acceptor carries no
// signature at all.
func FixSignOffset(buf []byte, img *Image, lastOffset int64) {
	if img.Security == nil || img.Security.Offset == 0 {
		return
	}
	ddOff := img.offsetFor(offSecurityDir32, offSecurityDir64)
	putLE32(buf[ddOff:], uint32(lastOffset))
}
