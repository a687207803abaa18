package pe

import "github.com/xyproto/pegraft/internal/diag"

// parseRich implements the two-state backward scan: find the literal
// "Rich" marker dword scanning backward from e_lfanew-4 down to 0x80, read
// the following key dword, then keep scanning backward for a dword that,
// XORed with the key, equals "DanS". If no Rich is found, strict mode falls
// back to locating a synthesis slot: a zero run >= 40 bytes starting at
// 0x80. Donors never get a synthesized slot; only a genuine Rich Header is
// donatable content.
func (img *Image) parseRich(data []byte, mode ParseMode) error {
	lo := richScanLowerBound
	hi := int(img.ELfanew) - 4
	if hi < lo {
		return img.noRichFallback(data, mode)
	}

	richPos := -1
	for pos := hi; pos >= lo; pos -= 4 {
		if pos+4 > len(data) {
			continue
		}
		if u32(data, int64(pos)) == richMagic {
			richPos = pos
			break
		}
	}
	if richPos < 0 {
		return img.noRichFallback(data, mode)
	}

	keyPos := richPos + 4
	if keyPos+4 > len(data) {
		return diag.MalformedRegion(diag.RegionRich, diag.Offset(richPos), "Rich marker has no trailing key")
	}
	key := u32(data, int64(keyPos))

	danPos := -1
	for pos := richPos - 4; pos >= lo; pos -= 4 {
		if u32(data, int64(pos))^key == danSLittleEndian {
			danPos = pos
			break
		}
	}
	if danPos < 0 {
		return diag.MalformedRegion(diag.RegionRich, diag.Offset(richPos), "DanS marker not found for matching key")
	}
	if !(0 < danPos && danPos < richPos) {
		return diag.MalformedRegion(diag.RegionRich, diag.Offset(danPos), "Rich region has invalid extent")
	}

	// The first 16 bytes after DanS are the marker itself plus three
	// zero-padding dwords (alignment to a 16-byte boundary); only the
	// compid/count pairs after that padding are kept as Values.
	var values []uint32
	for pos := danPos + 16; pos < richPos; pos += 4 {
		values = append(values, u32(data, int64(pos))^key)
	}
	if len(values)%2 != 0 {
		// Non-fatal per design note: odd-length values lists are tolerated
		// and passed through unchanged.
	}

	img.Rich = &RichRegion{
		Start:  int64(danPos),
		End:    int64(richPos) + 8,
		Key:    key,
		Values: values,
	}
	return nil
}

// noRichFallback is what parseRich does when no Rich Header exists: strict
// mode tries to synthesize a slot, donor mode reports the capability absent.
func (img *Image) noRichFallback(data []byte, mode ParseMode) error {
	if mode != ModeStrict {
		return diag.MalformedRegion(diag.RegionRich, diag.Offset(richScanLowerBound), "no Rich header")
	}
	return img.trySynthRich(data)
}

// trySynthRich measures the zero-run starting exactly at richScanLowerBound,
// to be used as a fresh Rich slot when none is present. The run must begin
// at that offset: a non-zero byte before it reaches richMinSynthSize bytes
// causes synthesis to be refused outright (preserved open-question behavior:
// no partial synthesis, no hunting for a later run).
func (img *Image) trySynthRich(data []byte) error {
	lo := richScanLowerBound
	limit := int(img.ELfanew)
	if limit > len(data) {
		limit = len(data)
	}
	run := 0
	for pos := lo; pos < limit; pos++ {
		if data[pos] != 0 {
			break
		}
		run++
	}
	if run < richMinSynthSize {
		return diag.MalformedRegion(diag.RegionRich, diag.Offset(lo), "no Rich header and no zero run available for synthesis")
	}
	// Truncate the usable slot to a multiple of 8.
	usable := (run / 8) * 8
	img.Rich = &RichRegion{
		Start:       int64(lo),
		End:         int64(lo + usable),
		Synthesized: true,
	}
	return nil
}
