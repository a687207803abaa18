package imports

// Site is one call/jmp/mov operand in the code section found to address an
// IAT slot. RIPRelative sites encode their target as a displacement from
// NextInstVA (the VA of the byte after the instruction), absolute sites as
// the target VA itself.
type Site struct {
	FileOffset  int64
	Size        int
	OldVA       uint64
	RIPRelative bool
	NextInstVA  uint64
}

// SiteRewrite is a resolved edit: the bytes at FileOffset (Size of them)
// must become NewVA's encoding: the VA itself for absolute sites, or
// NewVA-NextInstVA for RIP-relative ones.
type SiteRewrite struct {
	FileOffset  int64
	Size        int
	NewVA       uint64
	RIPRelative bool
	NextInstVA  uint64
}

// ScanSites disassembles code linearly starting at codeVA (the VA of
// code[0]) and returns every call/jmp/mov site whose memory operand
// resolves to one of iatVAs. codeFileOffset maps a decoded instruction's
// position within code back to its on-disk location for later rewriting.
// Decoding failures at a given position skip forward one byte, as real
// code sections do contain data (jump tables, padding) that a linear
// disassembly pass cannot decode.
func ScanSites(dec Decoder, code []byte, codeVA uint64, codeFileOffset int64, is64Bit bool, iatVAs map[uint64]bool) []Site {
	var sites []Site
	pos := 0
	for pos < len(code) {
		inst, err := dec.Decode(code[pos:], codeVA+uint64(pos), is64Bit)
		if err != nil || inst.Len == 0 {
			pos++
			continue
		}
		if inst.HasMemOperand && (inst.Mnemonic == MnemCall || inst.Mnemonic == MnemJmp || inst.Mnemonic == MnemMov) {
			if iatVAs[inst.OperandAddr] && inst.OperandSize > 0 {
				sites = append(sites, Site{
					FileOffset:  codeFileOffset + int64(pos) + int64(inst.OperandOffset),
					Size:        inst.OperandSize,
					OldVA:       inst.OperandAddr,
					RIPRelative: inst.RIPRelative,
					NextInstVA:  codeVA + uint64(pos) + uint64(inst.Len),
				})
			}
		}
		pos += inst.Len
	}
	return sites
}

// Permutation maps n FT-table slots to a shuffled order: newSlots[i] is
// the original slot index now occupying position i. perm must already be
// seeded by the caller; the shuffler does not own randomness, so a
// caller-supplied seed makes a shuffle reproducible for testing.
type Permutation []int

// Resolve builds the site rewrites needed to retarget every site in sites
// from its old VA to the VA of whichever slot now holds that function
// after perm is applied. oldVAs and newVAs are parallel arrays of the
// same length as perm, indexed by original slot position; oldVAs[i] is the
// VA code currently references for slot i, and newVAs[j] is the VA that
// will occupy position j in the rewritten FT table (i.e. the shuffler's
// own bookkeeping, not the sites).
func Resolve(sites []Site, perm Permutation, oldVAs, newVAs []uint64) []SiteRewrite {
	target := make(map[uint64]uint64, len(perm))
	for newPos, oldIdx := range perm {
		if oldIdx < 0 || oldIdx >= len(oldVAs) || newPos >= len(newVAs) {
			continue
		}
		target[oldVAs[oldIdx]] = newVAs[newPos]
	}
	out := make([]SiteRewrite, 0, len(sites))
	for _, s := range sites {
		nv, ok := target[s.OldVA]
		if !ok {
			continue
		}
		out = append(out, SiteRewrite{
			FileOffset:  s.FileOffset,
			Size:        s.Size,
			NewVA:       nv,
			RIPRelative: s.RIPRelative,
			NextInstVA:  s.NextInstVA,
		})
	}
	return out
}
