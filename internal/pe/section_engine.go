package pe

// ApplySectionNames walks the acceptor's and donor's section lists
// side by side in order, skipping either side's ".rsrc" entry entirely
// (that section is owned by the Resource Engine, never renamed), and
// copies each donor name over the corresponding acceptor slot when they
// differ. Stops as soon as either list is exhausted. Returns how many
// names changed.
func ApplySectionNames(buf []byte, img *Image, donorNames [][8]byte) int {
	changed := 0
	d := 0
	for o := range img.Sections {
		if img.Sections[o].IsRsrc() {
			continue
		}
		for d < len(donorNames) && isRsrcName(donorNames[d]) {
			d++
		}
		if d >= len(donorNames) {
			break
		}
		if img.Sections[o].Name != donorNames[d] {
			off := img.sectionStructOffset(o)
			copy(buf[off:off+8], donorNames[d][:])
			changed++
		}
		d++
	}
	return changed
}

var rsrcSectionName = [8]byte{'.', 'r', 's', 'r', 'c', 0, 0, 0}

func isRsrcName(name [8]byte) bool {
	return name == rsrcSectionName
}

// ApplyTimeDateStamp overwrites the acceptor's File Header TimeDateStamp
// (e_lfanew+8, 4 bytes) with the donor's.
func ApplyTimeDateStamp(buf []byte, img *Image, donorStamp uint32) {
	off := img.ELfanew + offTimeDateStamp
	putLE32(buf[off:], donorStamp)
}
