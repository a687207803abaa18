package pe

import "github.com/xyproto/pegraft/internal/diag"

const ddIndexSecurity = 4

// parseSecurity reads the Security Data Directory. Unlike every other
// directory entry, its VirtualAddress field is a *file offset*, not an
// RVA: the Authenticode blob lives in the overlay, outside any section's
// mapped virtual range.
func (img *Image) parseSecurity(data []byte) error {
	dd := img.dataDirectory(ddIndexSecurity)
	if dd.Size == 0 {
		return nil
	}
	off := int64(dd.VirtualAddress)
	if off < 0 || off+int64(dd.Size) > int64(len(data)) {
		return diag.MalformedRegion(diag.RegionSign, diag.Offset(off), "security directory out of bounds")
	}
	img.Security = &SecurityDir{
		Offset: dd.VirtualAddress,
		Size:   dd.Size,
		Data:   append([]byte(nil), data[off:off+int64(dd.Size)]...),
	}
	return nil
}

// parseOverlay captures everything past the largest raddr+rsize (or past
// the signature blob, if present, since the Authenticode entry always sits
// at the very end of the file).
func (img *Image) parseOverlay(data []byte) {
	end := img.EndOfRawData()
	if img.Security != nil {
		if sigEnd := int64(img.Security.Offset) + int64(img.Security.Size); sigEnd > end {
			end = sigEnd
		}
	}
	if end >= int64(len(data)) {
		return
	}
	img.Overlay = &Overlay{
		Offset: end,
		Data:   append([]byte(nil), data[end:]...),
	}
}
