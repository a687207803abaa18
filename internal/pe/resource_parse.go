package pe

import (
	"github.com/xyproto/pegraft/internal/diag"
	"github.com/xyproto/pegraft/internal/resource"
)

const ddIndexResource = 2

// parseResources locates the .rsrc section (if the Resource Data Directory
// points at one) and hands its raw bytes to resource.Parse, which applies
// the cycle-detection/depth-cap walk.
func (img *Image) parseResources(data []byte) error {
	dd := img.dataDirectory(ddIndexResource)
	if dd.Size == 0 {
		return nil
	}
	sec := img.SectionContaining(dd.VirtualAddress)
	if sec == nil {
		return diag.MalformedRegion(diag.RegionResource, diag.Offset(dd.VirtualAddress), "resource directory RVA not within any section")
	}
	fileOff, _ := img.RVAToFileOffset(dd.VirtualAddress)
	if int(fileOff)+int(sec.SizeOfRawData) > len(data) {
		return diag.MalformedRegion(diag.RegionResource, diag.Offset(fileOff), "resource section out of bounds")
	}
	secBytes := data[sec.PointerToRawData : sec.PointerToRawData+sec.SizeOfRawData]

	tree, err := resource.Parse(secBytes, sec.VirtualAddress)
	if err != nil {
		return diag.MalformedRegion(diag.RegionResource, diag.Offset(fileOff), err.Error())
	}
	img.Resources = tree
	return nil
}
