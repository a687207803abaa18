package pe

import (
	"bytes"
	"testing"

	"github.com/xyproto/pegraft/internal/diag"
	"github.com/xyproto/pegraft/internal/resource"
)

// buildRsrcFixture assembles a PE32 with .text, a parseable .rsrc holding
// one small RT_VERSION payload, and a trailing .reloc, then opens it.
func buildRsrcFixture(t *testing.T) (*Image, []byte) {
	t.Helper()
	const fileAlign, sectionAlign = 0x200, 0x1000

	tree := resource.New()
	dataIdx := tree.AddData(resource.DataNode{Data: []byte("version-payload")})
	sub := tree.AddDir(resource.DirNode{Entries: []resource.Entry{
		{ID: 1, Kind: resource.KindData, Child: dataIdx},
	}})
	root := tree.Dir(tree.Root)
	root.Entries = append(root.Entries, resource.Entry{ID: RT_VERSION, Kind: resource.KindDirectory, Child: sub})

	buf, elfanew := buildMinimalPE32([]testSection{
		{".text", 0x100},
		{".rsrc", 0x200},
		{".reloc", 0x80},
	}, fileAlign, sectionAlign)

	// Locate .rsrc from the freshly built table and drop the flattened tree
	// into its raw region.
	img0, err := Open(buf, ModeStrict, diag.AlwaysProceed{})
	if err != nil {
		t.Fatalf("Open pre-resource fixture: %v", err)
	}
	rsrc := img0.Sections[img0.RsrcSection]
	body, err := tree.Flatten(rsrc.VirtualAddress, fileAlign)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if len(body) != int(rsrc.SizeOfRawData) {
		t.Fatalf("fixture body is %d bytes, want %d", len(body), rsrc.SizeOfRawData)
	}
	copy(buf[rsrc.PointerToRawData:], body)
	setDataDirectory(buf, elfanew, ddIndexResource, rsrc.VirtualAddress, uint32(len(body)))

	img, err := Open(buf, ModeStrict, diag.AlwaysProceed{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if img.Resources == nil {
		t.Fatal("fixture resources did not parse")
	}
	return img, buf
}

func TestApplyResourceEngineCascades(t *testing.T) {
	img, buf := buildRsrcFixture(t)
	rsrc := img.Sections[img.RsrcSection]
	relocIdx := -1
	for i := range img.Sections {
		if img.Sections[i].NameString() == ".reloc" {
			relocIdx = i
		}
	}
	if relocIdx < 0 {
		t.Fatal("fixture has no .reloc section")
	}
	oldReloc := img.Sections[relocIdx]
	oldSizeOfImage := u32(buf, img.offsetFor(offSizeOfImage, offSizeOfImage))

	// Grow .rsrc well past its current raw size (and past the section
	// alignment granule, so following sections must move) with a
	// 6000-byte icon.
	merged := img.Resources.Clone()
	iconIdx := merged.AddData(resource.DataNode{Data: bytes.Repeat([]byte{0xAB}, 6000)})
	merged.Dir(merged.Root).Entries = append(merged.Dir(merged.Root).Entries,
		resource.Entry{ID: 3, Kind: resource.KindData, Child: iconIdx})

	out, cascade, err := ApplyResourceEngine(buf, img, merged)
	if err != nil {
		t.Fatalf("ApplyResourceEngine: %v", err)
	}
	if cascade.RawDelta <= 0 {
		t.Fatalf("expected .rsrc to grow, delta = %d", cascade.RawDelta)
	}
	if cascade.NewRawSize%img.FileAlign != 0 {
		t.Errorf("new .rsrc raw size %d not file-aligned", cascade.NewRawSize)
	}
	if int64(len(out)) != int64(len(buf))+cascade.RawDelta {
		t.Errorf("file length grew by %d, want %d", int64(len(out))-int64(len(buf)), cascade.RawDelta)
	}

	// The .reloc record in the emitted section table must have shifted by
	// the delta in raw space and stayed aligned in both spaces.
	structOff := img.sectionStructOffset(relocIdx)
	newVA := u32(out, structOff+12)
	newRA := u32(out, structOff+20)
	if int64(newRA) != int64(oldReloc.PointerToRawData)+cascade.RawDelta {
		t.Errorf(".reloc raw address = 0x%x, want 0x%x", newRA, int64(oldReloc.PointerToRawData)+cascade.RawDelta)
	}
	if newRA%img.FileAlign != 0 {
		t.Errorf(".reloc raw address 0x%x not file-aligned", newRA)
	}
	if newVA%img.SectionAlign != 0 {
		t.Errorf(".reloc virtual address 0x%x not section-aligned", newVA)
	}
	if newVA <= oldReloc.VirtualAddress {
		t.Errorf(".reloc virtual address did not move forward: 0x%x", newVA)
	}

	newSizeOfImage := u32(out, img.offsetFor(offSizeOfImage, offSizeOfImage))
	if newSizeOfImage != cascade.NewSizeOfImage || newSizeOfImage <= oldSizeOfImage {
		t.Errorf("SizeOfImage = 0x%x (cascade says 0x%x), old 0x%x", newSizeOfImage, cascade.NewSizeOfImage, oldSizeOfImage)
	}

	// Every data entry's VA in the rewritten block must equal the .rsrc
	// base VA plus its byte offset, i.e. the re-emitted section reparses
	// and every payload is found at its stamped VA.
	newBody := out[rsrc.PointerToRawData : int64(rsrc.PointerToRawData)+int64(cascade.NewRawSize)]
	reparsed, err := resource.Parse(newBody, rsrc.VirtualAddress)
	if err != nil {
		t.Fatalf("re-parse of rewritten .rsrc: %v", err)
	}
	for _, dn := range reparsed.Datas {
		off := int64(dn.VA) - int64(rsrc.VirtualAddress)
		if off < 0 || off+int64(len(dn.Data)) > int64(len(newBody)) {
			t.Fatalf("data VA 0x%x outside the rewritten .rsrc", dn.VA)
		}
	}
}
