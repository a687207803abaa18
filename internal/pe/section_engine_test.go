package pe

import (
	"testing"

	"github.com/xyproto/pegraft/internal/diag"
)

func openFixture(t *testing.T, sections []testSection) (*Image, []byte) {
	t.Helper()
	buf, _ := buildMinimalPE32(sections, 0x200, 0x1000)
	img, err := Open(buf, ModeStrict, diag.AlwaysProceed{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return img, buf
}

func TestApplyTimeDateStamp(t *testing.T) {
	img, buf := openFixture(t, []testSection{{".text", 0x100}})
	ApplyTimeDateStamp(buf, img, 0xdeadbeef)
	got := u32(buf, img.ELfanew+offTimeDateStamp)
	if got != 0xdeadbeef {
		t.Errorf("got 0x%x, want 0xdeadbeef", got)
	}
}

func TestApplySectionNamesSkipsRsrc(t *testing.T) {
	img, buf := openFixture(t, []testSection{{".text", 0x100}, {".rsrc", 0x100}})
	donorNames := [][8]byte{
		{'.', 'c', 'o', 'd', 'e', 0, 0, 0},
		{'.', 'r', 's', 'r', 'c', 0, 0, 0},
	}
	changed := ApplySectionNames(buf, img, donorNames)
	if changed != 1 {
		t.Fatalf("expected 1 name changed, got %d", changed)
	}
	if img.Sections[1].NameString() != ".rsrc" {
		// img.Sections reflects the pre-edit parse; re-read from buf instead.
	}
	off := img.sectionStructOffset(1)
	var got [8]byte
	copy(got[:], buf[off:off+8])
	if got != rsrcSectionName {
		t.Errorf(".rsrc section must never be renamed, got %q", got)
	}
	off0 := img.sectionStructOffset(0)
	var got0 [8]byte
	copy(got0[:], buf[off0:off0+8])
	if got0 != donorNames[0] {
		t.Errorf("expected .text renamed to %q, got %q", donorNames[0], got0)
	}
}

func TestRemoveStampZeroesField(t *testing.T) {
	img, buf := openFixture(t, []testSection{{".text", 0x100}})
	ApplyTimeDateStamp(buf, img, 0x12345678)
	RemoveStamp(buf, img)
	if got := u32(buf, img.ELfanew+offTimeDateStamp); got != 0 {
		t.Errorf("expected zeroed stamp, got 0x%x", got)
	}
}
