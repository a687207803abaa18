package pe

import (
	"bytes"
	"testing"

	"github.com/xyproto/pegraft/internal/diag"
)

// buildSignedFixture appends sigSize signature bytes after the single
// section's raw data and points the Security Data Directory at them.
func buildSignedFixture(t *testing.T, sigSize int) (*Image, []byte, []byte) {
	t.Helper()
	buf, elfanew := buildMinimalPE32([]testSection{{".text", 0x100}}, 0x200, 0x1000)
	sig := bytes.Repeat([]byte{0xAA}, sigSize)
	sigOffset := len(buf)
	buf = append(buf, sig...)
	setDataDirectory(buf, elfanew, ddIndexSecurity, uint32(sigOffset), uint32(sigSize))

	img, err := Open(buf, ModeStrict, diag.AlwaysProceed{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return img, buf, sig
}

func TestApplySignSameSize(t *testing.T) {
	img, buf, _ := buildSignedFixture(t, 16)
	donorSig := bytes.Repeat([]byte{0xBB}, 16)
	out, offset := ApplySign(buf, img, img.EndOfRawData(), donorSig)
	if !bytes.Equal(out[offset:offset+16], donorSig) {
		t.Errorf("donor signature not spliced at expected offset")
	}
	if len(out) != len(buf) {
		t.Errorf("same-size splice should not change file length: got %d, want %d", len(out), len(buf))
	}
}

func TestApplySignGrowsAndRewritesDirectory(t *testing.T) {
	img, buf, _ := buildSignedFixture(t, 16)
	donorSig := bytes.Repeat([]byte{0xCC}, 40)
	out, offset := ApplySign(buf, img, img.EndOfRawData(), donorSig)

	ddOff := img.offsetFor(offSecurityDir32, offSecurityDir64)
	gotOffset := u32(out, ddOff)
	gotSize := u32(out, ddOff+4)
	if int64(gotOffset) != offset {
		t.Errorf("directory offset mismatch: got %d, want %d", gotOffset, offset)
	}
	if gotSize < uint32(len(donorSig)) {
		t.Errorf("directory size %d smaller than donor signature %d", gotSize, len(donorSig))
	}
	if !bytes.Equal(out[offset:offset+int64(len(donorSig))], donorSig) {
		t.Errorf("donor signature not found at rewritten offset")
	}
}

func TestApplySignOverlayPadding(t *testing.T) {
	img, buf, _ := buildSignedFixture(t, 16)
	buf = append(buf, []byte{1, 2, 3}...) // 3-byte overlay trailing the signature
	donorSig := bytes.Repeat([]byte{0xDD}, 20)
	out, offset := ApplySign(buf, img, img.EndOfRawData(), donorSig)
	// Overlay padding only makes the *overlay* length a multiple of 8, not
	// the whole file: the 3 trailing bytes become 8.
	if overlay := len(out) - int(offset) - len(donorSig); overlay != 8 {
		t.Errorf("overlay after the signature is %d bytes, want 3 padded to 8", overlay)
	}
}
