package rich

import "testing"

func TestRol(t *testing.T) {
	cases := []struct {
		val, num, want uint32
	}{
		{0x1, 1, 0x2},
		{0x80000000, 1, 0x1},
		{0x12345678, 0, 0x12345678},
		{0x1, 32, 0x1}, // num masked to 31, so 32 == 0
	}
	for _, c := range cases {
		if got := rol(c.val, c.num); got != c.want {
			t.Errorf("rol(0x%x, %d) = 0x%x, want 0x%x", c.val, c.num, got, c.want)
		}
	}
}

func TestLinkerVersion(t *testing.T) {
	var linkerCompid uint32
	found := false
	for id, name := range ProductIDs {
		if name == "Linker1210" {
			linkerCompid = id
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Linker1210 product id in table")
	}
	values := []uint32{linkerCompid << 16, 7}
	major, minor, ok := LinkerVersion(values)
	if !ok {
		t.Fatal("expected a linker version to be found")
	}
	if major != 12 || minor != 10 {
		t.Errorf("got %d.%d, want 12.10", major, minor)
	}
}

func TestLinkerVersionNoMatch(t *testing.T) {
	if _, _, ok := LinkerVersion([]uint32{0xdeadbeef, 1}); ok {
		t.Error("expected no linker version for an unrecognized compid")
	}
}

func TestFixImportCount(t *testing.T) {
	values := []uint32{0x00010000, 5, 0x00020000, 9}
	FixImportCount(values, 42)
	if values[1] != 42 {
		t.Errorf("import count not rewritten: got %d, want 42", values[1])
	}
	if values[3] != 9 {
		t.Errorf("unrelated pair should be untouched, got %d", values[3])
	}
}

func TestFixImportCountNoMarker(t *testing.T) {
	values := []uint32{0x00020000, 9}
	FixImportCount(values, 42)
	if values[1] != 9 {
		t.Error("expected no change when import marker pair is absent")
	}
}

func TestChecksumDeterministic(t *testing.T) {
	dosStub := make([]byte, 0x80)
	for i := range dosStub {
		dosStub[i] = byte(i)
	}
	values := []uint32{0x00010000, 3, 0x00020000, 1}
	a := Checksum(dosStub, 0x78, values)
	b := Checksum(dosStub, 0x78, values)
	if a != b {
		t.Fatalf("checksum is not deterministic: %d != %d", a, b)
	}
}

func TestChecksumIgnoresELfanewBytes(t *testing.T) {
	stub1 := make([]byte, 0x80)
	stub2 := make([]byte, 0x80)
	copy(stub2, stub1)
	stub2[0x3c] = 0xff
	stub2[0x3d] = 0xff
	values := []uint32{0x00010000, 1}
	if Checksum(stub1, 0x78, values) != Checksum(stub2, 0x78, values) {
		t.Error("checksum must treat e_lfanew's 4 bytes as zero regardless of their actual value")
	}
}
