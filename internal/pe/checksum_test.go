package pe

import "testing"

func TestChecksumFieldIdentity(t *testing.T) {
	// A synthetic "file" with a checksum field at offset 8, recomputing the
	// checksum with that field zeroed must yield the same value twice (the
	// fold is deterministic) and stamping it in must make the file
	// internally consistent: recompute again and get the same answer.
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i * 7)
	}
	const checksumOff = 8
	data[checksumOff] = 0
	data[checksumOff+1] = 0
	data[checksumOff+2] = 0
	data[checksumOff+3] = 0

	cs := checksumPureGo(data, checksumOff)
	putLE32(data[checksumOff:], cs)

	cs2 := checksumPureGo(data, checksumOff)
	if cs2 != cs {
		t.Errorf("checksum not stable after stamping: got %d, want %d", cs2, cs)
	}
}

func TestChecksumAddsFileLength(t *testing.T) {
	short := make([]byte, 8)
	long := make([]byte, 16)
	copy(long, short)
	csShort := checksumPureGo(short, -1)
	csLong := checksumPureGo(long, -1)
	if csLong == csShort {
		t.Error("expected checksum to change when file length changes even with identical leading bytes")
	}
}

func TestChecksumPaddingDoesNotPanicOnOddLength(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	if checksumPureGo(data, -1) == 0 && len(data) != 0 {
		// Just exercising the odd-length pad path; any stable result is fine.
	}
}

func TestAcceleratorFallback(t *testing.T) {
	if accelerator != nil {
		t.Skip("accelerator plugin loaded in this environment; fallback path not exercised")
	}
	data := make([]byte, 32)
	if Checksum(data, -1) != checksumPureGo(data, -1) {
		t.Error("Checksum should equal the pure-Go implementation when no accelerator is loaded")
	}
}
