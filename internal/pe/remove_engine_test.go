package pe

import "testing"

func TestRemoveRichZeroesSlot(t *testing.T) {
	buf := make([]byte, 64)
	for i := range buf {
		buf[i] = 0xFF
	}
	region := &RichRegion{Start: 8, End: 32}
	RemoveRich(buf, region)
	for i := int64(8); i < 32; i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
	if buf[7] != 0xFF || buf[32] != 0xFF {
		t.Error("RemoveRich touched bytes outside its slot")
	}
}

func TestRemoveRichNilIsNoop(t *testing.T) {
	buf := []byte{1, 2, 3}
	RemoveRich(buf, nil)
	if buf[0] != 1 {
		t.Error("nil region must be a no-op")
	}
}

func TestRemoveDebugZeroesStructAndData(t *testing.T) {
	buf := make([]byte, 128)
	for i := range buf {
		buf[i] = 0xFF
	}
	entries := []DebugEntry{{FileOffset: 0, SizeOfData: 8, PointerToRawData: 40}}
	RemoveDebug(buf, entries)
	for i := int64(0); i < debugEntrySize; i++ {
		if buf[i] != 0 {
			t.Fatalf("struct byte %d not zeroed", i)
		}
	}
	for i := 40; i < 48; i++ {
		if buf[i] != 0 {
			t.Fatalf("data byte %d not zeroed", i)
		}
	}
}
