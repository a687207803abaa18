package resource

import "testing"

// RT_VERSION mirrors pe.RT_VERSION (resource type id 16); duplicated here
// since this package cannot import pe without a cycle.
const RT_VERSION = 16

// buildSimpleRsrc constructs a minimal .rsrc section with one id-keyed
// directory entry (id=16, RT_VERSION) pointing at a single data entry.
func buildSimpleRsrc(t *testing.T, payload []byte) []byte {
	t.Helper()
	tree := New()
	dataIdx := tree.AddData(DataNode{Data: payload})
	root := tree.Dir(tree.Root)
	root.Entries = append(root.Entries, Entry{ID: RT_VERSION, Kind: KindData, Child: dataIdx})

	buf, err := tree.Flatten(0x1000, 2)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	return buf
}

func TestParseFlattenRoundTrip(t *testing.T) {
	payload := []byte("version-blob")
	raw := buildSimpleRsrc(t, payload)

	tree, err := Parse(raw, 0x1000)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	idx, ok := tree.FindTopLevel(RT_VERSION)
	if !ok {
		t.Fatalf("expected RT_VERSION entry")
	}
	entry := tree.Dir(tree.Root).Entries[idx]
	if entry.Kind != KindData {
		t.Fatalf("expected data entry")
	}
	data := tree.Data(entry.Child)
	if string(data.Data) != string(payload) {
		t.Errorf("payload mismatch: got %q want %q", data.Data, payload)
	}
}

func TestFlattenDataVAIsSelfConsistent(t *testing.T) {
	payload := []byte("abcdefgh")
	raw := buildSimpleRsrc(t, payload)
	tree, err := Parse(raw, 0x1000)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// Re-flatten at a different base and confirm every data VA equals
	// rsrcVA + its byte offset within the buffer.
	reflattened, err := tree.Flatten(0x3000, 4)
	if err != nil {
		t.Fatalf("reflatten: %v", err)
	}
	for _, dn := range tree.Datas {
		off := int(dn.VA) - 0x3000
		if off < 0 || off+len(dn.Data) > len(reflattened) {
			t.Fatalf("data VA 0x%x out of bounds of reflattened buffer len=%d", dn.VA, len(reflattened))
		}
		if string(reflattened[off:off+len(dn.Data)]) != string(dn.Data) {
			t.Errorf("payload at stamped VA does not match source data")
		}
	}
}

func TestReplaceTopLevelGraftsIndependentArena(t *testing.T) {
	acceptor := New()
	acceptorData := acceptor.AddData(DataNode{Data: []byte("old-version")})
	acceptor.Dir(acceptor.Root).Entries = append(acceptor.Dir(acceptor.Root).Entries,
		Entry{ID: RT_VERSION, Kind: KindData, Child: acceptorData})

	// Donor shaped like a real PE: RT_VERSION -> id directory -> data.
	donor := New()
	donorData := donor.AddData(DataNode{Data: []byte("new-version")})
	donorSub := donor.AddDir(DirNode{Entries: []Entry{{ID: 1, Kind: KindData, Child: donorData}}})
	donor.Dir(donor.Root).Entries = append(donor.Dir(donor.Root).Entries,
		Entry{ID: RT_VERSION, Kind: KindDirectory, Child: donorSub})

	merged := acceptor.Clone()
	merged.ReplaceTopLevel(RT_VERSION, donor, donorSub)

	idx, ok := merged.FindTopLevel(RT_VERSION)
	if !ok {
		t.Fatalf("expected RT_VERSION in merged tree")
	}
	entry := merged.Dir(merged.Root).Entries[idx]
	if entry.Kind != KindDirectory {
		t.Fatalf("expected RT_VERSION to point at a grafted subdirectory")
	}
	sub := merged.Dir(entry.Child)
	if len(sub.Entries) != 1 || sub.Entries[0].Kind != KindData {
		t.Fatalf("grafted subtree lost its data entry")
	}
	if string(merged.Data(sub.Entries[0].Child).Data) != "new-version" {
		t.Errorf("expected merged tree to carry donor's version data")
	}

	// Original acceptor must be untouched (merge must not alias arenas).
	origIdx, _ := acceptor.FindTopLevel(RT_VERSION)
	origChild := acceptor.Dir(acceptor.Root).Entries[origIdx].Child
	if string(acceptor.Data(origChild).Data) != "old-version" {
		t.Errorf("acceptor tree was mutated by merge")
	}
}

func TestParseDetectsCycle(t *testing.T) {
	// Hand-craft a directory whose single subdirectory entry points back
	// at offset 0 (itself), which Parse must reject as a cycle.
	buf := make([]byte, dirHeaderSize+dirEntrySize)
	// NumberOfIdEntries = 1
	buf[14] = 1
	// entry: id=1, offset=0 with high bit set (subdirectory at offset 0)
	buf[16] = 1
	buf[20] = 0x00
	buf[21] = 0x00
	buf[22] = 0x00
	buf[23] = 0x80

	_, err := Parse(buf, 0x1000)
	if err == nil {
		t.Fatal("expected cycle detection error")
	}
}
