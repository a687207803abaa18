package donor

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func collect(ch <-chan string) []string {
	var out []string
	for p := range ch {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func TestWalkFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.exe")
	write("b.dll")
	write("notes.txt")

	got := collect(Walk(WalkConfig{Root: dir}))
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %v", got)
	}
}

func TestWalkCustomExtensions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.bin"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	got := collect(Walk(WalkConfig{Root: dir, Extensions: []string{".bin"}}))
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %v", got)
	}
}

func TestWalkRecursesIntoSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "deep.sys"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	got := collect(Walk(WalkConfig{Root: dir}))
	if len(got) != 1 {
		t.Fatalf("expected to find the nested file, got %v", got)
	}
}

func TestWalkMaxDepth(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "deep.exe"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	got := collect(Walk(WalkConfig{Root: dir, MaxDepth: 1}))
	if len(got) != 0 {
		t.Errorf("expected depth cap to exclude the deeply nested file, got %v", got)
	}
}
