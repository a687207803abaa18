package cli

import (
	"testing"

	"github.com/xyproto/pegraft/internal/diag"
	"github.com/xyproto/pegraft/internal/options"
)

func TestDowngradeDisabledRegionsClearsMatchingFlags(t *testing.T) {
	opts := options.Options{Rich: true, Stamp: true, Dbg: true}
	warnings := diag.NewCollector()
	warnings.Record(diag.MalformedRegion(diag.RegionRich, 0, "bad rich"), true)

	got := downgradeDisabledRegions(opts, warnings)
	if got.Rich {
		t.Error("expected Rich to be downgraded off")
	}
	if !got.Stamp || !got.Dbg {
		t.Error("downgrade should not touch unrelated flags")
	}
}

func TestDowngradeDisabledRegionsNilWarningsIsNoop(t *testing.T) {
	opts := options.Options{Rich: true}
	got := downgradeDisabledRegions(opts, nil)
	if !got.Rich {
		t.Error("nil warnings collector should leave opts untouched")
	}
}

func TestDowngradeDisabledRegionsCanEmptyOutOptions(t *testing.T) {
	opts := options.Options{Sign: true}
	warnings := diag.NewCollector()
	warnings.Record(diag.MalformedRegion(diag.RegionSign, 0, "bad security directory"), true)

	got := downgradeDisabledRegions(opts, warnings)
	if !got.NothingEnabled() {
		t.Error("expected NothingEnabled after downgrading the only enabled capability")
	}
}

func TestResolveOutPathSingleFile(t *testing.T) {
	got := resolveOutPath("out.exe", "acceptor.exe", "donor.exe")
	if got != "out.exe" {
		t.Errorf("resolveOutPath = %q, want out.exe", got)
	}
}

func TestResolveOutPathDefaultsToInputSuffix(t *testing.T) {
	got := resolveOutPath("", "acceptor.exe", "donor.exe")
	if got != "acceptor.exe.out" {
		t.Errorf("resolveOutPath = %q, want acceptor.exe.out", got)
	}
}

func TestResolveOutPathDirectory(t *testing.T) {
	dir := t.TempDir()
	got := resolveOutPath(dir, "acceptor.exe", "/x/y/donor.dll")
	want := dir + "/acceptor_donor.exe"
	if got != want {
		t.Errorf("resolveOutPath = %q, want %q", got, want)
	}
}
