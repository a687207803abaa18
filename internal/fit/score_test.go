package fit

import (
	"testing"

	"github.com/xyproto/pegraft/internal/options"
	"github.com/xyproto/pegraft/internal/pe"
)

func TestRichFits(t *testing.T) {
	acceptor := &pe.RichRegion{Start: 0, End: 240}
	small := &pe.RichRegion{Start: 0, End: 160}
	big := &pe.RichRegion{Start: 0, End: 300}
	if !richFits(acceptor, small) {
		t.Error("a shorter donor Rich should fit")
	}
	if richFits(acceptor, big) {
		t.Error("a longer donor Rich should not fit")
	}
	if richFits(nil, small) {
		t.Error("an acceptor with no Rich slot at all cannot fit anything")
	}
}

func TestDbgFits(t *testing.T) {
	acceptor := []pe.DebugEntry{{SizeOfData: 40}, {SizeOfData: 120}}
	fits := []pe.DebugEntry{{SizeOfData: 200}, {SizeOfData: 8}}
	noFit := []pe.DebugEntry{{SizeOfData: 500}}
	if !dbgFits(acceptor, fits) {
		t.Error("expected at least one donor entry to fit at least one acceptor slot")
	}
	if dbgFits(acceptor, noFit) {
		t.Error("no donor entry should fit")
	}
	if dbgFits(nil, fits) {
		t.Error("no acceptor entries means nothing can fit")
	}
}

func TestScoreDbgToRsrcKeepsUnfittingDonor(t *testing.T) {
	acceptor := &pe.Image{}
	donor := &pe.Image{Debug: []pe.DebugEntry{{SizeOfData: 500}}}
	opts := options.Options{Dbg: true}
	if got := Score(acceptor, donor, opts); got != 0 {
		t.Errorf("unfitting donor without spill should score 0, got %d", got)
	}
	opts.DbgToRsrc = true
	if got := Score(acceptor, donor, opts); got != 1 {
		t.Errorf("spill-eligible donor should score 1, got %d", got)
	}
}

func TestMinRequiredWithApprox(t *testing.T) {
	opts := options.Options{Rich: true, Names: true, Dbg: true}
	if got := MinRequired(opts, false); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
	if got := MinRequired(opts, true); got != 2 {
		t.Errorf("approx should loosen by one: got %d, want 2", got)
	}
	if got := MinRequired(options.Options{}, true); got != 0 {
		t.Errorf("approx with nothing enabled should never go negative: got %d", got)
	}
}
