// Package options defines the flag record shared by the Fit Scorer, every
// splice engine, and the CLI, so a cobra flag set maps onto it directly.
package options

// Options is the enumerated flag record the core exposes to the driver: a
// transplant flag and, where it applies, a paired remove flag per region,
// plus the cross-cutting toggles that modulate engine behavior.
type Options struct {
	Rich  bool
	Stamp bool
	Sign  bool
	VI    bool // replace RT_VERSION subtree
	Res   bool // add_resources: append donor top-level resource entries
	Dbg   bool
	Imp   bool // import shuffle
	Names bool // section-name swap

	RemoveRich    bool
	RemoveStamp   bool
	RemoveSign    bool
	RemoveOverlay bool
	RemoveVI      bool
	RemoveDbg     bool

	RichFix        bool
	DbgToRsrc      bool
	UpdateChecksum bool
}

// TransplantCount reports how many transplant-style capabilities
// (Rich, Stamp, Sign, VI, Res, Dbg, Imp, Names) are enabled. The Fit
// Scorer's minimum required score is derived from this count.
func (o Options) TransplantCount() int {
	n := 0
	for _, b := range []bool{o.Rich, o.Stamp, o.Sign, o.VI, o.Res, o.Dbg, o.Imp, o.Names} {
		if b {
			n++
		}
	}
	return n
}

// AnyRemove reports whether any remove-mode flag is set.
func (o Options) AnyRemove() bool {
	return o.RemoveRich || o.RemoveStamp || o.RemoveSign || o.RemoveOverlay || o.RemoveVI || o.RemoveDbg
}

// NothingEnabled reports whether no transplant and no remove flag remains,
// the condition that makes a run NothingToDo.
func (o Options) NothingEnabled() bool {
	return o.TransplantCount() == 0 && !o.AnyRemove()
}
