// Package fit implements the donor qualification predicate: given an
// acceptor and donor Image and the enabled option set, decide whether the
// donor scores enough points to be accepted for splicing.
package fit

import (
	"github.com/xyproto/pegraft/internal/options"
	"github.com/xyproto/pegraft/internal/pe"
)

// Score computes the donor's score against the acceptor for the enabled
// capabilities in opts. Each enabled capability contributes at most one
// point: size-sensitive capabilities (Rich, each debug entry individually)
// score a point only if the donor's part fits the acceptor's slot;
// content-free capabilities (section-name swap, import shuffle) always
// score a point when enabled, since they require nothing from the donor.
func Score(acceptor, donor *pe.Image, opts options.Options) int {
	score := 0
	if opts.Rich {
		if donor.Rich != nil && richFits(acceptor.Rich, donor.Rich) {
			score++
		}
	}
	if opts.Stamp {
		// TimeDateStamp is always present; the capability is content-free.
		score++
	}
	if opts.Sign {
		if donor.Security != nil {
			score++
		}
	}
	if opts.VI {
		if donor.Resources != nil {
			if _, ok := donor.Resources.FindTopLevel(pe.RT_VERSION); ok {
				score++
			}
		}
	}
	if opts.Res {
		if donor.Resources != nil {
			score++
		}
	}
	if opts.Dbg {
		// The spill-to-resources fallback can service a donor whose entries
		// fit no acceptor slot, so its option keeps the donor scoring.
		if len(donor.Debug) > 0 && (dbgFits(acceptor.Debug, donor.Debug) || opts.DbgToRsrc) {
			score++
		}
	}
	if opts.Imp {
		// Content-free: the shuffler only needs the acceptor's own
		// contiguity invariants, checked separately by the caller.
		score++
	}
	if opts.Names {
		score++
	}
	return score
}

// MinRequired returns the minimum score a donor must reach: the number of
// enabled transplant capabilities, loosened by one when approx is set.
func MinRequired(opts options.Options, approx bool) int {
	n := opts.TransplantCount()
	if approx && n > 0 {
		n--
	}
	return n
}

// Qualifies reports whether donor scores high enough against acceptor.
func Qualifies(acceptor, donor *pe.Image, opts options.Options, approx bool) bool {
	return Score(acceptor, donor, opts) >= MinRequired(opts, approx)
}

// richFits reports whether donor's Rich slot fits the acceptor's: if the
// acceptor has no Rich region at all (no parsed header, no synthesis
// slot), nothing can fit. Otherwise the donor's byte run must not exceed
// the acceptor's available slot length.
func richFits(acceptorRich, donorRich *pe.RichRegion) bool {
	if acceptorRich == nil {
		return false
	}
	return donorRich.RichSlotLen() <= acceptorRich.RichSlotLen()
}

// dbgFits reports whether at least one donor debug entry fits at least one
// acceptor debug slot, mirroring the in-place transplant's best-fit pairing
// (see internal/pe's debug engine) without committing to a pairing yet.
func dbgFits(acceptorEntries, donorEntries []pe.DebugEntry) bool {
	if len(acceptorEntries) == 0 || len(donorEntries) == 0 {
		return false
	}
	for _, a := range acceptorEntries {
		for _, d := range donorEntries {
			if d.SizeOfData <= a.SizeOfData {
				return true
			}
		}
	}
	return false
}
