// Package splice drives one run of the engines in internal/pe over a single
// accepted (acceptor, donor) pair, producing a finished byte image.
package splice

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/xyproto/pegraft/internal/diag"
	"github.com/xyproto/pegraft/internal/options"
	"github.com/xyproto/pegraft/internal/pe"
	"github.com/xyproto/pegraft/internal/resource"
	"github.com/xyproto/pegraft/internal/safebuf"
)

// Config carries the controller's cross-cutting dependencies: the operator
// Diagnostics sink and a deterministic RNG seed for the Import Shuffler
// (tests pin this; the CLI seeds it from the current time).
type Config struct {
	Diagnostics diag.Diagnostics
	ShuffleSeed int64
}

// Report summarizes what a Splice run actually changed, for the CLI's
// per-sample log line.
type Report struct {
	RichChanged         bool
	StampChanged        bool
	SignChanged         bool
	DebugChangedOfTotal int
	DebugTotal          int
	DebugSpilled        bool
	ResourceChanged     bool
	ImportsShuffled     int
	SectionNamesChanged int
	ChecksumUpdated     bool
}

// String renders the report as the compact per-sample tag the CLI appends
// to its log line, e.g. "rich_stamp_dbg_2of2_checksum".
func (r Report) String() string {
	var parts []string
	if r.RichChanged {
		parts = append(parts, "rich")
	}
	if r.StampChanged {
		parts = append(parts, "stamp")
	}
	if r.ImportsShuffled > 0 {
		parts = append(parts, fmt.Sprintf("imp_%d", r.ImportsShuffled))
	}
	if r.DebugSpilled {
		parts = append(parts, "dbg_rsrc")
	} else if r.DebugTotal > 0 {
		parts = append(parts, fmt.Sprintf("dbg_%dof%d", r.DebugChangedOfTotal, r.DebugTotal))
	}
	if r.ResourceChanged {
		parts = append(parts, "res")
	}
	if r.SignChanged {
		parts = append(parts, "sign")
	}
	if r.SectionNamesChanged > 0 {
		parts = append(parts, fmt.Sprintf("names_%d", r.SectionNamesChanged))
	}
	if r.ChecksumUpdated {
		parts = append(parts, "checksum")
	}
	if len(parts) == 0 {
		return "unchanged"
	}
	return strings.Join(parts, "_")
}

// Splice runs the fixed pipeline (Rich, TimeStamp, Imports, Debug,
// Resources[+debug-to-rsrc spill], Sign, Section Names, Checksum) against a
// copy of acceptor's bytes, applying only the capabilities opts enables,
// and returns the resulting image.
func Splice(acceptor, donor *pe.Image, opts options.Options, cfg Config) ([]byte, Report, error) {
	var report Report
	working := safebuf.New("splice")
	working.Write(append([]byte(nil), acceptor.Raw()...))
	buf := working.Bytes()
	cursor := acceptor.EndOfRawData()

	if opts.Rich && donor.Rich != nil && acceptor.Rich != nil {
		region := pe.SpliceRich(buf, acceptor.Rich, donor.Rich)
		if opts.RichFix {
			pe.ApplyRichFix(buf, acceptor.ELfanew, region, iatFuncCount(acceptor))
		}
		report.RichChanged = true
	} else if opts.RichFix && acceptor.Rich != nil && !acceptor.Rich.Synthesized {
		// Fixups requested without a transplant: correct the acceptor's own
		// Rich in place. Work on a copy so the shared model's decoded values
		// stay pristine for the next donor.
		region := &pe.RichRegion{
			Start:  acceptor.Rich.Start,
			End:    acceptor.Rich.End,
			Key:    acceptor.Rich.Key,
			Values: append([]uint32(nil), acceptor.Rich.Values...),
		}
		pe.ApplyRichFix(buf, acceptor.ELfanew, region, iatFuncCount(acceptor))
	}

	if opts.Stamp {
		pe.ApplyTimeDateStamp(buf, acceptor, donor.TimeDateStamp)
		report.StampChanged = true
	}

	if opts.Imp && acceptor.Imports != nil && acceptor.Imports.FTContiguous && acceptor.Imports.OFTContiguous {
		rng := rand.New(rand.NewSource(cfg.ShuffleSeed))
		n, err := pe.ShuffleImportDirectory(buf, acceptor, rng)
		if err != nil {
			return nil, report, err
		}
		report.ImportsShuffled = n
	}

	// The spill fallback fires when the acceptor has no debug slot at all,
	// or when none of the donor's entries fit any of them; either way the
	// packed block rides into .rsrc on the resource engine's re-emit below.
	needSpill := false
	if opts.Dbg && len(donor.Debug) > 0 {
		report.DebugTotal = len(acceptor.Debug)
		if len(acceptor.Debug) > 0 {
			report.DebugChangedOfTotal = pe.TransplantDebugInPlace(buf, acceptor.Debug, donor.Debug)
		}
		if report.DebugChangedOfTotal == 0 && opts.DbgToRsrc {
			needSpill = true
		}
	}

	wantMerge := (opts.VI || opts.Res) && donor.Resources != nil
	if (wantMerge || needSpill) && acceptor.Resources != nil && acceptor.RsrcSection >= 0 {
		merged := acceptor.Resources.Clone()
		if opts.VI && donor.Resources != nil {
			if donorVI, ok := donor.Resources.FindTopLevel(pe.RT_VERSION); ok {
				viEntry := donor.Resources.Dir(donor.Resources.Root).Entries[donorVI]
				merged.ReplaceTopLevel(pe.RT_VERSION, donor.Resources, viEntry.Child)
			}
		}
		if opts.Res && donor.Resources != nil {
			merged.AppendTopLevel(donor.Resources, donor.Resources.Root)
		}
		var spilledVA uint32
		if needSpill {
			spilledVA = appendSpilledDebug(merged, acceptor, donor)
			report.DebugSpilled = true
		}
		newBuf, cascade, err := pe.ApplyResourceEngine(buf, acceptor, merged)
		if err != nil {
			return nil, report, err
		}
		working.ReplaceWith(newBuf)
		buf = working.Bytes()
		report.ResourceChanged = wantMerge
		if report.DebugSpilled {
			pe.SetDebugDirectory(buf, acceptor, spilledVA, uint32(len(donor.Debug)*28))
		}
		// Every section at or past .rsrc shifted by the raw-size delta, so
		// the end-of-raw-data cursor moves with the whole tail, not just
		// with .rsrc's own end.
		if end := acceptor.EndOfRawData() + cascade.RawDelta; end > cursor {
			cursor = end
		}
	}

	if opts.Sign && donor.Security != nil {
		var newBuf []byte
		newBuf, cursor = pe.ApplySign(buf, acceptor, cursor, donor.Security.Data)
		working.ReplaceWith(newBuf)
		buf = working.Bytes()
		report.SignChanged = true
	}

	if opts.Names {
		donorNames := make([][8]byte, len(donor.Sections))
		for i, s := range donor.Sections {
			donorNames[i] = s.Name
		}
		report.SectionNamesChanged = pe.ApplySectionNames(buf, acceptor, donorNames)
	}

	if opts.UpdateChecksum {
		pe.UpdateChecksum(buf, acceptor)
		report.ChecksumUpdated = true
	}

	working.Commit()
	return working.Bytes(), report, nil
}

// iatFuncCount is the true imported-function count across every DLL, the
// value the Rich import-marker pair records.
func iatFuncCount(img *pe.Image) uint32 {
	if img.Imports == nil {
		return 0
	}
	var n uint32
	for _, dll := range img.Imports.DLLs {
		n += uint32(len(dll.Functions))
	}
	return n
}

// spilledDebugResourceID is a private top-level resource type id for the
// packed debug block this fallback appends. It sits outside the standard
// RT_* range (1-24) and the common private-use range used by resource
// compilers, so it won't collide with any donor or acceptor entry.
const spilledDebugResourceID = 241

// appendSpilledDebug packs donor's debug entries into a single block and
// appends it to merged as a synthetic top-level data entry, so the resource
// engine's own flatten/cascade carries it into .rsrc (the spill-to-
// resources fallback, used when the acceptor has no debug slot a donor
// entry can occupy). Every blob inside the packed block points at its own
// final VA, which isn't known until the tree is laid out; this runs a
// throwaway Flatten first to learn the block's assigned VA, re-packs with
// that VA baked in, and relies on Flatten being a pure function of tree
// shape (re-running it from the Splice Controller produces the identical
// layout since the block's byte length does not change between passes).
//
// The Debug Data Directory entry itself (index 6, e_lfanew+168/+184) is
// rewritten by the Splice Controller once ApplyResourceEngine has placed the
// final .rsrc bytes, to point at blockVA with size len(donor.Debug)*28,
// per the debug-spill protocol's "rewrite the Debug Directory slot to point at the resulting VA
// with size n × 28". appendSpilledDebug only learns and returns that VA; it
// does not write the directory entry itself, since the directory lives
// outside .rsrc and the resource cascade hasn't run yet at this point.
func appendSpilledDebug(merged *resource.Tree, acceptor, donor *pe.Image) uint32 {
	rsrc := acceptor.Sections[acceptor.RsrcSection]
	idx := merged.AddData(resource.DataNode{Data: pe.PackDebugToResource(donor.Debug, 0, 0)})
	root := merged.Dir(merged.Root)
	root.Entries = append(root.Entries, resource.Entry{ID: spilledDebugResourceID, Kind: resource.KindData, Child: idx})

	if _, err := merged.Flatten(rsrc.VirtualAddress, int(acceptor.FileAlign)); err != nil {
		return 0
	}
	blockVA := merged.Data(idx).VA
	blockRawOffset := rsrc.PointerToRawData + (blockVA - rsrc.VirtualAddress)
	merged.Data(idx).Data = pe.PackDebugToResource(donor.Debug, blockVA, blockRawOffset)
	return blockVA
}
