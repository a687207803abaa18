// Package cli wires the core (internal/pe, internal/fit, internal/splice,
// internal/donor) into a cobra command tree exposing the full
// transplant/remove flag surface.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/xyproto/pegraft/internal/diag"
	"github.com/xyproto/pegraft/internal/donor"
	"github.com/xyproto/pegraft/internal/fit"
	"github.com/xyproto/pegraft/internal/options"
	"github.com/xyproto/pegraft/internal/pe"
	"github.com/xyproto/pegraft/internal/safebuf"
	"github.com/xyproto/pegraft/internal/splice"
)

// flags holds every cobra-bound value before it's translated into an
// options.Options and the driver's own run parameters.
type flags struct {
	input    string
	donorPath string
	search   string
	exts     []string
	maxDepth int
	out      string
	approx   bool

	rich, stamp, sign, vi, res, dbg, imp, names bool
	removeRich, removeStamp, removeSign, removeOverlay, removeVI, removeDbg bool

	richFix        bool
	dbgToRsrc      bool
	updateChecksum bool

	assumeYes bool
	logFile   string
	verbose   bool
}

// NewRootCommand builds the cobra command tree. main.go's only job is to
// call this and Execute it.
func NewRootCommand() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "pegraft",
		Short: "Transplant PE/COFF metadata from donor executables onto an acceptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}

	flagset := cmd.Flags()
	flagset.StringVarP(&f.input, "input", "i", "", "acceptor PE path (required)")
	flagset.StringVarP(&f.donorPath, "donor", "d", "", "single donor PE path")
	flagset.StringVarP(&f.search, "search", "s", "", "donor-search root directory")
	flagset.StringSliceVar(&f.exts, "ext", nil, "donor file extension filter (repeatable); default .exe,.dll,.sys,.ocx")
	flagset.IntVar(&f.maxDepth, "max-depth", 0, "donor search depth cap (0 = unlimited)")
	flagset.StringVarP(&f.out, "out", "o", "", "output path or directory")
	flagset.BoolVar(&f.approx, "approx", false, "loosen the fit scorer's required score by one")

	flagset.BoolVar(&f.rich, "rich", false, "transplant the Rich Header")
	flagset.BoolVar(&f.stamp, "stamp", false, "transplant the TimeDateStamp")
	flagset.BoolVar(&f.sign, "sign", false, "transplant the Authenticode signature")
	flagset.BoolVar(&f.vi, "vi", false, "replace the RT_VERSION resource subtree")
	flagset.BoolVar(&f.res, "res", false, "append donor top-level resource entries")
	flagset.BoolVar(&f.dbg, "dbg", false, "transplant the Debug Directory")
	flagset.BoolVar(&f.imp, "imp", false, "shuffle imported DLLs and functions")
	flagset.BoolVar(&f.names, "names", false, "swap section-table names")

	flagset.BoolVar(&f.removeRich, "remove-rich", false, "zero the Rich Header")
	flagset.BoolVar(&f.removeStamp, "remove-stamp", false, "zero the TimeDateStamp")
	flagset.BoolVar(&f.removeSign, "remove-sign", false, "strip the Authenticode signature")
	flagset.BoolVar(&f.removeOverlay, "remove-overlay", false, "strip trailing overlay bytes")
	flagset.BoolVar(&f.removeVI, "remove-vi", false, "remove the RT_VERSION resource subtree")
	flagset.BoolVar(&f.removeDbg, "remove-dbg", false, "zero the Debug Directory")

	flagset.BoolVar(&f.richFix, "rich-fix", true, "apply linker/IAT/checksum fixups after a Rich splice")
	flagset.BoolVar(&f.dbgToRsrc, "dbg-to-rsrc", false, "allow debug spill-to-resources fallback")
	flagset.BoolVar(&f.updateChecksum, "update-checksum", true, "recompute the PE checksum")

	flagset.BoolVar(&f.assumeYes, "yes", env.Bool("PEGRAFT_ASSUME_YES"), "assume yes to every confirmation prompt")
	flagset.StringVar(&f.logFile, "log-file", "", "append a line per produced sample to this path")
	flagset.BoolVarP(&f.verbose, "verbose", "v", false, "verbose diagnostic logging")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagsMutuallyExclusive("donor", "search")
	return cmd
}

func (f *flags) toOptions() options.Options {
	return options.Options{
		Rich: f.rich, Stamp: f.stamp, Sign: f.sign, VI: f.vi, Res: f.res, Dbg: f.dbg, Imp: f.imp, Names: f.names,
		RemoveRich: f.removeRich, RemoveStamp: f.removeStamp, RemoveSign: f.removeSign,
		RemoveOverlay: f.removeOverlay, RemoveVI: f.removeVI, RemoveDbg: f.removeDbg,
		RichFix: f.richFix, DbgToRsrc: f.dbgToRsrc, UpdateChecksum: f.updateChecksum,
	}
}

func run(f *flags) error {
	safebuf.VerboseMode = f.verbose
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	opts := f.toOptions()
	if opts.NothingEnabled() {
		return diag.ErrNothingToDo
	}

	acceptorData, releaseAcceptor, err := readFile(f.input)
	if err != nil {
		return fmt.Errorf("reading acceptor: %w", err)
	}
	defer releaseAcceptor()

	diagnostics := NewConsoleDiagnostics(f.assumeYes)
	acceptor, err := pe.Open(acceptorData, pe.ModeStrict, diagnostics)
	if err != nil {
		return fmt.Errorf("parsing acceptor: %w", err)
	}

	// A strict-mode anomaly confirmed by the operator disables its region
	// for the rest of this run; downgrade opts accordingly and bail out
	// clean (NothingToDo) if nothing enabled survives.
	opts = downgradeDisabledRegions(opts, acceptor.Warnings)
	if opts.NothingEnabled() {
		return diag.ErrNothingToDo
	}

	var logLines []string
	defer func() {
		if f.logFile == "" || len(logLines) == 0 {
			return
		}
		lf, err := os.OpenFile(f.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return
		}
		defer lf.Close()
		for _, line := range logLines {
			fmt.Fprintln(lf, line)
		}
	}()

	if opts.AnyRemove() && !opts.NothingEnabled() && f.donorPath == "" && f.search == "" {
		out := splice.Remove(acceptor, opts)
		outPath := f.out
		if outPath == "" {
			outPath = f.input + ".removed"
		}
		if err := writeSample(outPath, out); err != nil {
			return err
		}
		slog.Info("remove mode complete", "out", outPath)
		return nil
	}

	donorPaths := []string{}
	if f.donorPath != "" {
		donorPaths = append(donorPaths, f.donorPath)
	} else if f.search != "" {
		ch := donor.Walk(donor.WalkConfig{Root: f.search, Extensions: f.exts, MaxDepth: f.maxDepth})
		for p := range ch {
			donorPaths = append(donorPaths, p)
		}
	} else {
		return fmt.Errorf("one of --donor or --search is required for transplant mode")
	}

	for _, dp := range donorPaths {
		logLine, produced, err := processDonor(f, opts, acceptor, diagnostics, dp)
		if err != nil {
			return err
		}
		if !produced {
			continue
		}
		logLines = append(logLines, logLine)
		if f.donorPath != "" {
			break
		}
	}

	return nil
}

// processDonor reads, parses, scores, and (if the donor qualifies) splices
// one candidate, writing the sample on success. The donor's backing buffer
// (possibly a memory mapping) stays alive for the whole attempt; the donor
// model must not outlive it. A non-nil error is fatal to the scan; every
// per-donor failure is logged and reported as produced=false instead.
func processDonor(f *flags, opts options.Options, acceptor *pe.Image, diagnostics *ConsoleDiagnostics, dp string) (string, bool, error) {
	data, release, err := readFile(dp)
	if err != nil {
		slog.Debug("donor unreadable", "path", dp, "err", err)
		return "", false, nil
	}
	defer release()

	donorImg, err := pe.Open(data, pe.ModeDonor, diag.AlwaysProceed{})
	if err != nil {
		slog.Debug("donor failed to parse", "path", dp, "err", err)
		return "", false, nil
	}
	score := fit.Score(acceptor, donorImg, opts)
	if score < fit.MinRequired(opts, f.approx) {
		slog.Debug("donor rejected", "path", dp, "score", score)
		return "", false, nil
	}

	out, report, err := splice.Splice(acceptor, donorImg, opts, splice.Config{
		Diagnostics: diagnostics,
		ShuffleSeed: time.Now().UnixNano(),
	})
	if err != nil {
		slog.Debug("splice failed", "path", dp, "err", err)
		return "", false, nil
	}

	if opts.Sign && f.verbose {
		logSignedDataStructure(donorImg)
	}

	outPath := resolveOutPath(f.out, f.input, dp)
	if err := writeSample(outPath, out); err != nil {
		return "", false, err
	}
	slog.Info("sample produced", "donor", dp, "score", score, "regions", report.String(), "out", outPath)
	return fmt.Sprintf("%s\tscore=%d\t%s", dp, score, report), true, nil
}

// downgradeDisabledRegions clears every opts flag whose region the acceptor
// parse disabled after an operator confirmation (diag.Collector.IsDisabled),
// so a capability the Reader couldn't make sense of for this acceptor is
// silently dropped from the run rather than attempted against a zero-value
// model. If that leaves nothing enabled, the caller reports
// NothingToDo and exits clean instead of erroring.
func downgradeDisabledRegions(opts options.Options, warnings *diag.Collector) options.Options {
	if warnings == nil {
		return opts
	}
	if warnings.IsDisabled(diag.RegionRich) {
		opts.Rich, opts.RemoveRich = false, false
	}
	if warnings.IsDisabled(diag.RegionDebug) {
		opts.Dbg, opts.RemoveDbg = false, false
	}
	if warnings.IsDisabled(diag.RegionResource) {
		opts.VI, opts.Res, opts.RemoveVI = false, false, false
	}
	if warnings.IsDisabled(diag.RegionImport) {
		opts.Imp = false
	}
	if warnings.IsDisabled(diag.RegionSign) {
		opts.Sign, opts.RemoveSign = false, false
	}
	if warnings.IsDisabled(diag.RegionSection) {
		opts.Names = false
	}
	return opts
}

// writeSample creates or truncates path, takes an advisory exclusive lock
// so two concurrent runs targeting the same output file don't interleave
// writes, then writes out in full.
func writeSample(path string, out []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := lockOutputFile(f); err == nil {
		defer unlockOutputFile(f)
	}
	_, err = f.Write(out)
	return err
}

// resolveOutPath: a bare file path is used as-is for single-donor mode; a
// directory gets one file per donor, named after the acceptor with the
// donor's base name appended.
func resolveOutPath(out, input, donorPath string) string {
	if out == "" {
		return input + ".out"
	}
	info, err := os.Stat(out)
	if err == nil && info.IsDir() {
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		donorBase := strings.TrimSuffix(filepath.Base(donorPath), filepath.Ext(donorPath))
		return filepath.Join(out, base+"_"+donorBase+filepath.Ext(input))
	}
	return out
}
