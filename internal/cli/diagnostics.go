package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/xyproto/pegraft/internal/diag"
)

// ConsoleDiagnostics is the CLI's default Diagnostics implementation:
// colorized warnings on stderr, a y/n prompt read from stdin for
// ConfirmOrAbort, short-circuited to "always continue" when AssumeYes is
// set (the --yes flag or the PEGRAFT_ASSUME_YES environment override).
type ConsoleDiagnostics struct {
	AssumeYes bool
	In        io.Reader
	Out       io.Writer
}

// NewConsoleDiagnostics returns a ConsoleDiagnostics reading from stdin and
// writing to stderr.
func NewConsoleDiagnostics(assumeYes bool) *ConsoleDiagnostics {
	return &ConsoleDiagnostics{AssumeYes: assumeYes, In: os.Stdin, Out: os.Stderr}
}

func (c *ConsoleDiagnostics) Warn(kind diag.Kind, region diag.Region, detail string) {
	color.New(color.FgYellow).Fprintf(c.Out, "warning: %s [%s]: %s\n", kind, region, detail)
}

func (c *ConsoleDiagnostics) ConfirmOrAbort(kind diag.Kind, region diag.Region, detail string) bool {
	color.New(color.FgRed).Fprintf(c.Out, "%s [%s]: %s\n", kind, region, detail)
	if c.AssumeYes {
		fmt.Fprintln(c.Out, "--yes: continuing with the region disabled")
		return true
	}
	fmt.Fprint(c.Out, "continue with this region disabled? [y/N] ")
	line, _ := bufio.NewReader(c.In).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
