// Command pegraft transplants PE/COFF metadata (Rich Header, TimeDateStamp,
// Authenticode signature, Debug Directory, Resource Directory, and Section
// Table names) from donor executables onto an acceptor, or strips selected
// regions outright in remove mode.
package main

import (
	"fmt"
	"os"

	"github.com/xyproto/pegraft/internal/cli"
	"github.com/xyproto/pegraft/internal/diag"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if diag.IsKind(err, diag.KindNothingToDo) {
			return
		}
		os.Exit(1)
	}
}
