//go:build windows

package cli

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/sys/windows"
)

// init enables ENABLE_VIRTUAL_TERMINAL_PROCESSING on stderr so the ANSI
// color codes fatih/color emits render on legacy Windows consoles (cmd.exe
// predating Windows 10 1511) instead of leaking escape sequences into the
// warning text. Left alone on every other platform, and left alone here too
// if the handle isn't a real console (redirected to a file or pipe).
func init() {
	h := windows.Handle(os.Stderr.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return
	}
	if err := windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err != nil {
		color.NoColor = true
	}
}
