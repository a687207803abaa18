//go:build windows

package cli

import (
	"os"

	"golang.org/x/sys/windows"
)

// lockOutputFile mirrors the unix lockOutputFile using LockFileEx, so a
// second run against the same output path blocks before writing.
func lockOutputFile(f *os.File) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(f.Fd()), windows.LOCKFILE_EXCLUSIVE_LOCK, 0, 1, 0, ol)
}

func unlockOutputFile(f *os.File) {
	ol := new(windows.Overlapped)
	windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
}
