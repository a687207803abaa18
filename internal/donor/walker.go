// Package donor implements the recursive scan for candidate donor
// executables under a root directory.
package donor

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// DefaultExtensions is the allow-list used when the caller does not supply
// its own: the file extensions that commonly carry PE images.
var DefaultExtensions = []string{".exe", ".dll", ".sys", ".ocx"}

// WalkConfig controls one Walk call.
type WalkConfig struct {
	Root       string
	Extensions []string // lower-cased, with leading dot; nil means DefaultExtensions
	MaxDepth   int       // 0 means unlimited
}

// Walk scans cfg.Root recursively and sends every matching, readable file
// path on the returned channel, closing it when the scan finishes. Errors
// reading a particular entry (permission, broken symlink) are skipped
// rather than aborting the whole scan; the channel carries only successes.
func Walk(cfg WalkConfig) <-chan string {
	out := make(chan string)
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	rootDepth := strings.Count(filepath.Clean(cfg.Root), string(filepath.Separator))

	go func() {
		defer close(out)
		filepath.WalkDir(cfg.Root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable entry (permission denied, broken symlink target):
				// skip it and keep walking siblings.
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if cfg.MaxDepth > 0 {
					depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
					if depth > cfg.MaxDepth {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				// Symlinks are not followed and never yielded as candidates,
				// whether or not their target exists.
				return nil
			}
			if !hasAllowedExt(path, exts) {
				return nil
			}
			out <- path
			return nil
		})
	}()
	return out
}

func hasAllowedExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
