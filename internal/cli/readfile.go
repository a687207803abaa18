package cli

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// readFile maps path read-only when the platform supports it, falling back
// to a full in-memory read (filesystems and platforms where mmap.Map fails,
// e.g. some network mounts). mmap.MMap is itself a []byte; the returned
// release func unmaps it, after which the slice must not be read, so callers
// keep it alive for as long as any Image parsed from it is in use.
func readFile(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, nil, rerr
		}
		return data, func() {}, nil
	}
	return []byte(m), func() { m.Unmap() }, nil
}
