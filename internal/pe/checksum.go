package pe

import (
	"os"
	"plugin"
)

// ChecksumFunc computes the PE checksum of a full file image, matching the
// algorithm linkers and loaders use: sum every 32-bit little-endian word
// (with CheckSum itself treated as zero), folding carries back in, then add
// the file length.
type ChecksumFunc func(data []byte, checksumFieldOffset int64) uint32

// accelerator, if non-nil, was loaded from PEGRAFT_CHECKSUM_PLUGIN and is
// tried before the pure-Go fallback.
var accelerator ChecksumFunc

func init() {
	path := os.Getenv("PEGRAFT_CHECKSUM_PLUGIN")
	if path == "" {
		return
	}
	p, err := plugin.Open(path)
	if err != nil {
		return
	}
	sym, err := p.Lookup("Checksum")
	if err != nil {
		return
	}
	if fn, ok := sym.(func([]byte, int64) uint32); ok {
		accelerator = fn
	}
}

// Checksum computes the PE checksum for data, treating the 4 bytes at
// checksumFieldOffset as zero while summing, and adding len(data) at the
// end. Uses the accelerator plugin loaded from PEGRAFT_CHECKSUM_PLUGIN at
// package init if there is one, otherwise the pure-Go implementation below.
func Checksum(data []byte, checksumFieldOffset int64) uint32 {
	if accelerator != nil {
		return accelerator(data, checksumFieldOffset)
	}
	return checksumPureGo(data, checksumFieldOffset)
}

// checksumPureGo sums the file as 32-bit little-endian dwords, skipping
// the dword holding the checksum field itself, zero-padding the final
// partial dword if len(data) isn't a multiple of 4, folding any carry past
// bit 31 back in as it accumulates, then folding the 32-bit sum down to 16
// bits twice before adding the (unpadded) file length.
func checksumPureGo(data []byte, checksumFieldOffset int64) uint32 {
	n := len(data)
	paddedLen := n
	if r := n % 4; r != 0 {
		paddedLen += 4 - r
	}
	checksumDword := checksumFieldOffset / 4

	var sum uint64
	for i := 0; i < paddedLen/4; i++ {
		if int64(i) == checksumDword {
			continue
		}
		var dword uint32
		start := i * 4
		for b := 0; b < 4; b++ {
			if start+b < n {
				dword |= uint32(data[start+b]) << (8 * b)
			}
		}
		sum += uint64(dword)
		if sum >= 1<<32 {
			sum = (sum & 0xffffffff) + (sum >> 32)
		}
	}
	sum = (sum & 0xffff) + (sum >> 16)
	sum = sum + (sum >> 16)
	sum &= 0xffff
	return uint32(sum) + uint32(n)
}

// UpdateChecksum recomputes and stamps the CheckSum field of an in-memory
// PE image in place.
func UpdateChecksum(buf []byte, img *Image) {
	off := img.offsetFor(offCheckSum, offCheckSum)
	cs := Checksum(buf, off)
	putLE32(buf[off:], cs)
}
