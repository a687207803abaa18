package splice

import (
	"github.com/xyproto/pegraft/internal/options"
	"github.com/xyproto/pegraft/internal/pe"
	"github.com/xyproto/pegraft/internal/safebuf"
)

// Remove runs remove-mode against a single acceptor: zero or truncate each
// region opts.RemoveX enables, in the same relative order the transplant
// pipeline uses. No donor is involved.
func Remove(acceptor *pe.Image, opts options.Options) []byte {
	working := safebuf.New("remove")
	working.Write(append([]byte(nil), acceptor.Raw()...))
	buf := working.Bytes()
	var lastOffset int64

	if opts.RemoveRich {
		pe.RemoveRich(buf, acceptor.Rich)
	}
	if opts.RemoveStamp {
		pe.RemoveStamp(buf, acceptor)
	}
	if opts.RemoveDbg {
		pe.RemoveDebug(buf, acceptor.Debug)
		pe.SetDebugDirectory(buf, acceptor, 0, 0)
	}
	if opts.RemoveVI && acceptor.Resources != nil && acceptor.RsrcSection >= 0 {
		merged := acceptor.Resources.Clone()
		if idx, ok := merged.FindTopLevel(pe.RT_VERSION); ok {
			root := merged.Dir(merged.Root)
			root.Entries = append(root.Entries[:idx], root.Entries[idx+1:]...)
		}
		newBuf, cascade, err := pe.ApplyResourceEngine(buf, acceptor, merged)
		if err == nil {
			working.ReplaceWith(newBuf)
			buf = working.Bytes()
			lastOffset = acceptor.EndOfRawData() + cascade.RawDelta
			if !opts.RemoveSign {
				pe.FixSignOffset(buf, acceptor, lastOffset)
			}
		}
	}
	if opts.RemoveSign {
		working.ReplaceWith(pe.RemoveSign(buf, acceptor, acceptor.Security, lastOffset))
		buf = working.Bytes()
	}
	if opts.RemoveOverlay {
		working.ReplaceWith(pe.RemoveOverlay(buf, acceptor.Overlay, lastOffset))
		buf = working.Bytes()
	}
	if opts.UpdateChecksum {
		pe.UpdateChecksum(buf, acceptor)
	}

	working.Commit()
	return working.Bytes()
}
