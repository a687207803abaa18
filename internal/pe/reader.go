package pe

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/xyproto/pegraft/internal/diag"
)

// Open parses data into an Image under the given mode. In ModeStrict,
// recoverable anomalies are routed through diagnostics: a region whose
// ConfirmOrAbort prompt is answered "continue" is recorded as disabled (in
// Image.Warnings) and the parse goes on, while an "abort" answer ends the
// parse with that region's error; a header-level anomaly is always fatal. In
// ModeDonor, any sub-parse failure simply leaves that field nil/empty so
// the Fit Scorer treats the capability as absent.
func Open(data []byte, mode ParseMode, d diag.Diagnostics) (*Image, error) {
	if d == nil {
		d = diag.AlwaysProceed{}
	}
	img := &Image{raw: data, Warnings: diag.NewCollector(), RsrcSection: -1}

	if err := img.parseHeader(data); err != nil {
		return nil, err
	}
	if err := img.parseSections(data, mode); err != nil {
		return nil, err
	}

	// Every region beyond the header/sections is individually optional;
	// a failure degrades gracefully per mode rather than aborting.
	regions := []struct {
		region diag.Region
		fn     func() error
	}{
		{diag.RegionRich, func() error { return img.parseRich(data, mode) }},
		{diag.RegionDebug, func() error { return img.parseDebug(data) }},
		{diag.RegionResource, func() error { return img.parseResources(data) }},
		{diag.RegionImport, func() error { return img.parseImports(data) }},
		{diag.RegionReloc, func() error { return img.parseRelocs(data) }},
		{diag.RegionSign, func() error { return img.parseSecurity(data) }},
	}
	for _, r := range regions {
		if err := img.tryParse(r.region, mode, d, r.fn); err != nil {
			return nil, err
		}
	}
	img.parseOverlay(data)

	return img, nil
}

// tryParse runs fn and, on failure, either prompts (strict mode) or
// silently disqualifies the capability (donor mode). A strict-mode prompt
// answered "abort" surfaces the region's error and ends the whole parse.
func (img *Image) tryParse(region diag.Region, mode ParseMode, d diag.Diagnostics, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if mode == ModeStrict {
		if !d.ConfirmOrAbort(diag.KindMalformedRegion, region, err.Error()) {
			return err
		}
		img.Warnings.Record(diag.MalformedRegion(region, 0, err.Error()), true)
	}
	// ModeDonor: silent skip, nothing recorded, field stays zero-value.
	return nil
}

func u16(b []byte, off int64) uint16 { return binary.LittleEndian.Uint16(b[off:]) }
func u32(b []byte, off int64) uint32 { return binary.LittleEndian.Uint32(b[off:]) }
func u64(b []byte, off int64) uint64 { return binary.LittleEndian.Uint64(b[off:]) }

func (img *Image) parseHeader(data []byte) error {
	if len(data) < e_lfanewOffset+4 {
		return diag.MalformedHeader(0, "file too short for DOS header")
	}
	if u16(data, 0) != dosMagic {
		return diag.MalformedHeader(0, "bad DOS magic, expected MZ")
	}
	elfanew := int64(u32(data, e_lfanewOffset))
	if elfanew == 0 || int(elfanew)+24 > len(data) {
		return diag.MalformedHeader(diag.Offset(e_lfanewOffset), "e_lfanew is zero or out of bounds")
	}
	if u32(data, elfanew) != peSigWord {
		return diag.MalformedHeader(diag.Offset(elfanew), "bad PE signature")
	}
	img.ELfanew = elfanew

	numSections := u16(data, elfanew+6)
	sooh := u16(data, elfanew+20)
	magicOff := elfanew + 24
	if int(magicOff)+2 > len(data) {
		return diag.MalformedHeader(diag.Offset(magicOff), "optional header magic out of bounds")
	}
	magic := u16(data, magicOff)
	switch magic {
	case magicPE32:
		img.IsPE32Plus = false
	case magicPE32Plus:
		img.IsPE32Plus = true
	default:
		return diag.MalformedHeader(diag.Offset(magicOff), fmt.Sprintf("unknown optional header magic 0x%04x", magic))
	}

	img.TimeDateStamp = u32(data, img.offsetFor(offTimeDateStamp, offTimeDateStamp))
	img.EntryPoint = u32(data, img.offsetFor(offAddressOfEntryPoint, offAddressOfEntryPoint))
	img.BaseOfCode = u32(data, img.offsetFor(offBaseOfCode, offBaseOfCode))
	if img.IsPE32Plus {
		img.ImageBase = u64(data, img.offsetFor(offImageBase32, offImageBase64))
	} else {
		img.ImageBase = uint64(u32(data, img.offsetFor(offImageBase32, offImageBase64)))
	}
	img.SectionAlign = u32(data, img.offsetFor(offSectionAlignment, offSectionAlignment))
	img.FileAlign = u32(data, img.offsetFor(offFileAlignment, offFileAlignment))
	img.SizeOfImage = u32(data, img.offsetFor(offSizeOfImage, offSizeOfImage))
	img.Checksum = u32(data, img.offsetFor(offCheckSum, offCheckSum))

	if img.FileAlign == 0 || img.SectionAlign == 0 || img.SectionAlign < img.FileAlign {
		return diag.MalformedHeader(diag.Offset(img.offsetFor(offFileAlignment, offFileAlignment)),
			"section/file alignment invariant violated")
	}
	if img.FileAlign > fileAlignmentCap {
		return diag.MalformedHeader(diag.Offset(img.offsetFor(offFileAlignment, offFileAlignment)),
			"file alignment exceeds cap")
	}

	// stash numSections/sooh for parseSections via a private field trick:
	img.numSectionsHint = numSections
	img.soohHint = sooh
	return nil
}

func (img *Image) parseSections(data []byte, mode ParseMode) error {
	base := img.ELfanew + 24 + int64(img.soohHint)
	img.Sections = make([]Section, img.numSectionsHint)
	for i := 0; i < int(img.numSectionsHint); i++ {
		off := base + int64(i)*40
		if int(off)+40 > len(data) {
			return diag.MalformedHeader(diag.Offset(off), "section header out of bounds")
		}
		var s Section
		copy(s.Name[:], data[off:off+8])
		s.VirtualSize = u32(data, off+8)
		s.VirtualAddress = u32(data, off+12)
		s.SizeOfRawData = u32(data, off+16)
		s.PointerToRawData = u32(data, off+20)
		s.PointerToRelocations = u32(data, off+24)
		s.PointerToLinenumbers = u32(data, off+28)
		s.NumberOfRelocations = u16(data, off+32)
		s.NumberOfLinenumbers = u16(data, off+34)
		s.Characteristics = u32(data, off+36)
		s.headerIndex = i
		img.Sections[i] = s
	}

	if mode == ModeStrict {
		sort.SliceStable(img.Sections, func(a, b int) bool {
			return img.Sections[a].PointerToRawData < img.Sections[b].PointerToRawData
		})
		for i := 1; i < len(img.Sections); i++ {
			prev, cur := &img.Sections[i-1], &img.Sections[i]
			if prev.SizeOfRawData > 0 && cur.SizeOfRawData > 0 && cur.PointerToRawData < prev.RawEnd() {
				return diag.MalformedHeader(diag.Offset(img.sectionStructOffset(i)),
					"section raw regions overlap")
			}
		}
	}

	for i := range img.Sections {
		if img.Sections[i].IsRsrc() {
			img.RsrcSection = i
			break
		}
	}
	return nil
}

func (img *Image) dataDirectory(index int) DataDirectory {
	// Data directory array starts right after the fixed optional-header
	// fields; simplest robust approach is to compute its base the same way
	// the per-region offsets were derived (already relative to e_lfanew).
	var base int64
	if img.IsPE32Plus {
		base = img.ELfanew + 136 // start of DataDirectory array, PE32+
	} else {
		base = img.ELfanew + 120 // start of DataDirectory array, PE32
	}
	off := base + int64(index)*8
	return DataDirectory{
		VirtualAddress: u32(img.raw, off),
		Size:           u32(img.raw, off+4),
	}
}

// setDataDirectory rewrites data directory entry index's RVA/size pair in
// buf, the symmetric counterpart to dataDirectory.
func (img *Image) setDataDirectory(buf []byte, index int, rva, size uint32) {
	var base int64
	if img.IsPE32Plus {
		base = img.ELfanew + 136
	} else {
		base = img.ELfanew + 120
	}
	off := base + int64(index)*8
	putLE32(buf[off:], rva)
	putLE32(buf[off+4:], size)
}
