package pe

// Offsets relative to e_lfanew (the PE signature offset stored at file
// offset 0x3c). Where PE32 and PE32+ differ, both are listed;
// Image.offsetFor picks the right one based on IsPE32Plus.
const (
	offMagic32, offMagic64                     = 24, 24
	offMajorLinkerVersion, offMinorLinkerVersion = 26, 27
	offSizeOfInitializedData                   = 32
	offAddressOfEntryPoint                     = 40
	offBaseOfCode                              = 44
	offImageBase32, offImageBase64             = 52, 48
	offSectionAlignment                        = 56
	offFileAlignment                           = 60
	offSizeOfImage                             = 80
	offCheckSum                                = 88
	offTimeDateStamp                           = 8

	offExportDir32, offExportDir64     = 120, 136
	offImportDir32, offImportDir64     = 128, 144
	offResourceDir32, offResourceDir64 = 136, 152
	offSecurityDir32, offSecurityDir64 = 152, 168
	offBaseRelocDir32, offBaseRelocDir64 = 160, 176
	offDebugDir32, offDebugDir64       = 168, 184
)

// Well-known PE/COFF constants.
const (
	dosMagic  uint16 = 0x5A4D // "MZ"
	peSigWord uint32 = 0x00004550

	magicPE32     uint16 = 0x10B
	magicPE32Plus uint16 = 0x20B

	richMagic       uint32 = 0x68636952 // "Rich" little-endian dword
	danSBigEndian   uint32 = 0x44616e53 // "DanS" as a big-endian-read dword
	danSLittleEndian uint32 = 0x536e6144

	richScanLowerBound = 0x80
	richMinSynthSize   = 40

	importNameLengthCap = 4096
	resourceDepthCap    = 32
	fileAlignmentCap    = 64000

	debugEntrySize = 28

	e_lfanewOffset = 0x3c
)

// RT_VERSION is the resource type id that the resource tree treats
// specially: it is stored separately from the rest of the root directory's
// entries so it can be swapped without touching siblings.
const RT_VERSION = 16
