// Package imports implements the Import Shuffler: it disassembles the
// acceptor's code section to find every call/jmp/mov operand that
// addresses an IAT slot, reorders the DLL and function lists, and rewrites
// those operands to match.
package imports

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/arch/x86/x86asm"
)

// Mnemonic is the small set of instruction mnemonics the shuffler indexes;
// anything else is skipped during the linear disassembly pass.
type Mnemonic int

const (
	MnemOther Mnemonic = iota
	MnemCall
	MnemJmp
	MnemMov
)

// Instruction is what the shuffler needs from a decoded instruction: its
// length (to advance the scan and to verify a rewrite preserves it), the
// mnemonic, and, if one operand addresses memory through a bare
// [disp32]/[disp64] or RIP-relative form, that operand's resolved VA and
// where its displacement bytes live within the encoding.
type Instruction struct {
	Len      int
	Mnemonic Mnemonic

	HasMemOperand bool
	RIPRelative   bool
	// OperandAddr is the absolute VA the memory operand addresses.
	OperandAddr uint64
	// OperandOffset and OperandSize locate the displacement bytes to
	// rewrite within the instruction's encoded bytes. Found by searching
	// the encoding for the little-endian disp bytes rather than
	// re-deriving ModRM/SIB layout, since x86asm does not expose byte
	// offsets directly.
	OperandOffset int
	OperandSize   int
}

// Decoder is the capability interface the shuffler depends on; any mature
// x86/x64 decoder can satisfy it. The shipped implementation wraps
// golang.org/x/arch/x86/x86asm.
type Decoder interface {
	Decode(code []byte, pc uint64, is64Bit bool) (Instruction, error)
}

// X86Decoder is the Decoder backed by golang.org/x/arch/x86/x86asm.
type X86Decoder struct{}

func (X86Decoder) Decode(code []byte, pc uint64, is64Bit bool) (Instruction, error) {
	mode := 32
	if is64Bit {
		mode = 64
	}
	inst, err := x86asm.Decode(code, mode)
	if err != nil {
		return Instruction{}, err
	}
	out := Instruction{Len: inst.Len}
	switch inst.Op {
	case x86asm.CALL:
		out.Mnemonic = MnemCall
	case x86asm.JMP:
		out.Mnemonic = MnemJmp
	case x86asm.MOV:
		out.Mnemonic = MnemMov
	default:
		return out, nil
	}

	for _, arg := range inst.Args {
		mem, ok := arg.(x86asm.Mem)
		if !ok {
			continue
		}
		out.HasMemOperand = true
		var disp32 uint32
		if mem.Base == x86asm.RIP {
			out.RIPRelative = true
			out.OperandAddr = pc + uint64(inst.Len) + uint64(mem.Disp)
			disp32 = uint32(mem.Disp)
		} else if mem.Base == 0 && mem.Index == 0 {
			out.OperandAddr = uint64(uint32(mem.Disp))
			disp32 = uint32(mem.Disp)
		} else {
			break
		}
		if off, size, ok := findDisp(code[:inst.Len], disp32); ok {
			out.OperandOffset, out.OperandSize = off, size
		}
		break
	}
	return out, nil
}

// findDisp locates the little-endian encoding of disp within raw, the
// encoded instruction bytes; only a 4-byte match is tried. Used because
// x86asm's Inst does not report displacement field offsets.
func findDisp(raw []byte, disp uint32) (offset, size int, ok bool) {
	var buf4 [4]byte
	binary.LittleEndian.PutUint32(buf4[:], disp)
	if idx := bytes.Index(raw, buf4[:]); idx >= 0 {
		return idx, 4, true
	}
	return 0, 0, false
}
