package arm

import (
	"github.com/cpmpercussion/comp2300-discoserver/arm/opcode"
	"github.com/cpmpercussion/comp2300-discoserver/internal/bits"
)

// decode turns the raw halfword(s) fetched from addr into an intermediate Op,
// consulting the instruction cache first. This is "4.2 Decoder" and "4.3
// Instruction cache" in the component design: a cache hit skips decoding
// entirely, and a miss is installed into the correct bank (flash or RAM)
// before being returned.
func (arm *ARM) decode(addr uint32) (Op, *MemError) {
	if cached := arm.icache.Get(addr); cached.Cached {
		return cached, nil
	}

	word, err := arm.bus.FetchInstrWord(addr)
	if err != nil {
		return Op{}, err
	}

	lo := uint16(word)
	if isWideFirstHalfword(lo) {
		hi := uint16(word >> 16)
		op := decodeWide(lo, hi)
		op.Wide = true
		arm.icache.PutWide(addr, op)
		return op, nil
	}

	op := decodeNarrow(lo)
	arm.icache.PutNarrow(addr, op)
	return op, nil
}

// isWideFirstHalfword reports whether halfword lo is the first halfword of a
// 32-bit Thumb-2 instruction, per "A5.1 Thumb instruction set encoding":
// bits [15:11] of 0b11101, 0b11110 or 0b11111 mark a wide instruction.
func isWideFirstHalfword(lo uint16) bool {
	top5 := lo >> 11
	return top5 == 0b11101 || top5 == 0b11110 || top5 == 0b11111
}

// signExtendBranchOffset sign-extends a branch target field of the given bit
// width, used by every relative-branch decode (B, BL, CBZ/CBNZ, conditional
// branch) so that backward branches land on the correct address.
func signExtendBranchOffset(v uint32, bitWidth uint) uint32 {
	return bits.SignExtend(v, bitWidth)
}

func decodeCondition(raw uint8) uint8 {
	return raw & 0xf
}

func opWithCond(op Op, cond uint8) Op {
	op.Cond = cond
	return op
}

var _ = opcode.Unimplemented
