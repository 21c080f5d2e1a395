package arm

import (
	"github.com/cpmpercussion/comp2300-discoserver/arm/opcode"
	"github.com/cpmpercussion/comp2300-discoserver/internal/bits"
)

// Op is the intermediate operation produced by the decoder and consumed by
// the executor. It is a discriminated-union-style struct rather than the two
// raw packed 32-bit words described in the architecture notes: a typed field
// per operand kind is just as cache-friendly at this size (the struct is
// comfortably inside a single cache line) and saves the executor from
// re-deriving operand layouts that the opcode tag already pins down.
//
// Exactly one subset of the operand fields is meaningful for any given
// Opcode; which ones is set by the decode*() function that built the Op.
type Op struct {
	Opcode opcode.Opcode

	// Wide is true for 32-bit Thumb-2 encodings.
	Wide bool

	// Cached is set on the copy the instruction cache stores. It is false
	// for the sentinel the cache returns on a miss and for an Op fresh from
	// the decoder.
	Cached bool

	// Unpredictable marks an architecturally UNPREDICTABLE encoding that is
	// nonetheless executed rather than refused.
	Unpredictable bool

	// UnpredictableInIT marks an encoding that is UNPREDICTABLE specifically
	// when it appears inside an IT block at a position other than Last.
	UnpredictableInIT bool

	// register operands; meaning depends on Opcode.
	Rd, Rn, Rm, Rt, Rt2, Ra uint8
	RdLo, RdHi              uint8

	// SetFlags is the "S" bit: whether the instruction updates APSR.
	SetFlags bool

	// Imm carries a generic immediate/offset/branch-target payload. Its
	// width and signedness are opcode-specific; the executor always knows
	// how to interpret it because it knows the opcode.
	Imm uint32

	// ShiftType/ShiftN/CarrySpill describe operand2 for shifted-register and
	// modified-immediate data-processing instructions.
	ShiftType  bits.ShiftType
	ShiftN     uint
	CarrySpill bits.CarrySpill

	// Cond carries the 4-bit condition field for conditional branches and
	// the first condition of the IT instruction (whose mask is in Imm).
	Cond uint8

	// RegList is the register bitmask for LDM/STM/PUSH/POP (bit n => rn).
	RegList uint16

	// Addressing-mode flags shared by the various load/store encodings.
	Index, Add, Wback bool

	// RegOffset is true when a load/store's offset comes from a shifted
	// register (Rm/ShiftType/ShiftN) rather than the immediate field.
	RegOffset bool

	// Lsb/Msb are the bitfield boundaries for BFC/BFI/SBFX/UBFX.
	Lsb, Msb uint8
}

// missOp is returned by the instruction cache on a miss; Cached is false so
// callers know to decode and install a real entry.
var missOp = Op{Opcode: opcode.Unimplemented, Cached: false}
