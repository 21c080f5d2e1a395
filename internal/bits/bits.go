// Package bits implements the closed set of bit-level primitives that the
// ARMv7-M decoder and executor are built on: the barrel shifter, the
// add-with-carry adder that underlies every arithmetic instruction, sign
// extension, bitfield insertion, address alignment, and the Thumb-2
// "modified immediate" constant expander.
//
// None of these functions touch CPU or memory state. They are pure and
// side-effect free so that the executor can treat them as a fixed library,
// the same way "A2.2 and A5.3.2" in the ARMv7-M architecture reference
// describes them.
package bits

import "fmt"

// ShiftType identifies one of the barrel shifter's operating modes. LSL,
// LSR and ASR use the values of the Thumb-2 two-bit shift "type" field;
// RRX and ROR, which share type 0b11 there, get separate values.
type ShiftType uint8

const (
	LSL ShiftType = 0
	LSR ShiftType = 1
	ASR ShiftType = 2
	RRX ShiftType = 3 // only valid when n == 0
	ROR ShiftType = 4
)

// AddWithCarry is the single primitive underlying ADD/SUB/CMP/CMN/ADC/SBC/RSB.
// Subtraction is expressed as AddWithCarry(x, ^y, 1).
//
// result = (x + y + cIn) mod 2^32
// cOut is set iff the unbounded sum is >= 2^32
// vOut is set iff x and y share a sign that differs from the result's sign
func AddWithCarry(x, y uint32, cIn bool) (result uint32, cOut bool, vOut bool) {
	var carry uint64
	if cIn {
		carry = 1
	}
	unsigned := uint64(x) + uint64(y) + carry
	result = uint32(unsigned)
	cOut = unsigned > 0xffffffff

	sx := int64(int32(x))
	sy := int64(int32(y))
	signed := sx + sy + int64(carry)
	vOut = signed != int64(int32(result))

	return result, cOut, vOut
}

// Sub is a convenience wrapper documenting the SUB-via-AddWithCarry identity.
func Sub(x, y uint32) (result uint32, cOut bool, vOut bool) {
	return AddWithCarry(x, ^y, true)
}

// LSL_C shifts x left by n bits (1 <= n <= 31 for a meaningful carry; n==32
// yields 0 with the carry equal to bit 0 of x; n>32 yields 0 with carry clear).
func LSL_C(x uint32, n uint) (result uint32, carry bool) {
	if n == 0 {
		panic("bits: LSL_C requires n > 0")
	}
	if n > 32 {
		return 0, false
	}
	if n == 32 {
		return 0, x&0x1 == 0x1
	}
	result = x << n
	carry = (x>>(32-n))&0x1 == 0x1
	return result, carry
}

// LSR_C is the logical-right-shift counterpart of LSL_C.
func LSR_C(x uint32, n uint) (result uint32, carry bool) {
	if n == 0 {
		panic("bits: LSR_C requires n > 0")
	}
	if n > 32 {
		return 0, false
	}
	if n == 32 {
		return 0, x&0x80000000 == 0x80000000
	}
	result = x >> n
	carry = (x>>(n-1))&0x1 == 0x1
	return result, carry
}

// ASR_C is the arithmetic-right-shift counterpart, replicating the MSB.
func ASR_C(x uint32, n uint) (result uint32, carry bool) {
	if n == 0 {
		panic("bits: ASR_C requires n > 0")
	}
	sx := int32(x)
	if n >= 32 {
		if sx < 0 {
			return 0xffffffff, true
		}
		return 0, false
	}
	result = uint32(sx >> n)
	carry = (x>>(n-1))&0x1 == 0x1
	return result, carry
}

// ROR_C rotates x right by n bits. n == 0 is forbidden; the n == 0
// encoding is RRX (see DecodeImmShift), handled by RRX_C.
func ROR_C(x uint32, n uint) (result uint32, carry bool) {
	if n == 0 {
		panic("bits: ROR_C requires n > 0 (use RRX for n == 0)")
	}
	n %= 32
	if n == 0 {
		return x, x&0x80000000 == 0x80000000
	}
	result = (x >> n) | (x << (32 - n))
	carry = (x>>(n-1))&0x1 == 0x1
	return result, carry
}

// RRX_C rotates x right by one bit, shifting cIn into bit 31 and returning
// the bit shifted out of bit 0 as the new carry.
func RRX_C(x uint32, cIn bool) (result uint32, carry bool) {
	result = x >> 1
	if cIn {
		result |= 0x80000000
	}
	carry = x&0x1 == 0x1
	return result, carry
}

// Shift dispatches on the encoded shift type. n == 0 is a pass-through for
// every type except RRX which always consumes exactly one bit regardless of
// the requested count.
func Shift(x uint32, typ ShiftType, n uint, cIn bool) (result uint32, carry bool) {
	if typ == RRX {
		return RRX_C(x, cIn)
	}
	if n == 0 {
		return x, cIn
	}
	switch typ {
	case LSL:
		return LSL_C(x, n)
	case LSR:
		return LSR_C(x, n)
	case ASR:
		return ASR_C(x, n)
	case ROR:
		return ROR_C(x, n)
	}
	panic(fmt.Sprintf("bits: unknown shift type %d", typ))
}

// DecodeImmShift implements "Decode Imm Shift" from the architecture
// reference: a 2-bit type field plus a 5-bit immediate maps to an actual
// shift type and count, with the LSR/ASR/ROR-by-32 and RRX special cases
// folded in.
func DecodeImmShift(typ uint8, imm5 uint8) (ShiftType, uint) {
	switch typ {
	case 0b00:
		return LSL, uint(imm5)
	case 0b01:
		if imm5 == 0 {
			return LSR, 32
		}
		return LSR, uint(imm5)
	case 0b10:
		if imm5 == 0 {
			return ASR, 32
		}
		return ASR, uint(imm5)
	case 0b11:
		if imm5 == 0 {
			return RRX, 0
		}
		return ROR, uint(imm5)
	}
	panic("bits: shift type field must be 2 bits")
}

// SignExtend replicates bit topBit of value into every higher bit of a
// 32-bit word. topBit is the zero-based index of the sign bit in the
// original (narrower) field.
func SignExtend(value uint32, topBit uint) uint32 {
	if topBit > 31 {
		panic("bits: SignExtend topBit out of range")
	}
	mask := uint32(1) << topBit
	value &= (mask << 1) - 1
	if value&mask != 0 {
		value |= ^((mask << 1) - 1)
	}
	return value
}

// ShiftedSignExtend sign extends value (whose sign bit is topBit) and then
// shifts the result left by leftShift bits. Used for branch-offset fields
// which are stored pre-shifted by one or two bits.
func ShiftedSignExtend(value uint32, topBit uint, leftShift uint) uint32 {
	return SignExtend(value, topBit) << leftShift
}

// BitFieldClear clears the inclusive bit range [lsb, msb] of original.
func BitFieldClear(original uint32, msb, lsb uint) uint32 {
	if msb < lsb {
		panic("bits: BitFieldClear requires msb >= lsb")
	}
	width := msb - lsb + 1
	var mask uint32
	if width >= 32 {
		mask = 0xffffffff
	} else {
		mask = (uint32(1) << width) - 1
	}
	return original &^ (mask << lsb)
}

// BitFieldInsert inserts the low (msb-lsb+1) bits of source into the
// inclusive bit range [lsb, msb] of original, leaving the remaining bits of
// original untouched.
func BitFieldInsert(original, source uint32, msb, lsb uint) uint32 {
	if msb < lsb {
		panic("bits: BitFieldInsert requires msb >= lsb")
	}
	width := msb - lsb + 1
	var mask uint32
	if width >= 32 {
		mask = 0xffffffff
	} else {
		mask = (uint32(1) << width) - 1
	}
	cleared := BitFieldClear(original, msb, lsb)
	return cleared | ((source & mask) << lsb)
}

// Align rounds addr down to the nearest multiple of size. size must be 1, 2 or 4.
func Align(addr uint32, size uint32) uint32 {
	switch size {
	case 1:
		return addr
	case 2:
		return addr &^ 0x1
	case 4:
		return addr &^ 0x3
	}
	panic(fmt.Sprintf("bits: Align called with unsupported size %d", size))
}

// IsAligned reports whether addr is already aligned to size.
func IsAligned(addr uint32, size uint32) bool {
	return addr == Align(addr, size)
}

// CarrySpill documents what a Thumb-2 modified-immediate expansion did to
// the carry flag, so that flag-setting logical instructions know whether to
// preserve the incoming carry or install a new one.
type CarrySpill uint8

const (
	// CarryUnchanged means the encoding used one of the four byte
	// replication patterns (imm12 bits 11:10 zero) and does not affect the
	// carry flag at all.
	CarryUnchanged CarrySpill = iota
	// CarryFromBit31 means the new carry is bit 31 of the expanded constant.
	CarryFromBit31
)

// ThumbExpandImmC implements the Thumb-2 "modified constant" decoder
// described in "A5.3.2 Modified immediate constants in Thumb instructions".
// The 12-bit field (i:imm3:a:bcdefgh, reassembled by the caller) may encode a
// byte replicated in one of four patterns, or a 7-bit value with an implicit
// leading 1 shifted left by 1..31 places.
func ThumbExpandImmC(imm12 uint32) (value uint32, spill CarrySpill) {
	imm12 &= 0xfff
	if imm12&0xc00 == 0 {
		// the two-bit selector (bits 9:8) picks one of four replication
		// patterns, keyed off the low byte abcdefgh
		abcdefgh := imm12 & 0xff
		switch (imm12 >> 8) & 0x3 {
		case 0b00:
			value = abcdefgh
		case 0b01:
			value = abcdefgh<<16 | abcdefgh
		case 0b10:
			value = abcdefgh<<24 | abcdefgh<<8
		case 0b11:
			value = abcdefgh<<24 | abcdefgh<<16 | abcdefgh<<8 | abcdefgh
		}
		return value, CarryUnchanged
	}

	// 1bcdefgh with an implicit leading 1, rotated right by the 5-bit
	// unsigned value in bits 11:7. The new carry is always bit 31 of the
	// rotated result (A5.3.2), which ROR_C's own carry output happens to
	// equal.
	rot := (imm12 >> 7) & 0x1f
	unrotated := uint32(0x80) | (imm12 & 0x7f)
	value, _ = ROR_C(unrotated, uint(rot))
	return value, CarryFromBit31
}

// SignedSaturate clamps value to the range representable in an n-bit signed
// field (1 <= n <= 32), reporting whether value was outside that range. This
// is "SignedSatQ" in the architecture reference, used by SSAT and by the
// QADD/QSUB/QDADD/QDSUB saturating arithmetic instructions.
func SignedSaturate(value int64, n uint) (result int32, saturated bool) {
	if n < 1 || n > 32 {
		panic("bits: SignedSaturate requires 1 <= n <= 32")
	}
	max := int64(1)<<(n-1) - 1
	min := -(int64(1) << (n - 1))
	switch {
	case value > max:
		return int32(max), true
	case value < min:
		return int32(min), true
	}
	return int32(value), false
}

// UnsignedSaturate clamps value to the range representable in an n-bit
// unsigned field (0 <= n <= 32), reporting whether value was outside that
// range. This is "UnsignedSatQ" in the architecture reference, used by USAT.
func UnsignedSaturate(value int64, n uint) (result uint32, saturated bool) {
	if n > 32 {
		panic("bits: UnsignedSaturate requires n <= 32")
	}
	max := int64(1)<<n - 1
	switch {
	case value > max:
		return uint32(max), true
	case value < 0:
		return 0, true
	}
	return uint32(value), false
}
