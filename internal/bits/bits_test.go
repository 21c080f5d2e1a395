package bits_test

import (
	"testing"

	"github.com/cpmpercussion/comp2300-discoserver/internal/bits"
)

func TestAddWithCarryIdentity(t *testing.T) {
	for _, x := range []uint32{0, 1, 0x7fffffff, 0x80000000, 0xffffffff, 0xdeadbeef} {
		result, carry, overflow := bits.AddWithCarry(x, ^x, true)
		if result != 0 || !carry || overflow {
			t.Errorf("AddWithCarry(%#x, ^%#x, true) = (%#x, %v, %v), want (0, true, false)", x, x, result, carry, overflow)
		}
	}
}

func TestAddWithCarryOverflow(t *testing.T) {
	result, carry, overflow := bits.AddWithCarry(0x7fffffff, 1, false)
	if result != 0x80000000 || carry || !overflow {
		t.Fatalf("got (%#x, %v, %v), want (0x80000000, false, true)", result, carry, overflow)
	}
}

func TestSubMatchesAddWithCarry(t *testing.T) {
	x, y := uint32(10), uint32(3)
	subResult, subCarry, subOverflow := bits.Sub(x, y)
	awcResult, awcCarry, awcOverflow := bits.AddWithCarry(x, ^y, true)
	if subResult != awcResult || subCarry != awcCarry || subOverflow != awcOverflow {
		t.Fatalf("Sub and AddWithCarry(x, ^y, 1) disagree")
	}
	if subResult != 7 {
		t.Fatalf("10 - 3 = %d, want 7", subResult)
	}
}

func TestASRBy32OfMinInt(t *testing.T) {
	result, carry := bits.ASR_C(0x80000000, 32)
	if result != 0xffffffff || !carry {
		t.Fatalf("ASR_C(0x80000000, 32) = (%#x, %v), want (0xffffffff, true)", result, carry)
	}
}

func TestLSLBy32YieldsOriginalBit0AsCarry(t *testing.T) {
	result, carry := bits.LSL_C(0x00000001, 32)
	if result != 0 || !carry {
		t.Fatalf("LSL_C(1, 32) = (%#x, %v), want (0, true)", result, carry)
	}
	result, carry = bits.LSL_C(0x00000002, 32)
	if result != 0 || carry {
		t.Fatalf("LSL_C(2, 32) = (%#x, %v), want (0, false)", result, carry)
	}
}

func TestLSLBy33YieldsZero(t *testing.T) {
	result, carry := bits.LSL_C(0xffffffff, 33)
	if result != 0 || carry {
		t.Fatalf("LSL_C(x, 33) = (%#x, %v), want (0, false)", result, carry)
	}
}

func TestRRXInsertsCarryAndShiftsOutBit0(t *testing.T) {
	result, carry := bits.RRX_C(0x00000001, true)
	if result != 0x80000000 || !carry {
		t.Fatalf("RRX_C(1, true) = (%#x, %v), want (0x80000000, true)", result, carry)
	}
}

func TestShiftedSignExtendMatchesSignExtendWhenNoShift(t *testing.T) {
	for _, v := range []uint32{0, 1, 0x3f, 0x40, 0x7f} {
		got := bits.ShiftedSignExtend(v, 7, 0)
		want := bits.SignExtend(v, 7)
		if got != want {
			t.Errorf("ShiftedSignExtend(%#x, 7, 0) = %#x, want %#x", v, got, want)
		}
	}
}

func TestSignExtendBranchOffset(t *testing.T) {
	// -6 halfword offset, as an 11-bit signed field (format used by the
	// unconditional Thumb branch)
	raw := uint32(0x7fa) // two's complement representation of -6 in 11 bits
	got := int32(bits.ShiftedSignExtend(raw, 10, 1))
	if got != -12 {
		t.Fatalf("ShiftedSignExtend(-6 in 11 bits, shift 1) = %d, want -12", got)
	}
}

func TestBitFieldInsertRoundTrip(t *testing.T) {
	original := uint32(0xffffffff)
	provider := uint32(0x0000000a) // 0b1010
	got := bits.BitFieldInsert(original, provider, 7, 4)
	if got != 0xffffffaf {
		t.Fatalf("BitFieldInsert = %#x, want 0xffffffaf", got)
	}
}

func TestBitFieldClearThenInsert(t *testing.T) {
	original := uint32(0x12345678)
	cleared := bits.BitFieldClear(original, 15, 8)
	if cleared != 0x12340078 {
		t.Fatalf("BitFieldClear = %#x, want 0x12340078", cleared)
	}
	inserted := bits.BitFieldInsert(cleared, 0xab, 15, 8)
	if inserted != 0x1234ab78 {
		t.Fatalf("BitFieldInsert = %#x, want 0x1234ab78", inserted)
	}
}

func TestAlign(t *testing.T) {
	if got := bits.Align(0x2000_0003, 4); got != 0x2000_0000 {
		t.Fatalf("Align(0x20000003, 4) = %#x, want 0x20000000", got)
	}
	if got := bits.Align(0x2000_0003, 2); got != 0x2000_0002 {
		t.Fatalf("Align(0x20000003, 2) = %#x, want 0x20000002", got)
	}
}

func TestThumbExpandImmReplication(t *testing.T) {
	// 00000000 10101001 pattern selector 0b01 replicates into both halves
	imm12 := uint32(0b01<<8) | 0xa9
	value, spill := bits.ThumbExpandImmC(imm12)
	if value != 0x00a900a9 {
		t.Fatalf("ThumbExpandImmC replication = %#x, want 0x00a900a9", value)
	}
	if spill != bits.CarryUnchanged {
		t.Fatalf("replication pattern must not touch carry")
	}
}

func TestThumbExpandImmRotated(t *testing.T) {
	// 0xA9 << 24, i.e. scenario 1 from the testable-properties section:
	// ADC r10, r10, #0xA9<<24. rot=8, bcdefgh=0x29 (0xA9 with its forced
	// leading 1 stripped) reproduces the exact 0xa9000000 constant.
	imm12 := uint32(0b10000101001)
	value, spill := bits.ThumbExpandImmC(imm12)
	if value != 0xa9000000 {
		t.Fatalf("ThumbExpandImmC rotated = %#x, want 0xa9000000", value)
	}
	if spill != bits.CarryFromBit31 {
		t.Fatalf("rotated-constant pattern must source carry from bit 31")
	}
}
