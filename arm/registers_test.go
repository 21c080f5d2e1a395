package arm

import "testing"

func TestRegistersPCReadsTwoAheadOfInstructionPC(t *testing.T) {
	var r Registers
	r.reset(0, 0x0800_0100)
	if got := r.Get(rPC); got != 0x0800_0104 {
		t.Fatalf("Get(pc) = %#x, want instructionPC+4 = %#x", got, uint32(0x0800_0104))
	}
	if got := r.InstructionPC(); got != 0x0800_0100 {
		t.Fatalf("InstructionPC() = %#x, want %#x", got, uint32(0x0800_0100))
	}
}

func TestRegistersSPReadIsWordAligned(t *testing.T) {
	var r Registers
	r.Set(rSP, 0x2000_1003)
	if got := r.Get(rSP); got != 0x2000_1000 {
		t.Fatalf("Get(sp) = %#x, want masked to word alignment 0x20001000", got)
	}
	if !r.UnpredictableSP() {
		t.Fatalf("an unaligned SP write should set the sticky flag")
	}
	if r.UnpredictableSP() {
		t.Fatalf("UnpredictableSP should clear the flag once read")
	}
}

func TestRegistersResetPrimesLRSentinel(t *testing.T) {
	var r Registers
	r.reset(0x2000_8000, 0x0800_0000)
	if got := r.Get(rLR); got != 0xFFFFFFFF {
		t.Fatalf("reset LR = %#x, want the 0xFFFFFFFF return-from-nothing sentinel", got)
	}
}

func TestRegistersSetPCClearsThumbBit(t *testing.T) {
	var r Registers
	r.Set(rPC, 0x0800_0101)
	if got := r.InstructionPC(); got != 0x0800_0100 {
		t.Fatalf("InstructionPC() = %#x, want the low bit masked off", got)
	}
}
