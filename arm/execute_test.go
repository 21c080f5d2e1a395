package arm_test

import (
	"testing"

	"github.com/cpmpercussion/comp2300-discoserver/arm"
)

func TestStepQaddSaturatesAndSetsQ(t *testing.T) {
	core, mmap := newTestCore(t)
	entry := mmap.FlashBase + 8
	// QADD r0, r2, r1 (32-bit Thumb-2 data-processing-register encoding).
	writeVector(core, mmap, mmap.SRAMBase+0x1000, entry, mmap.FlashBase+0x100, 0xfae1, 0x0002)
	core.Reset()
	core.Registers().Set(1, 0x7fffffff)
	core.Registers().Set(2, 1)

	if reason := core.Step(); reason != arm.YieldNone {
		t.Fatalf("Step() = %v, want YieldNone", reason)
	}
	if got := core.Registers().Get(0); got != 0x7fffffff {
		t.Fatalf("r0 = %#x, want saturated max int32 0x7fffffff", got)
	}
	if !core.Flags().Q {
		t.Fatalf("Q flag not set after a saturating QADD overflow")
	}
}

func TestStepSsatClampsToRangeAndSetsQ(t *testing.T) {
	core, mmap := newTestCore(t)
	entry := mmap.FlashBase + 8
	// SSAT r0, #8, r3 (saturate to an 8-bit signed range, no shift).
	writeVector(core, mmap, mmap.SRAMBase+0x1000, entry, mmap.FlashBase+0x100, 0xf303, 0x0007)
	core.Reset()
	core.Registers().Set(3, 200)

	if reason := core.Step(); reason != arm.YieldNone {
		t.Fatalf("Step() = %v, want YieldNone", reason)
	}
	if got := core.Registers().Get(0); got != 127 {
		t.Fatalf("r0 = %d, want 127 (max signed 8-bit value)", got)
	}
	if !core.Flags().Q {
		t.Fatalf("Q flag not set after an SSAT clamp")
	}
}

func TestStepSsatInRangeLeavesQClear(t *testing.T) {
	core, mmap := newTestCore(t)
	entry := mmap.FlashBase + 8
	writeVector(core, mmap, mmap.SRAMBase+0x1000, entry, mmap.FlashBase+0x100, 0xf303, 0x0007)
	core.Reset()
	core.Registers().Set(3, 10)

	if reason := core.Step(); reason != arm.YieldNone {
		t.Fatalf("Step() = %v, want YieldNone", reason)
	}
	if got := core.Registers().Get(0); got != 10 {
		t.Fatalf("r0 = %d, want 10 (unchanged, within range)", got)
	}
	if core.Flags().Q {
		t.Fatalf("Q flag set for a value that never exceeded the saturation range")
	}
}

// TestStepBranchUsesUnalignedPC places the branch two bytes past a word
// boundary (instruction_pc %4 == 2) so that wrongly word-aligning the PC
// before adding the branch offset would land two bytes short of the real
// target.
func TestStepBranchUsesUnalignedPC(t *testing.T) {
	core, mmap := newTestCore(t)
	entry := mmap.FlashBase + 8
	target := mmap.FlashBase + 0x20
	writeVector(core, mmap, mmap.SRAMBase+0x1000, entry, mmap.FlashBase+0x100,
		0xbf00, // NOP, occupies FlashBase+8..+9 so the branch sits at +0xA
		0xe009, // B <target> (unconditional narrow branch, imm11=9)
	)
	core.Reset()

	if reason := core.Step(); reason != arm.YieldNone { // NOP
		t.Fatalf("Step() (NOP) = %v, want YieldNone", reason)
	}
	if got := core.Registers().InstructionPC(); got != mmap.FlashBase+0xA {
		t.Fatalf("pc after NOP = %#x, want %#x", got, mmap.FlashBase+0xA)
	}

	if reason := core.Step(); reason != arm.YieldNone { // B
		t.Fatalf("Step() (B) = %v, want YieldNone", reason)
	}
	if got := core.Registers().InstructionPC(); got != target {
		t.Fatalf("pc after branch = %#x, want %#x (unaligned PC base)", got, target)
	}
}
