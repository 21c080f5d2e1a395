package arm_test

import (
	"encoding/binary"
	"testing"

	"github.com/cpmpercussion/comp2300-discoserver/arm"
	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
)

func newTestCore(t *testing.T) (*arm.ARM, memorymodel.Map) {
	t.Helper()
	mmap := memorymodel.Default()
	core := arm.New(mmap, arm.NewPeripheralSet(mmap))
	return core, mmap
}

// writeVector installs the initial SP/PC and the HardFault handler address
// at their fixed vector-table slots, and one or more 16-bit instructions
// starting at FlashBase+8 (the reset entry point used by every test here).
func writeVector(core *arm.ARM, mmap memorymodel.Map, sp, pc, hardFault uint32, instrs ...uint16) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], sp)
	binary.LittleEndian.PutUint32(buf[4:], pc)
	binary.LittleEndian.PutUint32(buf[12:], hardFault)
	core.Bus().LoadFlash(0, buf)

	code := make([]byte, len(instrs)*2)
	for i, w := range instrs {
		binary.LittleEndian.PutUint16(code[i*2:], w)
	}
	core.Bus().LoadFlash(8, code)
}

func TestStepMovImmSetsRegisterAndFlags(t *testing.T) {
	core, mmap := newTestCore(t)
	entry := mmap.FlashBase + 8
	// MOVS r0, #0x42
	writeVector(core, mmap, mmap.SRAMBase+0x1000, entry, mmap.FlashBase+0x100, 0x2042)
	core.Reset()

	if reason := core.Step(); reason != arm.YieldNone {
		t.Fatalf("Step() = %v, want YieldNone", reason)
	}
	if got := core.Registers().Get(0); got != 0x42 {
		t.Fatalf("r0 = %#x, want 0x42", got)
	}
	if f := core.Flags(); f.Z || f.N {
		t.Fatalf("flags = %s, want neither Z nor N set for a nonzero positive result", f)
	}
}

func TestStepAddRegComputesSum(t *testing.T) {
	core, mmap := newTestCore(t)
	entry := mmap.FlashBase + 8
	// ADDS r0, r1, r2
	writeVector(core, mmap, mmap.SRAMBase+0x1000, entry, mmap.FlashBase+0x100, 0x1888)
	core.Reset()
	core.Registers().Set(1, 10)
	core.Registers().Set(2, 32)

	if reason := core.Step(); reason != arm.YieldNone {
		t.Fatalf("Step() = %v, want YieldNone", reason)
	}
	if got := core.Registers().Get(0); got != 42 {
		t.Fatalf("r0 = %d, want 42", got)
	}
}

func TestStepFaultRedirectsToHardFaultVector(t *testing.T) {
	core, mmap := newTestCore(t)
	entry := mmap.FlashBase + 8
	handler := mmap.FlashBase + 0x40
	// STR r0, [r1, #0]
	writeVector(core, mmap, mmap.SRAMBase+0x1000, entry, handler, 0x6008)
	core.Reset()
	core.Registers().Set(1, 0x6000_1000) // well outside every mapped bank

	reason := core.Step()
	if reason != arm.YieldFault {
		t.Fatalf("Step() = %v, want YieldFault", reason)
	}
	if !core.PendingFault() {
		t.Fatalf("PendingFault() = false, want true after a faulting store")
	}
	if got := core.Registers().InstructionPC(); got != handler {
		t.Fatalf("instruction cursor = %#x, want redirected to the HardFault handler %#x", got, handler)
	}
}

func TestResetReadsVectorTable(t *testing.T) {
	core, mmap := newTestCore(t)
	sp := mmap.SRAMBase + 0x2000
	pc := mmap.FlashBase + 8
	writeVector(core, mmap, sp, pc, mmap.FlashBase+0x100, 0x2042)
	core.Reset()

	if got := core.Registers().Get(13); got != sp {
		t.Fatalf("sp after reset = %#x, want %#x", got, sp)
	}
	if got := core.Registers().InstructionPC(); got != pc {
		t.Fatalf("pc after reset = %#x, want %#x", got, pc)
	}
	if got := core.Registers().Get(14); got != 0xFFFFFFFF {
		t.Fatalf("lr after reset = %#x, want the 0xFFFFFFFF sentinel", got)
	}
}
