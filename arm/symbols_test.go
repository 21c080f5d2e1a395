package arm_test

import (
	"encoding/binary"
	"testing"

	"github.com/cpmpercussion/comp2300-discoserver/arm"
	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
)

func TestStepInterceptsAudioPlaySample(t *testing.T) {
	mmap := memorymodel.Default()
	core := arm.New(mmap, arm.NewPeripheralSet(mmap))

	entry := mmap.FlashBase + 8
	audioFn := mmap.FlashBase + 0x200
	returnAddr := mmap.FlashBase + 0x300

	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], mmap.SRAMBase+0x1000)
	binary.LittleEndian.PutUint32(buf[4:], entry)
	core.Bus().LoadFlash(0, buf)

	core.LoadSymbols(map[string]uint32{"audio_play_sample": audioFn})
	core.Reset()

	sink := arm.NewAudioSink(48000)
	defer sink.Close()
	ch := make(chan int16, 1)
	sink.Observe(ch)
	core.AttachAudio(sink)

	core.Registers().Set(0, 0x1234)
	core.Registers().Set(14, returnAddr) // LR: where the intercepted "call" returns to
	core.Registers().SetInstructionPC(audioFn)

	if reason := core.Step(); reason != arm.YieldNone {
		t.Fatalf("Step() = %v, want YieldNone (the intercept resolves the step itself)", reason)
	}
	if got := core.Registers().InstructionPC(); got != returnAddr {
		t.Fatalf("pc after intercept = %#x, want it redirected to LR (%#x)", got, returnAddr)
	}

	select {
	case sample := <-ch:
		if sample != 0x1234 {
			t.Fatalf("observed sample = %#x, want the low 16 bits of r0 (0x1234)", sample)
		}
	default:
		t.Fatalf("expected a sample to have been pushed to the observer channel")
	}
}
