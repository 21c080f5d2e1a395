package arm

import "github.com/cpmpercussion/comp2300-discoserver/internal/logger"

// symbolKind classifies a special-symbol intercept installed from the
// loaded ELF's symbol table.
type symbolKind int

const (
	symbolSkip symbolKind = iota
	symbolAudioPlaySample
)

// symbolTable maps entry addresses of a handful of well-known library
// functions to a fast-path behaviour, so that the step driver can avoid
// single-stepping through routines the emulator has no way to usefully
// execute (init routines and LCD/joystick helpers) or that need to be bridged out to a Go
// side-channel (the audio playback entry point feeding AudioSink). This is
// the "6. Special symbol interception" mechanism in the component design.
type symbolTable struct {
	entries map[uint32]symbolKind
}

func newSymbolTable() *symbolTable {
	return &symbolTable{entries: make(map[uint32]symbolKind)}
}

// skipNames are library entry points the fixed allowlist names as safe to
// treat as returning immediately: board/clock/peripheral init routines and
// LCD/joystick helpers the emulator has no display or input device behind,
// so single-stepping through them would just burn the instruction budget
// without observable effect.
var skipNames = map[string]bool{
	"SystemInit":                     true,
	"__libc_init_array":              true,
	"init":                           true,
	"audio_init":                     true,
	"init_joystick":                  true,
	"joystick_init_all":              true,
	"joystick_enable_interrupts_all": true,
	"lcd_init":                       true,
	"lcd_write_char":                 true,
	"lcd_write_string":               true,
	"lcd_update_display":             true,
	"maximise_clock_speed":           true,
}

// audioPlaySampleNames are the names firmware built against either the
// bare-metal HAL or the board support package use for the audio output
// entry point; both are routed to the same intercept.
var audioPlaySampleNames = map[string]bool{
	"audio_play_sample":         true,
	"BSP_AUDIO_OUT_Play_Sample": true,
}

// load installs intercepts for every recognised symbol name present in
// entries (typically the ELF's exported function symbols).
func (s *symbolTable) load(entries map[string]uint32) {
	for name, addr := range entries {
		switch {
		case audioPlaySampleNames[name]:
			s.entries[addr&^0x1] = symbolAudioPlaySample
		case skipNames[name]:
			s.entries[addr&^0x1] = symbolSkip
		}
	}
}

// shouldSkip reports whether a BL targeting addr should be elided entirely:
// the caller (execute's Bl case) has already written LR, so returning true
// here simply leaves PC advancing past the BL as if it were a NOP, without
// ever branching into the callee.
func (s *symbolTable) shouldSkip(addr uint32) bool {
	kind, ok := s.entries[addr]
	return ok && kind == symbolSkip
}

// intercept is consulted at the top of every Step, before fetch/decode, so
// that a direct jump to an intercepted address (not just a BL landing on
// one) is also caught. It returns handled=true when it fully resolved the
// step itself, in which case the step driver should not decode/execute
// anything further this cycle.
func (s *symbolTable) intercept(arm *ARM, pc uint32) (handled bool, yield YieldReason) {
	kind, ok := s.entries[pc]
	if !ok {
		return false, YieldNone
	}

	switch kind {
	case symbolSkip:
		arm.branchTo(arm.registers.Get(rLR))
		return true, YieldNone
	case symbolAudioPlaySample:
		if arm.audio != nil {
			sample := int16(arm.registers.Get(0) & 0xffff)
			arm.audio.PushSample(sample)
		} else {
			logger.Logf(logger.Allow, "arm", "audio_play_sample called at %08x but no audio sink is attached", pc)
		}
		arm.branchTo(arm.registers.Get(rLR))
		return true, YieldNone
	}
	return false, YieldNone
}
