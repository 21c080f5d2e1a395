// Package arm implements a functional (not cycle-accurate) emulator for the
// ARMv7-M Thumb/Thumb-2 instruction set, targeting a Cortex-M4-class core.
// Exception prioritization, the MPU, the FPU, SysTick and multi-core
// coherency are all out of scope; see the decoder and executor for the exact
// boundary of what is implemented.
package arm

import (
	"fmt"

	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
	"github.com/cpmpercussion/comp2300-discoserver/internal/faults"
	"github.com/cpmpercussion/comp2300-discoserver/internal/logger"
)

// the maximum number of instructions executed since the last Reset before
// every Step returns YieldInstructionLimit, so that a runaway program (or a bug in the
// decoder/executor) can't wedge the debug server forever.
const instructionLimit = 50_000_000

// YieldReason explains why Run (or a single Step) stopped.
type YieldReason int

const (
	YieldNone YieldReason = iota
	YieldBreakpoint
	YieldWatchpoint
	YieldFault
	YieldUndefined
	YieldSVC
	YieldBKPT
	YieldWFIWFE
	YieldInstructionLimit
	YieldHalted
)

func (y YieldReason) String() string {
	switch y {
	case YieldNone:
		return "none"
	case YieldBreakpoint:
		return "breakpoint"
	case YieldWatchpoint:
		return "watchpoint"
	case YieldFault:
		return "fault"
	case YieldUndefined:
		return "undefined instruction"
	case YieldSVC:
		return "supervisor call"
	case YieldBKPT:
		return "breakpoint instruction"
	case YieldWFIWFE:
		return "wait for interrupt/event"
	case YieldInstructionLimit:
		return "instruction limit reached"
	case YieldHalted:
		return "halted"
	}
	return "unknown"
}

// ARM is the complete emulated core: register file, condition flags, IT
// state, instruction cache, exclusive monitor, memory bus and peripheral
// aggregator. A zero-value ARM is not usable; construct with New.
type ARM struct {
	registers Registers
	flags     Flags
	it        ITState
	exclusive ExclusiveMonitor
	icache    *ICache
	bus       *Bus
	mmap      memorymodel.Map

	// exceptionNumber mirrors the IPSR field of xPSR. The emulator never
	// actually takes exceptions (see the component design's exception
	// handling non-goal) so this is always zero except when a debug client
	// writes it directly.
	exceptionNumber uint8

	// pendingFault is set the moment any fault is recorded and is never
	// cleared automatically, matching the imprecise/sticky fault model: a
	// fault does not unwind the instruction that caused it, it just leaves a
	// permanent mark that the fault log and debug server can report.
	pendingFault bool

	halted bool

	// pcWasRedirected is set by branchTo whenever the executor has already
	// moved the instruction cursor (a taken branch, BX, POP{PC}, ...) so
	// that Step knows not to additionally advance it by the instruction's
	// width.
	pcWasRedirected bool

	breakpoints    map[uint32]bool
	watchpoints    map[uint32]watchpoint
	instructionLog []uint32

	sym *symbolTable

	audio *AudioSink

	instructionCount int64
}

type watchpoint struct {
	read, write bool
}

// New constructs an ARM with the given memory map and peripheral aggregator.
// Call Reset before running any code.
func New(mmap memorymodel.Map, peripherals Peripherals) *ARM {
	arm := &ARM{
		mmap:        mmap,
		breakpoints: make(map[uint32]bool),
		watchpoints: make(map[uint32]watchpoint),
		sym:         newSymbolTable(),
	}
	arm.icache = newICache(mmap)
	arm.bus = newBus(mmap, peripherals, arm.icache, arm.registers.InstructionPC)
	return arm
}

// Reset reinitializes every piece of architectural state and reloads SP and
// the reset vector from addresses 0x0 and 0x4, per "B1.5.10 Resets": on
// reset the processor reads its initial SP from vector[0] and its initial PC
// from vector[1], matching every Cortex-M boot sequence.
func (arm *ARM) Reset() {
	sp := arm.bus.ReadWord32(arm.mmap.FlashAliasBase)
	pc := arm.bus.ReadWord32(arm.mmap.FlashAliasBase + 4)

	arm.registers.reset(sp, pc)
	arm.flags.reset()
	arm.it.Reset()
	arm.exclusive.Clear()
	arm.icache.Clear()
	arm.exceptionNumber = 0
	arm.pendingFault = false
	arm.halted = false
	arm.instructionCount = 0
	arm.bus.faults.Clear()
	arm.bus.peripherals.Reset()

	logger.Logf(logger.Allow, "arm", "reset: sp=%08x pc=%08x", sp, pc)
}

// Bus exposes the memory system, used by the ELF loader and the debug
// server's memory read/write commands.
func (arm *ARM) Bus() *Bus {
	return arm.bus
}

// Registers exposes the register file directly, used by the debug server's
// register read/write commands.
func (arm *ARM) Registers() *Registers {
	return &arm.registers
}

// Flags returns the current condition flags.
func (arm *ARM) Flags() Flags {
	return arm.flags
}

// XPSR returns the packed combined program status register, used by the
// debug server's register 25.
func (arm *ARM) XPSR() uint32 {
	return arm.xPSR()
}

// SetXPSR installs a combined xPSR value written by a debug client.
func (arm *ARM) SetXPSR(v uint32) {
	arm.setXPSR(v)
}

// Faults returns every fault recorded since the last Reset or Clear.
func (arm *ARM) Faults() []*faults.Entry {
	return arm.bus.faults.Entries()
}

// PendingFault reports (without clearing) the sticky fault flag.
func (arm *ARM) PendingFault() bool {
	return arm.pendingFault
}

// Halted reports whether the core has executed a WFI/WFE with nothing to
// wake it.
func (arm *ARM) Halted() bool {
	return arm.halted
}

// SetBreakpoint / ClearBreakpoint / Breakpoints manage the address-indexed
// breakpoint set consulted at the top of every Step.
func (arm *ARM) SetBreakpoint(addr uint32) {
	arm.breakpoints[addr] = true
}

func (arm *ARM) ClearBreakpoint(addr uint32) {
	delete(arm.breakpoints, addr)
}

func (arm *ARM) ClearAllBreakpoints() {
	arm.breakpoints = make(map[uint32]bool)
}

// SetWatchpoint arms a read and/or write watchpoint at addr, checked by
// every load/store the executor performs.
func (arm *ARM) SetWatchpoint(addr uint32, read, write bool) {
	arm.watchpoints[addr] = watchpoint{read: read, write: write}
}

func (arm *ARM) ClearWatchpoint(addr uint32) {
	delete(arm.watchpoints, addr)
}

func (arm *ARM) checkWatchpoint(addr uint32, isWrite bool) bool {
	w, ok := arm.watchpoints[addr]
	if !ok {
		return false
	}
	if isWrite {
		return w.write
	}
	return w.read
}

// AttachAudio wires an audio sink so that symbol-intercepted "play sample"
// calls (see symbols.go) push PCM frames to it rather than being silently
// skipped.
func (arm *ARM) AttachAudio(sink *AudioSink) {
	arm.audio = sink
}

// LoadSymbols installs the special-symbol intercept table built from the
// loaded ELF, used to fast-path known library calls (eg. init routines, LCD
// helpers and the audio playback entry point) instead of single-stepping through them.
func (arm *ARM) LoadSymbols(entries map[string]uint32) {
	arm.sym.load(entries)
}

// branchTo redirects the fetch/decode/execute cursor, used by every
// instruction that writes PC directly instead of falling through to the
// next sequential instruction.
func (arm *ARM) branchTo(addr uint32) {
	arm.registers.SetInstructionPC(addr &^ 0x1)
	arm.pcWasRedirected = true
}

func (arm *ARM) String() string {
	return fmt.Sprintf("pc=%08x flags=%s it=%02x", arm.registers.InstructionPC(), arm.flags, arm.it.state)
}
