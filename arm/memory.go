package arm

import (
	"encoding/binary"

	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
	"github.com/cpmpercussion/comp2300-discoserver/internal/bits"
	"github.com/cpmpercussion/comp2300-discoserver/internal/faults"
)

// MemError is returned by every bus access that fails. It always also
// records itself into the bus's fault log; setting the sticky pending-fault
// bit is left to the executor that sees the error. Callers in the executor generally only need to check
// for a non-nil error to know that execution should move on without
// completing the instruction's effect.
type MemError struct {
	Category faults.Category
	Addr     uint32
}

func (e *MemError) Error() string {
	return string(e.Category)
}

// Peripherals is the external collaborator the bus delegates reads and
// writes in the peripheral window to. Implementations are expected to
// decode addr themselves (eg. against a register map) and report
// unimplemented registers as a MemError rather than panicking.
type Peripherals interface {
	Read(addr uint32, size uint32) (uint32, error)
	Write(addr uint32, value uint32, size uint32) error
	Reset()
}

// Bus is the memory system: flash, SRAM, auxiliary SRAM and the peripheral
// window, wired together with the fault reporting and RAM-write cache
// invalidation described in the component design.
type Bus struct {
	mmap memorymodel.Map

	flash   []byte // read-only at runtime
	sram    []byte
	auxsram []byte

	peripherals Peripherals

	ccr struct {
		unalignTrap bool
	}

	icache *ICache
	faults *faults.Log

	// instructionPCForFault lets bus errors attribute a fault to the
	// currently executing instruction without the bus needing a back
	// reference to the whole ARM state.
	instructionPCForFault func() uint32
}

func newBus(mmap memorymodel.Map, peripherals Peripherals, icache *ICache, instrPC func() uint32) *Bus {
	return &Bus{
		mmap:                  mmap,
		flash:                 make([]byte, mmap.FlashSize),
		sram:                  make([]byte, mmap.SRAMSize),
		auxsram:               make([]byte, mmap.AuxSRAMSize),
		peripherals:           peripherals,
		icache:                icache,
		faults:                faults.NewLog(),
		instructionPCForFault: instrPC,
	}
}

// SetUnalignTrap toggles CCR.UNALIGN_TRP: when set, misaligned accesses
// that would otherwise be silently assembled byte-by-byte instead fault.
func (b *Bus) SetUnalignTrap(on bool) {
	b.ccr.unalignTrap = on
}

func (b *Bus) fault(category faults.Category, event string, addr uint32) *MemError {
	var pc uint32
	if b.instructionPCForFault != nil {
		pc = b.instructionPCForFault()
	}
	b.faults.Record(category, event, pc, addr)
	return &MemError{Category: category, Addr: addr}
}

// backing returns the byte slice for bank and true, or nil and false if
// bank is the peripheral window or unmapped.
func (b *Bus) backing(bank memorymodel.Bank) ([]byte, bool) {
	switch bank {
	case memorymodel.BankFlash:
		return b.flash, true
	case memorymodel.BankSRAM:
		return b.sram, true
	case memorymodel.BankAuxSRAM:
		return b.auxsram, true
	}
	return nil, false
}

// ReadAligned reads size (1, 2 or 4) bytes from addr, which must already be
// aligned to size.
func (b *Bus) ReadAligned(addr uint32, size uint32) (uint32, *MemError) {
	if addr != bits.Align(addr, size) {
		return 0, b.fault(faults.Unaligned, "read", addr)
	}
	return b.readRaw(addr, size)
}

// ReadUnaligned reads size bytes from addr, delegating to ReadAligned when
// addr happens to already be aligned, otherwise assembling the value from
// individual byte reads unless the unaligned-access trap is armed.
func (b *Bus) ReadUnaligned(addr uint32, size uint32) (uint32, *MemError) {
	if addr == bits.Align(addr, size) {
		return b.readRaw(addr, size)
	}
	if b.ccr.unalignTrap {
		return 0, b.fault(faults.Unaligned, "read", addr)
	}
	var v uint32
	for i := uint32(0); i < size; i++ {
		byteVal, err := b.readRaw(addr+i, 1)
		if err != nil {
			return 0, err
		}
		v |= byteVal << (8 * i)
	}
	return v, nil
}

func (b *Bus) readRaw(addr uint32, size uint32) (uint32, *MemError) {
	bank, offset := b.mmap.Decode(addr)
	if bank == memorymodel.BankPeripheral {
		v, err := b.peripherals.Read(addr, size)
		if err != nil {
			return 0, b.fault(faults.Unimplemented, "peripheral read", addr)
		}
		return v, nil
	}
	mem, ok := b.backing(bank)
	if !ok {
		return 0, b.fault(faults.OutOfBounds, "read", addr)
	}
	if offset+size > uint32(len(mem)) {
		return 0, b.fault(faults.OutOfBounds, "read", addr)
	}
	switch size {
	case 1:
		return uint32(mem[offset]), nil
	case 2:
		return uint32(binary.LittleEndian.Uint16(mem[offset:])), nil
	case 4:
		return binary.LittleEndian.Uint32(mem[offset:]), nil
	}
	return 0, b.fault(faults.OutOfBounds, "read", addr)
}

// WriteAligned writes size bytes of val to addr, which must already be
// aligned to size.
func (b *Bus) WriteAligned(addr uint32, val uint32, size uint32) *MemError {
	if addr != bits.Align(addr, size) {
		return b.fault(faults.Unaligned, "write", addr)
	}
	return b.writeRaw(addr, val, size)
}

// WriteUnaligned mirrors ReadUnaligned for stores.
func (b *Bus) WriteUnaligned(addr uint32, val uint32, size uint32) *MemError {
	if addr == bits.Align(addr, size) {
		return b.writeRaw(addr, val, size)
	}
	if b.ccr.unalignTrap {
		return b.fault(faults.Unaligned, "write", addr)
	}
	for i := uint32(0); i < size; i++ {
		if err := b.writeRaw(addr+i, (val>>(8*i))&0xff, 1); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) writeRaw(addr uint32, val uint32, size uint32) *MemError {
	bank, offset := b.mmap.Decode(addr)
	if bank == memorymodel.BankPeripheral {
		if err := b.peripherals.Write(addr, val, size); err != nil {
			return b.fault(faults.Unimplemented, "peripheral write", addr)
		}
		return nil
	}
	if bank == memorymodel.BankFlash {
		return b.fault(faults.ReadOnly, "write", addr)
	}
	mem, ok := b.backing(bank)
	if !ok {
		return b.fault(faults.OutOfBounds, "write", addr)
	}
	if offset+size > uint32(len(mem)) {
		return b.fault(faults.OutOfBounds, "write", addr)
	}
	switch size {
	case 1:
		mem[offset] = byte(val)
	case 2:
		binary.LittleEndian.PutUint16(mem[offset:], uint16(val))
	case 4:
		binary.LittleEndian.PutUint32(mem[offset:], val)
	}
	if bank == memorymodel.BankSRAM && b.icache != nil {
		b.icache.InvalidateWrite(addr)
	}
	return nil
}

// FetchInstrWord reads the 32-bit value at addr composed of the two
// halfwords at addr and addr+2 in architectural instruction order (low
// halfword first); the decoder uses only the halfwords it needs depending
// on instruction width.
func (b *Bus) FetchInstrWord(addr uint32) (uint32, *MemError) {
	lo, err := b.readRaw(addr&^0x1, 2)
	if err != nil {
		return 0, err
	}
	hi, err := b.readRaw((addr&^0x1)+2, 2)
	if err != nil {
		// a dangling halfword at the very end of a region still lets the
		// caller use the low halfword for a narrow instruction
		return lo, nil
	}
	return lo | hi<<16, nil
}

// ReadBytes reads an arbitrary byte range for the debug server. Out-of-range
// reads return zeroed padding rather than an error, matching the exposed
// debug interface's contract.
func (b *Bus) ReadBytes(addr uint32, length int) []byte {
	out := make([]byte, length)
	for i := 0; i < length; i++ {
		v, err := b.readRaw(addr+uint32(i), 1)
		if err == nil {
			out[i] = byte(v)
		}
	}
	return out
}

// WriteBytes writes an arbitrary byte range for the debug server, best
// effort: addresses that fault are skipped rather than aborting the whole
// write.
func (b *Bus) WriteBytes(addr uint32, data []byte) {
	for i, v := range data {
		b.writeRaw(addr+uint32(i), uint32(v), 1)
	}
}

// LoadFlash copies program data into the flash bank, used by the ELF loader.
func (b *Bus) LoadFlash(offset uint32, data []byte) {
	copy(b.flash[offset:], data)
}

// ReadWord32 reads the aligned 32-bit word containing addr, returning 0 if
// the read fails (the failure is still recorded in the fault log); used internally for the vector table and the hard-fault redirect.
func (b *Bus) ReadWord32(addr uint32) uint32 {
	v, _ := b.readRaw(bits.Align(addr, 4), 4)
	return v
}
