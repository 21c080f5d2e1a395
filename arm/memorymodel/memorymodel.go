// Package memorymodel describes the fixed physical address map of the
// emulated board: where flash, SRAM, the auxiliary SRAM bank, and the
// peripheral window live, and how to classify an arbitrary address against
// them. It mirrors the STM32F4-class "discovery board" memory map that the
// reference firmware in this project targets.
package memorymodel

// Map is the address layout of one emulated board. A single Map value is
// shared (read-only after construction) by the memory bus and the ELF
// loader.
type Map struct {
	// Flash is read-only program memory. It is also aliased at address 0,
	// matching the BOOT0-low alias used by real Cortex-M parts so that the
	// reset vector can always be fetched from address 0.
	FlashBase uint32
	FlashSize uint32

	// FlashAliasBase is the boot alias of flash at address 0.
	FlashAliasBase uint32

	// SRAM is general purpose read/write memory.
	SRAMBase uint32
	SRAMSize uint32

	// AuxSRAMBase is a second, smaller SRAM bank (akin to CCM RAM) that some
	// firmware uses for time-critical data.
	AuxSRAMBase uint32
	AuxSRAMSize uint32

	// PeripheralBase/PeripheralTop bound the memory-mapped peripheral
	// window; reads and writes in this range are delegated to the
	// peripheral aggregator rather than handled directly by the bus.
	PeripheralBase uint32
	PeripheralTop  uint32

	// RCC register addresses, within the peripheral window. The layout
	// mirrors the reset-and-clock-control block of an STM32F4-class part:
	// CR holds the "turn the PLL on" bit and the "PLL is locked" bit it
	// feeds back into; CFGR selects the system clock source; AHB1ENR and
	// APB1ENR gate clocks to the GPIO and peripheral buses.
	RCCBase   uint32
	RCCCR     uint32
	RCCCFGR   uint32
	RCCAHB1ENR uint32
	RCCAPB1ENR uint32
}

// Default returns the address map used by the reference board: 1 MiB of
// flash at 0x0800_0000 (also visible at 0x0000_0000), 96 KiB of SRAM at
// 0x2000_0000, a 32 KiB auxiliary SRAM bank at 0x1000_0000, and the
// peripheral window spanning 0x4000_0000-0x5FFF_FFFF.
func Default() Map {
	return Map{
		FlashBase:      0x0800_0000,
		FlashSize:      1024 * 1024,
		FlashAliasBase: 0x0000_0000,

		SRAMBase: 0x2000_0000,
		SRAMSize: 96 * 1024,

		AuxSRAMBase: 0x1000_0000,
		AuxSRAMSize: 32 * 1024,

		PeripheralBase: 0x4000_0000,
		PeripheralTop:  0x5FFF_FFFF,

		RCCBase:    0x4002_3800,
		RCCCR:      0x4002_3800,
		RCCCFGR:    0x4002_3808,
		RCCAHB1ENR: 0x4002_3830,
		RCCAPB1ENR: 0x4002_3840,
	}
}

// Bank identifies which physical memory region an address decodes to.
type Bank int

const (
	BankNone Bank = iota
	BankFlash
	BankSRAM
	BankAuxSRAM
	BankPeripheral
)

// Decode classifies addr against the map, returning the bank and the offset
// of addr within that bank's backing array (meaningless for BankPeripheral,
// where the original address is passed through unchanged to the
// peripheral aggregator).
func (m Map) Decode(addr uint32) (bank Bank, offset uint32) {
	if addr >= m.FlashAliasBase && addr < m.FlashAliasBase+m.FlashSize && m.FlashAliasBase != m.FlashBase {
		return BankFlash, addr - m.FlashAliasBase
	}
	if addr >= m.FlashBase && addr < m.FlashBase+m.FlashSize {
		return BankFlash, addr - m.FlashBase
	}
	if addr >= m.SRAMBase && addr < m.SRAMBase+m.SRAMSize {
		return BankSRAM, addr - m.SRAMBase
	}
	if addr >= m.AuxSRAMBase && addr < m.AuxSRAMBase+m.AuxSRAMSize {
		return BankAuxSRAM, addr - m.AuxSRAMBase
	}
	if addr >= m.PeripheralBase && addr <= m.PeripheralTop {
		return BankPeripheral, addr
	}
	return BankNone, 0
}
