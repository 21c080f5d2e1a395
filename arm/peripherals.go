package arm

import (
	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
	"github.com/cpmpercussion/comp2300-discoserver/arm/peripherals/rcc"
	"github.com/cpmpercussion/comp2300-discoserver/internal/faults"
)

// device is a single memory-mapped peripheral: it claims a fixed set of
// addresses and is consulted in the order the aggregator was built with.
type device interface {
	Contains(addr uint32) bool
	Read(addr uint32, size uint32) (uint32, error)
	Write(addr uint32, value uint32, size uint32) error
	Reset()
}

// PeripheralSet is the opaque peripheral aggregator the memory bus
// delegates peripheral-window reads and writes to. It owns a fixed list of
// devices and routes each access to whichever one claims the address,
// matching the way the reference board's RCC, GPIO, and audio DAC share a
// single address window.
type PeripheralSet struct {
	devices []device
}

// NewPeripheralSet builds the aggregator for mmap's peripheral window. The
// RCC is always present; additional devices are appended here as they are
// emulated.
func NewPeripheralSet(mmap memorymodel.Map) *PeripheralSet {
	return &PeripheralSet{
		devices: []device{
			rcc.New(mmap),
		},
	}
}

// Reset restores every device to its documented power-on defaults.
func (p *PeripheralSet) Reset() {
	for _, d := range p.devices {
		d.Reset()
	}
}

// Read routes addr to whichever device claims it; an address no device
// claims is an OutOfBounds fault rather than a panic, per the bus's
// imprecise fault model.
func (p *PeripheralSet) Read(addr uint32, size uint32) (uint32, error) {
	for _, d := range p.devices {
		if d.Contains(addr) {
			return d.Read(addr, size)
		}
	}
	return 0, &MemError{Category: faults.OutOfBounds, Addr: addr}
}

// Write routes addr to whichever device claims it.
func (p *PeripheralSet) Write(addr uint32, value uint32, size uint32) error {
	for _, d := range p.devices {
		if d.Contains(addr) {
			return d.Write(addr, value, size)
		}
	}
	return &MemError{Category: faults.OutOfBounds, Addr: addr}
}
