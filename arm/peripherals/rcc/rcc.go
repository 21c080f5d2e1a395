// Package rcc emulates the reset-and-clock-control block of an
// STM32F4-class part: the canonical peripheral the component design calls
// out as representative of the whole peripheral aggregator pattern.
package rcc

import (
	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
)

// bit positions within CR that this sketch of the RCC actually tracks.
const (
	crPLLON   = 1 << 24
	crPLLRDY  = 1 << 25
	crHSEON   = 1 << 16
	crHSERDY  = 1 << 17
	crHSION   = 1 << 0
	crHSIRDY  = 1 << 1
)

// resetCR is the documented power-on value of CR: HSI is on and ready, HSE
// and the PLL are off.
const resetCR = crHSION | crHSIRDY

// resetAHB1ENR is the documented power-on value of AHB1ENR: the port the
// boot ROM itself runs from is already clocked.
const resetAHB1ENR = 0x0000_0100

// RCC implements the reset-and-clock-control device. Turning a clock
// source's "ON" bit on in CR immediately mirrors into the matching "RDY"
// bit, since this emulator has no notion of clock-settling time; CFGR,
// AHB1ENR and APB1ENR are plain read/write registers with no side effects
// beyond holding whatever was last written.
type RCC struct {
	mmap memorymodel.Map

	cr      uint32
	cfgr    uint32
	ahb1enr uint32
	apb1enr uint32
}

// New constructs an RCC wired to mmap's register addresses.
func New(mmap memorymodel.Map) *RCC {
	r := &RCC{mmap: mmap}
	r.Reset()
	return r
}

// Reset restores the documented power-on defaults.
func (r *RCC) Reset() {
	r.cr = resetCR
	r.cfgr = 0
	r.ahb1enr = resetAHB1ENR
	r.apb1enr = 0
}

func (r *RCC) Read(addr uint32, size uint32) (uint32, error) {
	switch addr {
	case r.mmap.RCCCR:
		return r.cr, nil
	case r.mmap.RCCCFGR:
		return r.cfgr, nil
	case r.mmap.RCCAHB1ENR:
		return r.ahb1enr, nil
	case r.mmap.RCCAPB1ENR:
		return r.apb1enr, nil
	}
	return 0, nil // unreachable: aggregator only routes known addresses here
}

func (r *RCC) Write(addr uint32, value uint32, size uint32) error {
	switch addr {
	case r.mmap.RCCCR:
		r.cr = value
		// writing a source's ON bit is immediately reflected in its RDY bit;
		// clearing ON clears RDY too, since nothing keeps an unpowered
		// source "ready".
		if r.cr&crPLLON != 0 {
			r.cr |= crPLLRDY
		} else {
			r.cr &^= crPLLRDY
		}
		if r.cr&crHSEON != 0 {
			r.cr |= crHSERDY
		} else {
			r.cr &^= crHSERDY
		}
		if r.cr&crHSION != 0 {
			r.cr |= crHSIRDY
		} else {
			r.cr &^= crHSIRDY
		}
	case r.mmap.RCCCFGR:
		r.cfgr = value
	case r.mmap.RCCAHB1ENR:
		r.ahb1enr = value
	case r.mmap.RCCAPB1ENR:
		r.apb1enr = value
	}
	return nil
}

// Contains reports whether addr falls within the RCC's register block,
// used by the peripheral aggregator to route a peripheral-window access.
func (r *RCC) Contains(addr uint32) bool {
	switch addr {
	case r.mmap.RCCCR, r.mmap.RCCCFGR, r.mmap.RCCAHB1ENR, r.mmap.RCCAPB1ENR:
		return true
	}
	return false
}
