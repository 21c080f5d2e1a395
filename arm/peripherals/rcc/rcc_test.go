package rcc_test

import (
	"testing"

	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
	"github.com/cpmpercussion/comp2300-discoserver/arm/peripherals/rcc"
)

func TestResetDefaults(t *testing.T) {
	mmap := memorymodel.Default()
	r := rcc.New(mmap)

	cr, err := r.Read(mmap.RCCCR, 4)
	if err != nil {
		t.Fatalf("Read(CR): %v", err)
	}
	const hsionHsirdy = 1<<0 | 1<<1
	if cr != hsionHsirdy {
		t.Fatalf("reset CR = %#x, want HSION|HSIRDY = %#x", cr, uint32(hsionHsirdy))
	}
}

func TestPLLOnMirrorsIntoPLLRDY(t *testing.T) {
	mmap := memorymodel.Default()
	r := rcc.New(mmap)

	const pllon = 1 << 24
	const pllrdy = 1 << 25

	if err := r.Write(mmap.RCCCR, pllon, 4); err != nil {
		t.Fatalf("Write(CR, PLLON): %v", err)
	}
	cr, _ := r.Read(mmap.RCCCR, 4)
	if cr&pllrdy == 0 {
		t.Fatalf("CR = %#x, want PLLRDY set once PLLON is written", cr)
	}

	if err := r.Write(mmap.RCCCR, 0, 4); err != nil {
		t.Fatalf("Write(CR, 0): %v", err)
	}
	cr, _ = r.Read(mmap.RCCCR, 4)
	if cr&pllrdy != 0 {
		t.Fatalf("CR = %#x, want PLLRDY cleared once PLLON is cleared", cr)
	}
}

func TestContainsOnlyItsOwnRegisters(t *testing.T) {
	mmap := memorymodel.Default()
	r := rcc.New(mmap)

	if !r.Contains(mmap.RCCAHB1ENR) {
		t.Fatalf("RCC should claim its own AHB1ENR address")
	}
	if r.Contains(mmap.RCCAHB1ENR + 0x1000) {
		t.Fatalf("RCC should not claim an address well outside its register block")
	}
}

func TestResetRestoresAfterWrites(t *testing.T) {
	mmap := memorymodel.Default()
	r := rcc.New(mmap)

	r.Write(mmap.RCCCFGR, 0xdead_beef, 4)
	r.Reset()

	cfgr, _ := r.Read(mmap.RCCCFGR, 4)
	if cfgr != 0 {
		t.Fatalf("CFGR after Reset = %#x, want 0", cfgr)
	}
}
