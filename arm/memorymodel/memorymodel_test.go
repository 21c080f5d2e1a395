package memorymodel_test

import (
	"testing"

	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
)

func TestDecodeBanks(t *testing.T) {
	mmap := memorymodel.Default()

	cases := []struct {
		name string
		addr uint32
		bank memorymodel.Bank
	}{
		{"flash alias at reset vector", 0x0000_0000, memorymodel.BankFlash},
		{"flash base", mmap.FlashBase, memorymodel.BankFlash},
		{"flash end is exclusive", mmap.FlashBase + mmap.FlashSize, memorymodel.BankNone},
		{"sram base", mmap.SRAMBase, memorymodel.BankSRAM},
		{"auxiliary sram base", mmap.AuxSRAMBase, memorymodel.BankAuxSRAM},
		{"peripheral window start", mmap.PeripheralBase, memorymodel.BankPeripheral},
		{"peripheral window end is inclusive", mmap.PeripheralTop, memorymodel.BankPeripheral},
		{"unmapped gap", 0x6000_0000, memorymodel.BankNone},
	}

	for _, c := range cases {
		bank, _ := mmap.Decode(c.addr)
		if bank != c.bank {
			t.Errorf("%s: Decode(%#x) bank = %v, want %v", c.name, c.addr, bank, c.bank)
		}
	}
}

func TestDecodeOffsetWithinBank(t *testing.T) {
	mmap := memorymodel.Default()
	bank, offset := mmap.Decode(mmap.SRAMBase + 0x40)
	if bank != memorymodel.BankSRAM || offset != 0x40 {
		t.Fatalf("Decode(SRAMBase+0x40) = (%v, %#x), want (BankSRAM, 0x40)", bank, offset)
	}
}
