package arm

import "github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"

const ramPageSize = 4096

// ICache is a program-counter-keyed store of decoded intermediate
// operations, partitioned into a flash bank and a RAM bank: RAM entries are
// invalidated whenever code memory is overwritten, while flash entries stay
// until Clear. ARM.Reset calls Clear, so a reset drops the flash entries as
// well. Addresses outside of flash or RAM
// (the auxiliary SRAM bank, peripherals) are never cached; every fetch from
// such a region is decoded fresh.
type ICache struct {
	mmap  memorymodel.Map
	flash map[uint32]Op
	ram   map[uint32]Op

	// ramPages is a coarse per-page dirty bitmap: one bit set means every
	// cache entry in that RAM page has already been evicted, so a repeat
	// write to the same page is a cheap no-op.
	ramPages map[uint32]bool
}

func newICache(mmap memorymodel.Map) *ICache {
	return &ICache{
		mmap:     mmap,
		flash:    make(map[uint32]Op),
		ram:      make(map[uint32]Op),
		ramPages: make(map[uint32]bool),
	}
}

// Get returns the cached operation at pc, or the miss sentinel (Cached ==
// false) if none is installed.
func (c *ICache) Get(pc uint32) Op {
	bank, _ := c.mmap.Decode(pc)
	switch bank {
	case memorymodel.BankFlash:
		if op, ok := c.flash[pc]; ok {
			return op
		}
	case memorymodel.BankSRAM:
		if op, ok := c.ram[pc]; ok {
			return op
		}
	}
	return missOp
}

// PutNarrow installs a 16-bit-source decode result.
func (c *ICache) PutNarrow(pc uint32, op Op) {
	c.put(pc, op)
}

// PutWide installs a 32-bit-source decode result.
func (c *ICache) PutWide(pc uint32, op Op) {
	c.put(pc, op)
}

func (c *ICache) put(pc uint32, op Op) {
	op.Cached = true
	bank, _ := c.mmap.Decode(pc)
	switch bank {
	case memorymodel.BankFlash:
		c.flash[pc] = op
	case memorymodel.BankSRAM:
		c.ram[pc] = op
		delete(c.ramPages, pc/ramPageSize)
	}
}

// InvalidateWrite is called by the memory bus whenever a write lands in a
// code-bearing region. Flash is read-only at runtime so only RAM entries
// can ever be invalidated this way; the whole containing page is dropped,
// which is coarser than necessary but sufficient (RAM-resident code is rare
// on this class of microcontroller).
func (c *ICache) InvalidateWrite(addr uint32) {
	bank, _ := c.mmap.Decode(addr)
	if bank != memorymodel.BankSRAM {
		return
	}
	page := addr / ramPageSize
	if c.ramPages[page] {
		return
	}
	for a := range c.ram {
		if a/ramPageSize == page {
			delete(c.ram, a)
		}
	}
	c.ramPages[page] = true
}

// Clear invalidates every entry in both banks, used on program reload.
func (c *ICache) Clear() {
	c.flash = make(map[uint32]Op)
	c.ram = make(map[uint32]Op)
	c.ramPages = make(map[uint32]bool)
}
