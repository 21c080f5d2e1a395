package arm

import (
	"testing"

	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
	"github.com/cpmpercussion/comp2300-discoserver/arm/opcode"
)

func TestICacheMissThenHit(t *testing.T) {
	c := newICache(memorymodel.Default())
	pc := memorymodel.Default().FlashBase
	if op := c.Get(pc); op.Cached {
		t.Fatalf("expected a cache miss before anything is installed")
	}
	c.PutNarrow(pc, Op{Opcode: opcode.MovImm, Rd: 0, Imm: 1})
	hit := c.Get(pc)
	if !hit.Cached || hit.Opcode != opcode.MovImm {
		t.Fatalf("expected a cache hit with the installed op, got %+v", hit)
	}
}

func TestICacheInvalidatesOnlyItsOwnPage(t *testing.T) {
	mmap := memorymodel.Default()
	c := newICache(mmap)
	a := mmap.SRAMBase
	b := mmap.SRAMBase + ramPageSize // a different page

	c.PutNarrow(a, Op{Opcode: opcode.MovImm})
	c.PutNarrow(b, Op{Opcode: opcode.MovImm})

	c.InvalidateWrite(a)

	if op := c.Get(a); op.Cached {
		t.Fatalf("page containing %#x should have been invalidated", a)
	}
	if op := c.Get(b); !op.Cached {
		t.Fatalf("page containing %#x should be untouched", b)
	}
}

func TestICacheFlashEntriesSurviveUntilClear(t *testing.T) {
	mmap := memorymodel.Default()
	c := newICache(mmap)
	pc := mmap.FlashBase
	c.PutNarrow(pc, Op{Opcode: opcode.MovImm})

	// writes to SRAM never touch flash-bank entries
	c.InvalidateWrite(mmap.SRAMBase)
	if op := c.Get(pc); !op.Cached {
		t.Fatalf("flash entry should be unaffected by an SRAM write")
	}

	c.Clear()
	if op := c.Get(pc); op.Cached {
		t.Fatalf("Clear should drop flash entries too")
	}
}
