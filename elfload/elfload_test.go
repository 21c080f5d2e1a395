package elfload_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmpercussion/comp2300-discoserver/arm"
	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
	"github.com/cpmpercussion/comp2300-discoserver/elfload"
)

// buildMinimalELF assembles, by hand, the smallest ARM32 little-endian ELF
// image debug/elf will accept: a file header, one PT_LOAD program header
// covering payload at vaddr/paddr, and no section headers at all (the
// loader never looks at sections).
func buildMinimalELF(t *testing.T, vaddr uint32, payload []byte) []byte {
	t.Helper()

	const ehdrSize = 52
	const phdrSize = 32
	phoff := uint32(ehdrSize)
	dataOff := phoff + phdrSize

	buf := make([]byte, int(dataOff)+len(payload))

	// e_ident
	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 1 // ELFCLASS32
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT

	le := binary.LittleEndian
	le.PutUint16(buf[16:], 2)  // e_type: ET_EXEC
	le.PutUint16(buf[18:], 40) // e_machine: EM_ARM
	le.PutUint32(buf[20:], 1)  // e_version
	le.PutUint32(buf[24:], vaddr) // e_entry
	le.PutUint32(buf[28:], phoff) // e_phoff
	le.PutUint32(buf[32:], 0)     // e_shoff
	le.PutUint32(buf[36:], 0)     // e_flags
	le.PutUint16(buf[40:], ehdrSize)
	le.PutUint16(buf[42:], phdrSize)
	le.PutUint16(buf[44:], 1) // e_phnum
	le.PutUint16(buf[46:], 0) // e_shentsize
	le.PutUint16(buf[48:], 0) // e_shnum
	le.PutUint16(buf[50:], 0) // e_shstrndx

	ph := buf[phoff:]
	le.PutUint32(ph[0:], 1)               // p_type: PT_LOAD
	le.PutUint32(ph[4:], dataOff)         // p_offset
	le.PutUint32(ph[8:], vaddr)           // p_vaddr
	le.PutUint32(ph[12:], vaddr)          // p_paddr
	le.PutUint32(ph[16:], uint32(len(payload))) // p_filesz
	le.PutUint32(ph[20:], uint32(len(payload))) // p_memsz
	le.PutUint32(ph[24:], 5)              // p_flags: R|X
	le.PutUint32(ph[28:], 4)              // p_align

	copy(buf[dataOff:], payload)
	return buf
}

func TestLoadPrimesResetVectorFromFlash(t *testing.T) {
	mmap := memorymodel.Default()

	sp := mmap.SRAMBase + 0x4000
	pc := mmap.FlashBase + 8
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:], sp)
	binary.LittleEndian.PutUint32(payload[4:], pc)
	binary.LittleEndian.PutUint16(payload[8:], 0x2042) // MOVS r0, #0x42

	image := buildMinimalELF(t, mmap.FlashBase, payload)
	path := filepath.Join(t.TempDir(), "fw.elf")
	if err := os.WriteFile(path, image, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	core := arm.New(mmap, arm.NewPeripheralSet(mmap))
	if err := elfload.Load(core, mmap, path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := core.Registers().Get(13); got != sp {
		t.Fatalf("sp after load = %#x, want %#x", got, sp)
	}
	if got := core.Registers().InstructionPC(); got != pc {
		t.Fatalf("pc after load = %#x, want %#x", got, pc)
	}

	if reason := core.Step(); reason != arm.YieldNone {
		t.Fatalf("Step() = %v, want YieldNone", reason)
	}
	if got := core.Registers().Get(0); got != 0x42 {
		t.Fatalf("r0 after stepping the loaded instruction = %#x, want 0x42", got)
	}
}

func TestLoadSkipsSegmentsOutsideFlash(t *testing.T) {
	mmap := memorymodel.Default()
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:], mmap.SRAMBase+0x100)
	binary.LittleEndian.PutUint32(payload[4:], mmap.FlashBase+8)

	// a segment targeting SRAM, above the end of the flash bank, should be
	// skipped by the loader rather than attempted against the flash bank.
	image := buildMinimalELF(t, mmap.SRAMBase, payload)
	path := filepath.Join(t.TempDir(), "fw.elf")
	if err := os.WriteFile(path, image, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	core := arm.New(mmap, arm.NewPeripheralSet(mmap))
	if err := elfload.Load(core, mmap, path); err != nil {
		t.Fatalf("Load should tolerate a segment outside flash, got: %v", err)
	}
}
