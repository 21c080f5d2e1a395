// Package elfload loads a firmware ELF image into an emulated ARM core:
// copying PT_LOAD segments into the flash bank, priming the reset vector,
// and building the special-symbol intercept table the executor consults
// for BL targets like audio_play_sample. This is "6. External interfaces /
// ELF loader" in the component design.
package elfload

import (
	"debug/elf"
	"fmt"
	"os"

	"github.com/cpmpercussion/comp2300-discoserver/arm"
	"github.com/cpmpercussion/comp2300-discoserver/arm/memorymodel"
)

// Load reads path, copies every PT_LOAD segment whose virtual address lies
// inside mmap's flash bank into the flash bank, installs the ELF's
// exported symbols into core's special-symbol table, and resets core so it
// picks up the initial SP/PC from the vector table the segments just wrote.
func Load(core *arm.ARM, mmap memorymodel.Map, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("elfload: %w", err)
	}
	defer f.Close()

	image, err := elf.NewFile(f)
	if err != nil {
		return fmt.Errorf("elfload: parse %s: %w", path, err)
	}
	defer image.Close()

	if err := loadSegments(core, mmap, image); err != nil {
		return err
	}

	symbols, err := exportedSymbols(image)
	if err != nil {
		return err
	}
	core.LoadSymbols(symbols)

	core.Reset()
	return nil
}

func loadSegments(core *arm.ARM, mmap memorymodel.Map, image *elf.File) error {
	for _, prog := range image.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		// Segments outside the flash bank (SRAM, auxiliary SRAM) are not
		// copied; those banks start zero-filled by the bus's own
		// construction. Only flash needs priming from the file, since it's
		// the only bank the bus won't let firmware write.
		if prog.Vaddr < uint64(mmap.FlashBase) || prog.Vaddr >= uint64(mmap.FlashBase)+uint64(mmap.FlashSize) {
			continue
		}

		offset := uint32(prog.Paddr) - mmap.FlashBase
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return fmt.Errorf("elfload: read segment at %#x: %w", prog.Vaddr, err)
		}
		core.Bus().LoadFlash(offset, data)
	}
	return nil
}

// exportedSymbols returns every named, non-zero-valued symbol in the
// image's symbol table, keyed by name, local symbols included. Unnamed
// symbols and those with a zero value (such as undefined imports) are
// skipped; the special-symbol table only ever
// looks up the fixed allowlist by name anyway.
func exportedSymbols(image *elf.File) (map[string]uint32, error) {
	syms, err := image.Symbols()
	if err != nil && len(syms) == 0 {
		// A stripped or minimal image may carry no symbol table at all;
		// that just means no BL targets get intercepted, not a load failure.
		return map[string]uint32{}, nil
	}

	out := make(map[string]uint32, len(syms))
	for _, sym := range syms {
		if sym.Name == "" || sym.Value == 0 {
			continue
		}
		out[sym.Name] = uint32(sym.Value)
	}
	return out, nil
}
