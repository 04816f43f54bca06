package loader

import (
	"debug/elf"
	"fmt"
	"io"
)

// LoadELF parses a 32-bit x86 ELF binary and returns a Program ready for
// loading into the emulator's memory. The initial stack is placed above
// the highest loaded segment.
func LoadELF(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}
	if f.Machine != elf.EM_386 {
		return nil, fmt.Errorf("not an x86 ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
	}

	var top uint32
	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		seg := Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		}
		prog.Segments = append(prog.Segments, seg)

		if end := seg.VirtAddr + seg.MemSize; end > top {
			top = end
		}
	}

	if len(prog.Segments) == 0 {
		return nil, fmt.Errorf("no loadable segments in %s", path)
	}

	// Stack above the image, 16-byte aligned.
	prog.InitialESP = (top + DefaultStackSize) &^ 0xF

	return prog, nil
}
