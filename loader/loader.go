// Package loader provides program loading for the x86 emulator: raw boot
// images and 32-bit x86 ELF executables.
package loader

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultOrg is the load address for raw boot images, matching the BIOS
// boot-sector convention.
const DefaultOrg = 0x7C00

// DefaultStackSize is the stack headroom reserved above the highest
// loaded segment for ELF programs (64 KiB).
const DefaultStackSize = 64 * 1024

// Segment represents a loadable region of the program image.
type Segment struct {
	// VirtAddr is the address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may exceed len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program ready for execution.
type Program struct {
	// EntryPoint is the address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments.
	Segments []Segment
	// InitialESP is the initial stack pointer value.
	InitialESP uint32
}

// MemSize returns the smallest memory image size that holds every
// segment and the initial stack.
func (p *Program) MemSize() uint32 {
	var top uint32
	for _, seg := range p.Segments {
		end := seg.VirtAddr + seg.MemSize
		if end > top {
			top = end
		}
	}
	if p.InitialESP > top {
		top = p.InitialESP
	}
	return top
}
