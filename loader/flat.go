package loader

import (
	"fmt"
	"os"
)

// LoadFlat reads a raw binary image and prepares it for execution at the
// given origin. The entry point is the origin itself and ESP starts at
// the origin, growing down below the code, per the boot-image convention.
func LoadFlat(path string, org uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image: %s", path)
	}

	return &Program{
		EntryPoint: org,
		InitialESP: org,
		Segments: []Segment{
			{
				VirtAddr: org,
				Data:     data,
				MemSize:  uint32(len(data)),
				Flags:    SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
			},
		},
	}, nil
}
