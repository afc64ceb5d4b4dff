package blur

import (
	"fmt"

	"go-smooth/pkg/common"
)

// Partition is a half-open range [Lo, Hi) of pixel indices owned by one
// worker.
type Partition struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// Len returns the number of pixels in the range.
func (p Partition) Len() int {
	return p.Hi - p.Lo
}

func (p Partition) String() string {
	return fmt.Sprintf("[%d,%d)", p.Lo, p.Hi)
}

// Split divides [0, total) into n contiguous ranges whose sizes differ by at
// most one. The first total%n ranges take the extra pixel, so 11 pixels over
// 3 workers become 4, 4, 3.
func Split(total, n int) ([]Partition, error) {
	if n <= 0 {
		return nil, fmt.Errorf("split into %d parts: %w", n, common.ErrInvalidWorkers)
	}
	if total < 0 {
		return nil, fmt.Errorf("split %d pixels: %w", total, common.ErrInvalidShape)
	}

	per := total / n
	left := total % n

	parts := make([]Partition, n)
	lo := 0
	for k := range parts {
		size := per
		if k < left {
			size++
		}
		parts[k] = Partition{Lo: lo, Hi: lo + size}
		lo += size
	}
	return parts, nil
}

// Assemble merges a worker's partial result into dst at the byte offset of
// its partition.
func Assemble(dst *common.Image, p Partition, data []byte) error {
	if p.Lo < 0 || p.Hi > dst.Pixels() || p.Lo > p.Hi {
		return fmt.Errorf("partition %s outside %d pixels: %w", p, dst.Pixels(), common.ErrInvalidShape)
	}
	if want := p.Len() * dst.Channels; len(data) != want {
		return fmt.Errorf("partial result for %s has %d bytes, want %d: %w", p, len(data), want, common.ErrInvalidShape)
	}
	copy(dst.Buffer[p.Lo*dst.Channels:], data)
	return nil
}

// FilterRange computes every interior pixel of p into dst, a buffer holding
// exactly p's pixels. Border pixels in the range are left untouched.
func FilterRange(dst []byte, src *common.Image, p Partition, k Kernel) {
	for i := p.Lo; i < p.Hi; i++ {
		if !IsInterior(i, src.Width, src.Height) {
			continue
		}
		o := (i - p.Lo) * common.Channels
		StencilInto(dst[o:o+common.Channels], src.Buffer, src.Width, i, k)
	}
}

// FilterInterior computes interior pixels with ordinals in p (see
// InteriorIndex) directly into the full-size output buffer.
func FilterInterior(dst []byte, src *common.Image, p Partition, k Kernel) {
	for j := p.Lo; j < p.Hi; j++ {
		i := InteriorIndex(j, src.Width)
		o := i * common.Channels
		StencilInto(dst[o:o+common.Channels], src.Buffer, src.Width, i, k)
	}
}
