package blur

import (
	"fmt"
	"math"

	"go-smooth/pkg/common"
)

// Size is the fixed kernel edge length.
const Size = 3

// Taps is the number of stencil taps per pixel.
const Taps = Size * Size

const (
	// MaxValue is the largest value an output channel can hold.
	MaxValue = 255
	// RoundBias turns truncation of a clamped, non-negative sum into
	// round-half-up.
	RoundBias = 0.5
)

// Kernel is a 3x3 weight matrix indexed [dr+1][dc+1].
type Kernel [Size][Size]float32

// BoxKernel returns the normalized box filter, every weight 1/9.
func BoxKernel() Kernel {
	var k Kernel
	w := float32(1.0 / 9)
	for i := range k {
		for j := range k[i] {
			k[i][j] = w
		}
	}
	return k
}

// Validate rejects kernels with NaN or infinite weights.
func (k Kernel) Validate() error {
	for i := range k {
		for j := range k[i] {
			w := float64(k[i][j])
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("weight [%d][%d] is %v: %w", i, j, w, common.ErrInvalidKernel)
			}
		}
	}
	return nil
}

// Sum returns the total of all weights.
func (k Kernel) Sum() float32 {
	var s float32
	for i := range k {
		for j := range k[i] {
			s += k[i][j]
		}
	}
	return s
}

// Weights flattens the kernel in tap order: dr outer, dc inner.
func (k Kernel) Weights() [Taps]float32 {
	var w [Taps]float32
	for i := range k {
		for j := range k[i] {
			w[i*Size+j] = k[i][j]
		}
	}
	return w
}

// TapOffsets returns the linear-index offset of each tap, in the same order
// as Weights.
func TapOffsets(width int) [Taps]int {
	var off [Taps]int
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			off[(dr+1)*Size+(dc+1)] = dr*width + dc
		}
	}
	return off
}

// IsInterior reports whether pixel i has its whole 3x3 neighborhood inside
// the image.
func IsInterior(i, width, height int) bool {
	row, col := i/width, i%width
	return row >= 1 && row <= height-2 && col >= 1 && col <= width-2
}

// InteriorCount is the number of interior pixels, zero for images thinner
// than three pixels in either direction.
func InteriorCount(width, height int) int {
	if width < Size || height < Size {
		return 0
	}
	return (width - 2) * (height - 2)
}

// InteriorIndex maps the j-th interior pixel, counted row-major, to its
// linear index.
func InteriorIndex(j, width int) int {
	inner := width - 2
	return (1+j/inner)*width + 1 + j%inner
}

// Accumulate adds one weighted tap to a running sum. The explicit float32
// conversion of the product keeps the compiler from fusing it into an FMA,
// so scalar and vector lanes round identically.
func Accumulate(acc float32, v byte, w float32) float32 {
	return acc + float32(float32(v)*w)
}

// Quantize clamps a channel sum to the output range and rounds half up.
func Quantize(acc float32) uint8 {
	if acc < 0 {
		acc = 0
	}
	if acc > MaxValue {
		acc = MaxValue
	}
	return uint8(int32(acc + RoundBias))
}

// Stencil filters interior pixel i of an interleaved RGB buffer.
func Stencil(src []byte, width, i int, k Kernel) [common.Channels]uint8 {
	var out [common.Channels]uint8
	StencilInto(out[:], src, width, i, k)
	return out
}

// StencilInto writes the filtered RGB triple of interior pixel i into dst[0:3].
// Callers must only pass interior indices.
func StencilInto(dst, src []byte, width, i int, k Kernel) {
	w := k.Weights()
	off := TapOffsets(width)
	var r, g, b float32
	for t := 0; t < Taps; t++ {
		p := (i + off[t]) * common.Channels
		r = Accumulate(r, src[p], w[t])
		g = Accumulate(g, src[p+1], w[t])
		b = Accumulate(b, src[p+2], w[t])
	}
	dst[0] = Quantize(r)
	dst[1] = Quantize(g)
	dst[2] = Quantize(b)
}
