// Package simd filters several pixels per step using vector lanes.
package simd

import (
	"context"

	"go-smooth/pkg/blur"
	"go-smooth/pkg/common"
)

// planeKernel filters full lane groups of one channel plane starting at
// first and returns the index of the first pixel it did not cover.
type planeKernel func(dst []uint8, plane []int32, offsets *[blur.Taps]int, weights *[blur.Taps]float32, first, end int) int

// The active kernel. Per-architecture init functions replace the fallback
// when the CPU supports a wider target.
var (
	sweepPlane planeKernel = sweepFallback
	lanes                  = fallbackLanes
	kernelName             = "fallback"
)

// Lanes returns how many pixels one vector step covers on this machine.
func Lanes() int { return lanes }

// KernelName names the lane kernel Apply runs.
func KernelName() string { return kernelName }

// Vectorized is single-threaded. It de-interleaves the input into one plane
// per channel so that each tap is a contiguous vector load, and sweeps the
// interior in lane groups.
type Vectorized struct{}

func (Vectorized) Name() string { return "simd" }

func (Vectorized) Apply(_ context.Context, src *common.Image, k blur.Kernel) (*common.Image, error) {
	if err := blur.Check(src, k); err != nil {
		return nil, err
	}
	out := common.NewImageLike(src)
	w, h := src.Width, src.Height
	if blur.InteriorCount(w, h) == 0 {
		return out, nil
	}

	planes := deinterleave(src)
	weights := k.Weights()
	offsets := blur.TapOffsets(w)

	// Linear indices [first, end) hold every interior pixel. Each lane group
	// reads at most end-1+w+1 < w*h, so loads never leave the plane. Border
	// columns swept in between are dropped by interleave.
	first := w + 1
	end := (h-1)*w - 1

	var smooth [common.Channels][]uint8
	x := first
	for c := range smooth {
		smooth[c] = make([]uint8, src.Pixels())
		x = sweepPlane(smooth[c], planes[c], &offsets, &weights, first, end)
	}

	// The last partial lane group goes through the scalar stencil, which
	// applies the same operations in the same order.
	for ; x < end; x++ {
		if !blur.IsInterior(x, w, h) {
			continue
		}
		px := blur.Stencil(src.Buffer, w, x, k)
		for c := range smooth {
			smooth[c][x] = px[c]
		}
	}

	interleave(out, &smooth)
	return out, nil
}

// deinterleave splits RGB triples into three planes, widened to int32 lanes.
func deinterleave(src *common.Image) [common.Channels][]int32 {
	n := src.Pixels()
	var planes [common.Channels][]int32
	for c := range planes {
		planes[c] = make([]int32, n)
	}
	for i := 0; i < n; i++ {
		p := i * common.Channels
		planes[0][i] = int32(src.Buffer[p])
		planes[1][i] = int32(src.Buffer[p+1])
		planes[2][i] = int32(src.Buffer[p+2])
	}
	return planes
}

// interleave copies interior pixels of the three planes into out. Border
// pixels keep their zero value.
func interleave(out *common.Image, smooth *[common.Channels][]uint8) {
	w, h := out.Width, out.Height
	for row := 1; row < h-1; row++ {
		for col := 1; col < w-1; col++ {
			i := row*w + col
			p := i * common.Channels
			out.Buffer[p] = smooth[0][i]
			out.Buffer[p+1] = smooth[1][i]
			out.Buffer[p+2] = smooth[2][i]
		}
	}
}
