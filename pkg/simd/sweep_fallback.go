package simd

import "go-smooth/pkg/blur"

// fallbackLanes matches the 16-byte vector width the portable build assumes.
const fallbackLanes = 4

// sweepFallback runs the lane sweep on fixed-size arrays. The compiler keeps
// them on the stack, so a sweep allocates nothing.
func sweepFallback(dst []uint8, plane []int32, offsets *[blur.Taps]int, weights *[blur.Taps]float32, first, end int) int {
	x := first
	for ; x+fallbackLanes <= end; x += fallbackLanes {
		var acc [fallbackLanes]float32
		for t := 0; t < blur.Taps; t++ {
			p := x + offsets[t]
			src := plane[p : p+fallbackLanes]
			w := weights[t]
			for l := range acc {
				acc[l] = acc[l] + float32(float32(src[l])*w)
			}
		}
		for l, a := range acc {
			dst[x+l] = blur.Quantize(a)
		}
	}
	return x
}
