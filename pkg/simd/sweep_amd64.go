//go:build amd64 && goexperiment.simd

package simd

import (
	"simd/archsimd"

	"github.com/ajroetker/go-highway/hwy"

	"go-smooth/pkg/blur"
)

func init() {
	// hwy has already probed the CPU and honours HWY_NO_SIMD.
	switch hwy.CurrentLevel() {
	case hwy.DispatchAVX512:
		sweepPlane, lanes, kernelName = sweepAVX512, 16, "avx512"
	case hwy.DispatchAVX2:
		sweepPlane, lanes, kernelName = sweepAVX2, 8, "avx2"
	}
}

// sweepAVX2 keeps Mul and Add as separate instructions so every lane rounds
// exactly like blur.Accumulate. VCVTTPS2DQ truncates, matching Quantize.
func sweepAVX2(dst []uint8, plane []int32, offsets *[blur.Taps]int, weights *[blur.Taps]float32, first, end int) int {
	var wv [blur.Taps]archsimd.Float32x8
	for t := range wv {
		wv[t] = archsimd.BroadcastFloat32x8(weights[t])
	}
	zero := archsimd.BroadcastFloat32x8(0)
	top := archsimd.BroadcastFloat32x8(blur.MaxValue)
	bias := archsimd.BroadcastFloat32x8(blur.RoundBias)
	var packed [8]int32

	x := first
	for ; x+8 <= end; x += 8 {
		acc := zero
		for t := 0; t < blur.Taps; t++ {
			v := archsimd.LoadInt32x8Slice(plane[x+offsets[t]:]).ConvertToFloat32()
			acc = acc.Add(v.Mul(wv[t]))
		}
		acc.Max(zero).Min(top).Add(bias).ConvertToInt32().StoreSlice(packed[:])

		row := dst[x : x+8]
		for l, q := range packed {
			row[l] = uint8(q)
		}
	}
	return x
}

func sweepAVX512(dst []uint8, plane []int32, offsets *[blur.Taps]int, weights *[blur.Taps]float32, first, end int) int {
	var wv [blur.Taps]archsimd.Float32x16
	for t := range wv {
		wv[t] = archsimd.BroadcastFloat32x16(weights[t])
	}
	zero := archsimd.BroadcastFloat32x16(0)
	top := archsimd.BroadcastFloat32x16(blur.MaxValue)
	bias := archsimd.BroadcastFloat32x16(blur.RoundBias)
	var packed [16]int32

	x := first
	for ; x+16 <= end; x += 16 {
		acc := zero
		for t := 0; t < blur.Taps; t++ {
			v := archsimd.LoadInt32x16Slice(plane[x+offsets[t]:]).ConvertToFloat32()
			acc = acc.Add(v.Mul(wv[t]))
		}
		acc.Max(zero).Min(top).Add(bias).ConvertToInt32().StoreSlice(packed[:])

		row := dst[x : x+16]
		for l, q := range packed {
			row[l] = uint8(q)
		}
	}
	return x
}
