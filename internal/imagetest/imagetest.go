// Package imagetest builds deterministic RGB fixtures for tests.
package imagetest

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"go-smooth/pkg/common"
)

// Random returns a width x height image filled from a seeded generator.
func Random(width, height int, seed uint64) *common.Image {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := common.NewImage(width, height, common.ColorSpaceRGB)
	for i := range img.Buffer {
		img.Buffer[i] = byte(rng.IntN(256))
	}
	return img
}

// Uniform returns an image with every channel of every pixel set to v.
func Uniform(width, height int, v byte) *common.Image {
	img := common.NewImage(width, height, common.ColorSpaceRGB)
	for i := range img.Buffer {
		img.Buffer[i] = v
	}
	return img
}

// RequireBorderZero fails the test if any border pixel of img is non-zero.
func RequireBorderZero(t testing.TB, img *common.Image) {
	t.Helper()
	for row := 0; row < img.Height; row++ {
		for col := 0; col < img.Width; col++ {
			if row > 0 && row < img.Height-1 && col > 0 && col < img.Width-1 {
				continue
			}
			p := (row*img.Width + col) * img.Channels
			require.Equal(t, []byte{0, 0, 0}, img.Buffer[p:p+img.Channels],
				"border pixel (%d,%d)", row, col)
		}
	}
}

// Sizes covers degenerate, lane-boundary and odd-shaped images.
var Sizes = []struct{ Width, Height int }{
	{0, 0}, {1, 1}, {2, 2}, {2, 7}, {7, 2},
	{3, 3}, {4, 4}, {5, 5}, {3, 17}, {17, 3},
	{9, 6}, {10, 10}, {16, 9}, {33, 21}, {64, 48}, {101, 37},
}
