package engine

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"go-smooth/internal/imagetest"
	"go-smooth/pkg/blur"
	"go-smooth/pkg/common"
)

func TestNames(t *testing.T) {
	require.Equal(t, []string{Accel, Distributed, Sequential, Shared, SIMD}, Names())
}

func TestStrategiesAgree(t *testing.T) {
	src := imagetest.Random(37, 29, 2024)
	k := blur.BoxKernel()

	var reference []byte
	for _, name := range append([]string{Sequential}, Names()...) {
		t.Run(name, func(t *testing.T) {
			eng, err := New(t.Context(), Config{Strategy: name, Workers: 4})
			require.NoError(t, err)
			defer eng.Close()
			require.Equal(t, name, eng.Strategy().Name())

			out, elapsed, err := eng.Run(t.Context(), src, k)
			require.NoError(t, err)
			require.GreaterOrEqual(t, int64(elapsed), int64(0))
			imagetest.RequireBorderZero(t, out)

			if reference == nil {
				reference = out.Buffer
				return
			}
			require.Equal(t, reference, out.Buffer)
		})
	}
}

func TestWorkerCountRequired(t *testing.T) {
	for _, name := range []string{Shared, Distributed} {
		_, err := New(t.Context(), Config{Strategy: name})
		require.ErrorIs(t, err, common.ErrInvalidWorkers, name)
	}

	_, err := New(t.Context(), Config{Strategy: Distributed, RedisAddr: "127.0.0.1:1"})
	require.ErrorIs(t, err, common.ErrInvalidWorkers)
}

func TestUnknownStrategy(t *testing.T) {
	_, err := New(t.Context(), Config{Strategy: "gpu"})
	require.ErrorIs(t, err, common.ErrUnknownStrategy)
}

func TestDistributedOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	eng, err := New(t.Context(), Config{
		Strategy:       Distributed,
		Workers:        3,
		RedisAddr:      mr.Addr(),
		LocalFollowers: true,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, eng.Close()) }()

	src := imagetest.Random(20, 15, 6)
	want, err := blur.Sequential{}.Apply(t.Context(), src, blur.BoxKernel())
	require.NoError(t, err)
	got, _, err := eng.Run(t.Context(), src, blur.BoxKernel())
	require.NoError(t, err)
	require.Equal(t, want.Buffer, got.Buffer)
}

func TestRunWrapsStrategyErrors(t *testing.T) {
	eng, err := New(t.Context(), Config{Strategy: SIMD})
	require.NoError(t, err)

	bad := &common.Image{Width: 3, Height: 3, Channels: 1, Buffer: make([]byte, 9)}
	_, _, err = eng.Run(t.Context(), bad, blur.BoxKernel())
	require.ErrorIs(t, err, common.ErrUnsupportedChannels)
	require.ErrorContains(t, err, "simd")
}
