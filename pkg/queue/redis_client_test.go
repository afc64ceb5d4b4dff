package queue

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"go-smooth/internal/imagetest"
	"go-smooth/pkg/blur"
	"go-smooth/pkg/common"
	"go-smooth/pkg/distributed"
)

func newTestTransport(t *testing.T) (*RedisTransport, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rt, err := NewRedisTransport(t.Context(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt, mr
}

func TestNewRedisTransportPingFails(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisTransport(t.Context(), addr)
	require.Error(t, err)
}

func TestPublishFetch(t *testing.T) {
	rt, mr := newTestTransport(t)

	src := imagetest.Random(6, 4, 8)
	job := &common.JobMessage{RunID: "run-1", Workers: 3, Image: *src, Kernel: blur.BoxKernel()}
	require.NoError(t, rt.Publish(t.Context(), job))

	require.True(t, mr.Exists("smooth:run:run-1:pixels"))
	require.True(t, mr.TTL("smooth:run:run-1:pixels") > 0)
	require.False(t, mr.Exists("smooth:jobs:0"), "rank 0 is the coordinator")

	for rank := 1; rank < 3; rank++ {
		got, err := rt.Fetch(t.Context(), rank)
		require.NoError(t, err)
		require.Equal(t, "run-1", got.RunID)
		require.Equal(t, 3, got.Workers)
		require.Equal(t, src.Width, got.Image.Width)
		require.Equal(t, src.Height, got.Image.Height)
		require.Equal(t, src.Channels, got.Image.Channels)
		require.Equal(t, src.Buffer, got.Image.Buffer)
		require.Equal(t, [3][3]float32(blur.BoxKernel()), got.Kernel)
	}
}

func TestFetchExpiredPixels(t *testing.T) {
	rt, mr := newTestTransport(t)

	job := &common.JobMessage{RunID: "gone", Workers: 2, Image: *imagetest.Random(3, 3, 1)}
	require.NoError(t, rt.Publish(t.Context(), job))
	mr.Del("smooth:run:gone:pixels")

	_, err := rt.Fetch(t.Context(), 1)
	require.ErrorContains(t, err, "expired")
}

func TestSendReceive(t *testing.T) {
	rt, mr := newTestTransport(t)

	data := []byte{10, 20, 30, 40, 50, 60}
	require.NoError(t, rt.Send(t.Context(), &common.ResultMessage{RunID: "r", Rank: 2, Data: data}))
	require.True(t, mr.TTL("smooth:run:r:result:2") > 0)

	res, err := rt.Receive(t.Context(), "r", 2)
	require.NoError(t, err)
	require.Equal(t, 2, res.Rank)
	require.Equal(t, "r", res.RunID)
	require.Equal(t, data, res.Data)
}

func TestReceiveHonorsContext(t *testing.T) {
	rt, _ := newTestTransport(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := rt.Receive(ctx, "never", 1)
	require.Error(t, err)
}

func TestCleanup(t *testing.T) {
	rt, mr := newTestTransport(t)

	job := &common.JobMessage{RunID: "c", Workers: 1, Image: *imagetest.Random(3, 3, 1)}
	require.NoError(t, rt.Publish(t.Context(), job))
	require.True(t, mr.Exists("smooth:run:c:pixels"))

	require.NoError(t, rt.Cleanup(t.Context(), "c"))
	require.False(t, mr.Exists("smooth:run:c:pixels"))
}

func TestWithPrefix(t *testing.T) {
	rt, mr := newTestTransport(t)

	other := rt.WithPrefix("other")
	job := &common.JobMessage{RunID: "p", Workers: 2, Image: *imagetest.Random(3, 3, 1)}
	require.NoError(t, other.Publish(t.Context(), job))

	require.True(t, mr.Exists("other:jobs:1"))
	require.False(t, mr.Exists("smooth:jobs:1"))
}

func TestCoordinatorOverRedis(t *testing.T) {
	rt, mr := newTestTransport(t)

	k := blur.BoxKernel()
	for _, workers := range []int{1, 2, 4, 7} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			c, err := distributed.New(workers, rt, distributed.WithLocalFollowers())
			require.NoError(t, err)

			src := imagetest.Random(19, 13, uint64(workers))
			want, err := blur.Sequential{}.Apply(t.Context(), src, k)
			require.NoError(t, err)

			got, err := c.Apply(t.Context(), src, k)
			require.NoError(t, err)
			require.Equal(t, want.Buffer, got.Buffer)
			imagetest.RequireBorderZero(t, got)
		})
	}

	for _, key := range mr.Keys() {
		require.NotContains(t, key, ":pixels", "run pixels left behind")
	}
}

func TestServingFollowers(t *testing.T) {
	rt, _ := newTestTransport(t)
	const workers = 3

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{}, workers-1)
	var clients []*redis.Client
	for rank := 1; rank < workers; rank++ {
		// Each follower gets its own connection, as a separate process would.
		client := redis.NewClient(&redis.Options{Addr: rt.client.Options().Addr})
		clients = append(clients, client)
		f := distributed.NewFollower(NewRedisTransportFromClient(client), rank)
		go func() {
			f.Serve(ctx)
			done <- struct{}{}
		}()
	}

	c, err := distributed.New(workers, rt)
	require.NoError(t, err)
	for seed := uint64(0); seed < 3; seed++ {
		src := imagetest.Random(16, 12, seed)
		want, err := blur.Sequential{}.Apply(t.Context(), src, blur.BoxKernel())
		require.NoError(t, err)
		got, err := c.Apply(t.Context(), src, blur.BoxKernel())
		require.NoError(t, err)
		require.Equal(t, want.Buffer, got.Buffer, "run %d", seed)
	}

	// A blocked BLPOP does not observe cancellation; closing the client
	// unblocks it.
	cancel()
	for _, client := range clients {
		client.Close()
	}
	for range workers - 1 {
		<-done
	}
}
