package blur

import (
	"context"
	"time"

	"go-smooth/pkg/common"
)

// Strategy computes a filtered output image from an input image and kernel.
// Every implementation must produce the same bytes as Sequential.
type Strategy interface {
	Name() string
	Apply(ctx context.Context, src *common.Image, k Kernel) (*common.Image, error)
}

// TimedStrategy is implemented by strategies that time only part of Apply,
// such as the compute phase of a device offload. The duration belongs to
// this call, so concurrent calls do not see each other's timings.
type TimedStrategy interface {
	Strategy
	ApplyTimed(ctx context.Context, src *common.Image, k Kernel) (*common.Image, time.Duration, error)
}

// Check validates the inputs shared by every strategy. It runs before any
// output is allocated.
func Check(src *common.Image, k Kernel) error {
	if err := src.Validate(); err != nil {
		return err
	}
	return k.Validate()
}

// Sequential is the single-goroutine baseline.
type Sequential struct{}

func (Sequential) Name() string { return "sequential" }

func (Sequential) Apply(_ context.Context, src *common.Image, k Kernel) (*common.Image, error) {
	if err := Check(src, k); err != nil {
		return nil, err
	}
	out := common.NewImageLike(src)
	w, h := src.Width, src.Height
	for row := 1; row < h-1; row++ {
		for col := 1; col < w-1; col++ {
			i := row*w + col
			o := i * common.Channels
			StencilInto(out.Buffer[o:o+common.Channels], src.Buffer, w, i, k)
		}
	}
	return out, nil
}
