package accel

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-smooth/pkg/blur"
	"go-smooth/pkg/common"
)

// Offload runs one device task per interior pixel. Only the launch is timed;
// copies in and out are excluded. Concurrent calls are safe as long as the
// device is.
type Offload struct {
	dev Device
}

func New(dev Device) *Offload {
	return &Offload{dev: dev}
}

func (o *Offload) Name() string { return "accel" }

// Device returns the backend this strategy launches on.
func (o *Offload) Device() Device { return o.dev }

func (o *Offload) Apply(ctx context.Context, src *common.Image, k blur.Kernel) (*common.Image, error) {
	out, _, err := o.ApplyTimed(ctx, src, k)
	return out, err
}

// ApplyTimed is Apply that also returns the duration of this call's launch.
func (o *Offload) ApplyTimed(_ context.Context, src *common.Image, k blur.Kernel) (*common.Image, time.Duration, error) {
	if err := blur.Check(src, k); err != nil {
		return nil, 0, err
	}

	in, err := o.dev.CopyIn(src.Buffer)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to copy input to %s: %w", o.dev.Name(), err)
	}
	res, err := o.dev.Alloc(len(src.Buffer))
	if err != nil {
		o.dev.Release(in)
		return nil, 0, fmt.Errorf("failed to allocate output on %s: %w", o.dev.Name(), err)
	}
	defer o.dev.Release(in, res)

	width := src.Width
	tasks := blur.InteriorCount(src.Width, src.Height)
	devIn, devOut := in.Bytes(), res.Bytes()
	startTime := time.Now()
	err = o.dev.Launch(tasks, func(task int) {
		i := blur.InteriorIndex(task, width)
		p := i * common.Channels
		blur.StencilInto(devOut[p:p+common.Channels], devIn, width, i, k)
	})
	computeTime := time.Since(startTime)
	if err != nil {
		return nil, 0, fmt.Errorf("launch on %s failed: %w", o.dev.Name(), err)
	}

	out := common.NewImageLike(src)
	if err := o.dev.CopyOut(out.Buffer, res); err != nil {
		return nil, 0, fmt.Errorf("failed to copy output from %s: %w", o.dev.Name(), err)
	}
	log.Printf("Offload: %s computed %d pixels in %.2fms", o.dev.Name(), tasks, float64(computeTime.Microseconds())/1000.0)
	return out, computeTime, nil
}
