// Package parallel runs the stencil across goroutines that share one output
// buffer.
package parallel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"go-smooth/pkg/blur"
	"go-smooth/pkg/common"
)

// SharedMemory splits the interior pixels over a fixed number of goroutines.
// Each goroutine writes a disjoint set of output pixels, so the buffer needs
// no locking.
type SharedMemory struct {
	workers int
}

// New requires an explicit worker count; there is no default.
func New(workers int) (*SharedMemory, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("shared memory with %d workers: %w", workers, common.ErrInvalidWorkers)
	}
	return &SharedMemory{workers: workers}, nil
}

func (s *SharedMemory) Name() string { return "shared" }

// Workers returns the configured goroutine count.
func (s *SharedMemory) Workers() int { return s.workers }

func (s *SharedMemory) Apply(_ context.Context, src *common.Image, k blur.Kernel) (*common.Image, error) {
	if err := blur.Check(src, k); err != nil {
		return nil, err
	}
	parts, err := blur.Split(blur.InteriorCount(src.Width, src.Height), s.workers)
	if err != nil {
		return nil, err
	}

	out := common.NewImageLike(src)

	var g errgroup.Group
	for _, p := range parts {
		if p.Len() == 0 {
			continue
		}
		g.Go(func() error {
			blur.FilterInterior(out.Buffer, src, p, k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
