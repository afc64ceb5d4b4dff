// Package engine resolves launcher configuration to one of the execution
// strategies and times its runs.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/samber/lo"

	"go-smooth/pkg/accel"
	"go-smooth/pkg/blur"
	"go-smooth/pkg/common"
	"go-smooth/pkg/distributed"
	"go-smooth/pkg/parallel"
	"go-smooth/pkg/queue"
	"go-smooth/pkg/simd"
)

const (
	Sequential  = "sequential"
	Shared      = "shared"
	Distributed = "distributed"
	SIMD        = "simd"
	Accel       = "accel"
)

// Config is everything the launcher may set. Workers is required by the
// shared and distributed strategies and ignored by the rest.
type Config struct {
	Strategy string
	Workers  int

	// RedisAddr switches the distributed strategy from the in-process
	// loopback to Redis. Followers are then separate processes unless
	// LocalFollowers is set.
	RedisAddr      string
	LocalFollowers bool

	// DeviceUnits sizes the emulated accelerator; <= 0 uses GOMAXPROCS.
	DeviceUnits int
}

type builder func(ctx context.Context, cfg Config) (blur.Strategy, []io.Closer, error)

var builders = map[string]builder{
	Sequential: func(context.Context, Config) (blur.Strategy, []io.Closer, error) {
		return blur.Sequential{}, nil, nil
	},
	Shared: func(_ context.Context, cfg Config) (blur.Strategy, []io.Closer, error) {
		s, err := parallel.New(cfg.Workers)
		return s, nil, err
	},
	Distributed: buildDistributed,
	SIMD: func(context.Context, Config) (blur.Strategy, []io.Closer, error) {
		return simd.Vectorized{}, nil, nil
	},
	Accel: func(_ context.Context, cfg Config) (blur.Strategy, []io.Closer, error) {
		dev := accel.NewHostDevice(cfg.DeviceUnits)
		return accel.New(dev), []io.Closer{dev}, nil
	},
}

func buildDistributed(ctx context.Context, cfg Config) (blur.Strategy, []io.Closer, error) {
	if cfg.RedisAddr == "" {
		c, err := distributed.NewLocal(cfg.Workers)
		return c, nil, err
	}
	if cfg.Workers <= 0 {
		return nil, nil, fmt.Errorf("distributed with %d workers: %w", cfg.Workers, common.ErrInvalidWorkers)
	}
	t, err := queue.NewRedisTransport(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	var opts []distributed.Option
	if cfg.LocalFollowers {
		opts = append(opts, distributed.WithLocalFollowers())
	}
	c, err := distributed.New(cfg.Workers, t, opts...)
	if err != nil {
		t.Close()
		return nil, nil, err
	}
	return c, []io.Closer{t}, nil
}

// Names lists the known strategies in sorted order.
func Names() []string {
	names := lo.Keys(builders)
	slices.Sort(names)
	return names
}

// Engine owns one resolved strategy and whatever it holds open.
type Engine struct {
	strategy blur.Strategy
	closers  []io.Closer
}

// New resolves cfg. Configuration errors surface here, before any pixels
// are touched.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	build, ok := builders[cfg.Strategy]
	if !ok {
		return nil, fmt.Errorf("%q (known: %v): %w", cfg.Strategy, Names(), common.ErrUnknownStrategy)
	}
	s, closers, err := build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{strategy: s, closers: closers}, nil
}

func (e *Engine) Strategy() blur.Strategy { return e.strategy }

// Run applies the strategy and returns the compute time: the strategy's own
// measurement when it has one, otherwise the wall time of Apply.
func (e *Engine) Run(ctx context.Context, src *common.Image, k blur.Kernel) (*common.Image, time.Duration, error) {
	var (
		out     *common.Image
		elapsed time.Duration
		err     error
	)
	if ts, ok := e.strategy.(blur.TimedStrategy); ok {
		out, elapsed, err = ts.ApplyTimed(ctx, src, k)
	} else {
		startTime := time.Now()
		out, err = e.strategy.Apply(ctx, src, k)
		elapsed = time.Since(startTime)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", e.strategy.Name(), err)
	}
	return out, elapsed, nil
}

func (e *Engine) Close() error {
	errs := lo.Map(e.closers, func(c io.Closer, _ int) error { return c.Close() })
	return errors.Join(errs...)
}
