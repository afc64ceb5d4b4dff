package distributed

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go-smooth/pkg/blur"
	"go-smooth/pkg/common"
)

// Coordinator is rank 0. It computes the first partition itself and gathers
// the rest from followers in rank order.
type Coordinator struct {
	workers   int
	transport Transport
	local     bool
	newRunID  func() string

	// loopbackPerRun gives each Apply a private Loopback, whose mailboxes
	// are keyed by rank only.
	loopbackPerRun bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLocalFollowers starts ranks 1..N-1 as goroutines for every Apply. They
// still talk to the coordinator only through the transport.
func WithLocalFollowers() Option {
	return func(c *Coordinator) { c.local = true }
}

// WithRunID overrides run ID generation.
func WithRunID(fn func() string) Option {
	return func(c *Coordinator) { c.newRunID = fn }
}

// New creates a coordinator for a world of workers ranks.
func New(workers int, t Transport, opts ...Option) (*Coordinator, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("distributed with %d workers: %w", workers, common.ErrInvalidWorkers)
	}
	c := &Coordinator{
		workers:   workers,
		transport: t,
		newRunID:  defaultRunID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewLocal wires a coordinator to in-process loopbacks with goroutine
// followers. Every Apply gets its own loopback, so concurrent runs cannot
// pick up each other's jobs.
func NewLocal(workers int) (*Coordinator, error) {
	c, err := New(workers, nil, WithLocalFollowers())
	if err != nil {
		return nil, err
	}
	c.loopbackPerRun = true
	return c, nil
}

func defaultRunID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().UnixNano())
}

func (c *Coordinator) Name() string { return "distributed" }

// Workers returns the world size, coordinator included.
func (c *Coordinator) Workers() int { return c.workers }

// Apply blocks until every follower has answered. A follower that never
// answers blocks it forever.
func (c *Coordinator) Apply(ctx context.Context, src *common.Image, k blur.Kernel) (*common.Image, error) {
	if err := blur.Check(src, k); err != nil {
		return nil, err
	}
	parts, err := blur.Split(src.Pixels(), c.workers)
	if err != nil {
		return nil, err
	}

	t := c.transport
	if c.loopbackPerRun {
		if t, err = NewLoopback(c.workers); err != nil {
			return nil, err
		}
	}

	runID := c.newRunID()
	startTime := time.Now()

	if c.local {
		for rank := 1; rank < c.workers; rank++ {
			f := NewFollower(t, rank)
			go func() {
				if err := f.RunOnce(ctx); err != nil {
					log.Printf("Follower %d: %v", f.rank, err)
				}
			}()
		}
	}

	if c.workers > 1 {
		job := &common.JobMessage{
			RunID:   runID,
			Workers: c.workers,
			Image:   *src,
			Kernel:  k,
		}
		if err := t.Publish(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to publish run %s: %w", runID, err)
		}
	}

	out := common.NewImageLike(src)
	own := parts[0]
	blur.FilterRange(out.Buffer[own.Lo*out.Channels:own.Hi*out.Channels], src, own, k)

	for rank := 1; rank < c.workers; rank++ {
		res, err := t.Receive(ctx, runID, rank)
		if err != nil {
			return nil, fmt.Errorf("failed to receive rank %d: %w", rank, err)
		}
		if err := blur.Assemble(out, parts[rank], res.Data); err != nil {
			return nil, fmt.Errorf("rank %d: %w", rank, err)
		}
	}

	if cl, ok := t.(Cleaner); ok && c.workers > 1 {
		if err := cl.Cleanup(ctx, runID); err != nil {
			log.Printf("Coordinator: failed to clean up run %s: %v", runID, err)
		}
	}

	if c.workers > 1 {
		log.Printf("Coordinator: run %s gathered %d partitions in %.2fms",
			runID, c.workers, float64(time.Since(startTime).Microseconds())/1000.0)
	}
	return out, nil
}
