package distributed

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-smooth/pkg/blur"
	"go-smooth/pkg/common"
)

const retryDelay = time.Second

// Follower computes one rank's partition of each job it fetches.
type Follower struct {
	transport Transport
	rank      int
	processed int
}

func NewFollower(t Transport, rank int) *Follower {
	return &Follower{transport: t, rank: rank}
}

// Rank returns the follower's position in the world.
func (f *Follower) Rank() int { return f.rank }

// Processed returns how many jobs this follower has answered.
func (f *Follower) Processed() int { return f.processed }

// RunOnce fetches one job, filters this rank's partition and sends it back.
func (f *Follower) RunOnce(ctx context.Context) error {
	job, err := f.transport.Fetch(ctx, f.rank)
	if err != nil {
		return fmt.Errorf("failed to fetch job: %w", err)
	}

	startTime := time.Now()
	data, err := f.compute(job)
	if err != nil {
		return fmt.Errorf("run %s: %w", job.RunID, err)
	}

	res := &common.ResultMessage{
		RunID:       job.RunID,
		Rank:        f.rank,
		Data:        data,
		ProcessTime: time.Since(startTime).Seconds(),
	}
	if err := f.transport.Send(ctx, res); err != nil {
		return fmt.Errorf("failed to send result for run %s: %w", job.RunID, err)
	}
	f.processed++
	return nil
}

// Serve answers jobs until ctx is cancelled. Errors on one job are logged and
// the loop continues with the next.
func (f *Follower) Serve(ctx context.Context) {
	log.Printf("Follower %d: started", f.rank)
	for {
		select {
		case <-ctx.Done():
			log.Printf("Follower %d: shutting down after %d jobs", f.rank, f.processed)
			return
		default:
		}
		if err := f.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Printf("Follower %d: %v", f.rank, err)
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
			continue
		}
		log.Printf("Follower %d: processed %d jobs", f.rank, f.processed)
	}
}

func (f *Follower) compute(job *common.JobMessage) ([]byte, error) {
	if f.rank <= 0 || f.rank >= job.Workers {
		return nil, fmt.Errorf("rank %d outside world of %d: %w", f.rank, job.Workers, common.ErrInvalidWorkers)
	}
	k := blur.Kernel(job.Kernel)
	if err := blur.Check(&job.Image, k); err != nil {
		return nil, err
	}
	parts, err := blur.Split(job.Image.Pixels(), job.Workers)
	if err != nil {
		return nil, err
	}
	p := parts[f.rank]
	data := make([]byte, p.Len()*common.Channels)
	blur.FilterRange(data, &job.Image, p, k)
	return data, nil
}
