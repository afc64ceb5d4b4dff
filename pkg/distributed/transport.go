// Package distributed runs the stencil on a coordinator and a set of
// followers that share nothing but a message transport.
package distributed

import (
	"context"
	"fmt"

	"go-smooth/pkg/common"
)

// Transport moves jobs from the coordinator to followers and partial results
// back. Fetch and Receive block until a message arrives; neither applies a
// timeout of its own.
type Transport interface {
	// Publish delivers the full job, pixels included, to ranks 1..Workers-1.
	Publish(ctx context.Context, job *common.JobMessage) error
	// Fetch blocks until a job addressed to rank is available.
	Fetch(ctx context.Context, rank int) (*common.JobMessage, error)
	// Send ships a follower's partial result as one message.
	Send(ctx context.Context, res *common.ResultMessage) error
	// Receive blocks until rank's result for runID arrives.
	Receive(ctx context.Context, runID string, rank int) (*common.ResultMessage, error)
}

// Cleaner is implemented by transports that keep per-run state to release
// once the coordinator has gathered every result.
type Cleaner interface {
	Cleanup(ctx context.Context, runID string) error
}

// Loopback is an in-process Transport. Every message is copied on send so
// followers never alias the coordinator's buffers. Mailboxes are keyed by
// rank alone, so a Loopback carries one run at a time.
type Loopback struct {
	jobs    []chan *common.JobMessage
	results []chan *common.ResultMessage
}

// NewLoopback creates mailboxes for ranks 0..workers-1.
func NewLoopback(workers int) (*Loopback, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("loopback with %d workers: %w", workers, common.ErrInvalidWorkers)
	}
	l := &Loopback{
		jobs:    make([]chan *common.JobMessage, workers),
		results: make([]chan *common.ResultMessage, workers),
	}
	for i := range l.jobs {
		l.jobs[i] = make(chan *common.JobMessage, 1)
		l.results[i] = make(chan *common.ResultMessage, 1)
	}
	return l, nil
}

func (l *Loopback) checkRank(rank int) error {
	if rank < 0 || rank >= len(l.jobs) {
		return fmt.Errorf("rank %d outside world of %d: %w", rank, len(l.jobs), common.ErrInvalidWorkers)
	}
	return nil
}

func (l *Loopback) Publish(ctx context.Context, job *common.JobMessage) error {
	if job.Workers > len(l.jobs) {
		return fmt.Errorf("job for %d workers on loopback of %d: %w", job.Workers, len(l.jobs), common.ErrInvalidWorkers)
	}
	for rank := 1; rank < job.Workers; rank++ {
		msg := *job
		msg.Image = *job.Image.Clone()
		select {
		case l.jobs[rank] <- &msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (l *Loopback) Fetch(ctx context.Context, rank int) (*common.JobMessage, error) {
	if err := l.checkRank(rank); err != nil {
		return nil, err
	}
	select {
	case job := <-l.jobs[rank]:
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Loopback) Send(ctx context.Context, res *common.ResultMessage) error {
	if err := l.checkRank(res.Rank); err != nil {
		return err
	}
	msg := *res
	msg.Data = append([]byte(nil), res.Data...)
	select {
	case l.results[res.Rank] <- &msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loopback) Receive(ctx context.Context, runID string, rank int) (*common.ResultMessage, error) {
	if err := l.checkRank(rank); err != nil {
		return nil, err
	}
	select {
	case res := <-l.results[rank]:
		if res.RunID != runID {
			return nil, fmt.Errorf("rank %d answered run %q, expected %q", rank, res.RunID, runID)
		}
		return res, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
