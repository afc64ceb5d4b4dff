// Package queue implements the distributed transport on Redis lists.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-smooth/pkg/common"
)

// DefaultPrefix namespaces every key this package writes.
const DefaultPrefix = "smooth"

// keyTTL bounds how long an abandoned run's keys survive.
const keyTTL = 24 * time.Hour

// RedisTransport carries jobs and partial results between processes. Jobs
// sit in one list per rank; pixels are stored once per run and fetched by
// every follower; each follower's result is a single list entry keyed by run
// and rank.
type RedisTransport struct {
	client *redis.Client
	prefix string
}

// NewRedisTransport connects and pings addr.
func NewRedisTransport(ctx context.Context, addr string) (*RedisTransport, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisTransportFromClient(client), nil
}

// NewRedisTransportFromClient wraps an existing client.
func NewRedisTransportFromClient(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client, prefix: DefaultPrefix}
}

// WithPrefix returns a copy of r that writes under a different key prefix.
func (r *RedisTransport) WithPrefix(prefix string) *RedisTransport {
	cp := *r
	cp.prefix = prefix
	return &cp
}

func (r *RedisTransport) Close() error {
	return r.client.Close()
}

func (r *RedisTransport) jobsKey(rank int) string {
	return fmt.Sprintf("%s:jobs:%d", r.prefix, rank)
}

func (r *RedisTransport) pixelsKey(runID string) string {
	return fmt.Sprintf("%s:run:%s:pixels", r.prefix, runID)
}

func (r *RedisTransport) resultKey(runID string, rank int) string {
	return fmt.Sprintf("%s:run:%s:result:%d", r.prefix, runID, rank)
}

// Publish stores the pixels once, then queues the job header for every
// follower rank.
func (r *RedisTransport) Publish(ctx context.Context, job *common.JobMessage) error {
	header, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.pixelsKey(job.RunID), job.Image.Buffer, keyTTL)
	for rank := 1; rank < job.Workers; rank++ {
		pipe.RPush(ctx, r.jobsKey(rank), header)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish run %s: %w", job.RunID, err)
	}
	return nil
}

// Fetch blocks without a timeout until rank has a job, then loads its pixels.
func (r *RedisTransport) Fetch(ctx context.Context, rank int) (*common.JobMessage, error) {
	result, err := r.client.BLPop(ctx, 0, r.jobsKey(rank)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected result format")
	}

	var job common.JobMessage
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	pixels, err := r.client.Get(ctx, r.pixelsKey(job.RunID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pixels for run %s expired", job.RunID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pixels: %w", err)
	}
	job.Image.Buffer = pixels
	return &job, nil
}

// Send pushes the partial result bytes as one list entry.
func (r *RedisTransport) Send(ctx context.Context, res *common.ResultMessage) error {
	key := r.resultKey(res.RunID, res.Rank)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, res.Data)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push result: %w", err)
	}
	return nil
}

// Receive blocks without a timeout until rank's result for runID arrives.
func (r *RedisTransport) Receive(ctx context.Context, runID string, rank int) (*common.ResultMessage, error) {
	result, err := r.client.BLPop(ctx, 0, r.resultKey(runID, rank)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to pop result: %w", err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected result format")
	}
	return &common.ResultMessage{
		RunID: runID,
		Rank:  rank,
		Data:  []byte(result[1]),
	}, nil
}

// Cleanup removes the stored pixels of a finished run.
func (r *RedisTransport) Cleanup(ctx context.Context, runID string) error {
	return r.client.Del(ctx, r.pixelsKey(runID)).Err()
}
