package main

import (
	"log"

	"github.com/spf13/cobra"

	"go-smooth/pkg/distributed"
	"go-smooth/pkg/queue"
)

func newFollowerCmd() *cobra.Command {
	var (
		redisAddr string
		rank      int
		prefix    string
	)
	cmd := &cobra.Command{
		Use:   "follower",
		Short: "Serve one rank of the distributed strategy over Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log.Printf("Starting follower rank %d, Redis: %s", rank, redisAddr)

			t, err := queue.NewRedisTransport(ctx, redisAddr)
			if err != nil {
				return err
			}
			defer t.Close()
			// BLPOP ignores cancellation; closing the client unblocks it.
			go func() {
				<-ctx.Done()
				t.Close()
			}()

			distributed.NewFollower(t.WithPrefix(prefix), rank).Serve(ctx)
			log.Println("Service shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&redisAddr, "redis", "localhost:6379", "Redis address")
	cmd.Flags().IntVar(&rank, "rank", 0, "rank served by this process (1..workers-1)")
	cmd.Flags().StringVar(&prefix, "prefix", queue.DefaultPrefix, "Redis key prefix")
	_ = cmd.MarkFlagRequired("rank")
	return cmd
}
