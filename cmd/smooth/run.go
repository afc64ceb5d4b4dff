package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go-smooth/pkg/blur"
	"go-smooth/pkg/codec"
	"go-smooth/pkg/engine"
	"go-smooth/pkg/simd"
	"go-smooth/pkg/stats"
)

// strategyFlags are shared by run and compare.
type strategyFlags struct {
	workers        int
	redisAddr      string
	localFollowers bool
	units          int
}

func (f *strategyFlags) bind(fs *pflag.FlagSet) {
	fs.IntVarP(&f.workers, "workers", "w", 0, "worker count for the shared and distributed strategies")
	fs.StringVar(&f.redisAddr, "redis", "", "Redis address for the distributed strategy (empty runs in-process)")
	fs.BoolVar(&f.localFollowers, "local-followers", false, "with --redis, run followers as goroutines in this process")
	fs.IntVar(&f.units, "units", 0, "compute units for the accel strategy (0 uses GOMAXPROCS)")
}

func (f *strategyFlags) config(strategy string) engine.Config {
	return engine.Config{
		Strategy:       strategy,
		Workers:        f.workers,
		RedisAddr:      f.redisAddr,
		LocalFollowers: f.localFollowers,
		DeviceUnits:    f.units,
	}
}

func newRunCmd() *cobra.Command {
	var (
		flags    strategyFlags
		strategy string
		statsDir string
	)
	cmd := &cobra.Command{
		Use:   "run <input> <output>",
		Short: "Filter one image with one strategy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath, outputPath := args[0], args[1]
			ctx := cmd.Context()
			startTime := time.Now()

			outFormat, err := codec.FormatFromPath(outputPath)
			if err != nil {
				return err
			}

			eng, err := engine.New(ctx, flags.config(strategy))
			if err != nil {
				return err
			}
			defer eng.Close()

			src, _, err := codec.Decode(inputPath)
			if err != nil {
				return err
			}
			log.Printf("Loaded %s: %dx%d (%s)", inputPath, src.Width, src.Height, src.ColorSpace)

			out, computeTime, err := eng.Run(ctx, src, blur.BoxKernel())
			if err != nil {
				return err
			}
			log.Printf("Execution time: %.3f ms", millis(computeTime))

			if err := codec.Encode(out, outputPath, outFormat); err != nil {
				return err
			}
			log.Printf("Transformation Complete! %s -> %s", inputPath, outputPath)

			if statsDir == "" {
				return nil
			}
			result := performanceData(eng, flags.workers, src.Width, src.Height, computeTime, time.Since(startTime))
			result.InputPath = inputPath
			result.OutputPath = outputPath
			path, err := stats.WritePerformanceResults([]stats.PerformanceData{result}, statsDir, "run_")
			if err != nil {
				return err
			}
			log.Printf("Results written to %s", path)
			return nil
		},
	}
	flags.bind(cmd.Flags())
	cmd.Flags().StringVarP(&strategy, "strategy", "s", engine.Sequential,
		fmt.Sprintf("execution strategy %v", engine.Names()))
	cmd.Flags().StringVar(&statsDir, "stats", "", "write a performance report under this directory")
	return cmd
}

func performanceData(eng *engine.Engine, workers, width, height int, compute, total time.Duration) stats.PerformanceData {
	name := eng.Strategy().Name()
	result := stats.PerformanceData{
		Strategy:    name,
		Width:       width,
		Height:      height,
		ComputeTime: millis(compute),
		TotalTime:   millis(total),
		Timestamp:   time.Now(),
	}
	switch name {
	case engine.Shared, engine.Distributed:
		result.Workers = &workers
	case engine.SIMD:
		lanes := simd.Lanes()
		result.Lanes = &lanes
	}
	return result
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
