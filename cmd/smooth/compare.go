package main

import (
	"bytes"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"go-smooth/pkg/blur"
	"go-smooth/pkg/codec"
	"go-smooth/pkg/common"
	"go-smooth/pkg/engine"
	"go-smooth/pkg/stats"
)

func newCompareCmd() *cobra.Command {
	var (
		flags    strategyFlags
		outDir   string
		statsDir string
	)
	cmd := &cobra.Command{
		Use:   "compare <input>",
		Short: "Run every strategy on one image and check they agree byte for byte",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			ctx := cmd.Context()

			src, _, err := codec.Decode(inputPath)
			if err != nil {
				return err
			}
			log.Printf("Loaded %s: %dx%d", inputPath, src.Width, src.Height)

			// Sequential first: it is the reference the others are checked against.
			order := append([]string{engine.Sequential},
				lo.Without(engine.Names(), engine.Sequential)...)

			var (
				reference  *common.Image
				results    []stats.PerformanceData
				mismatched []string
			)
			for i, name := range order {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. Running %s strategy:\n", i+1, name)
				startTime := time.Now()

				eng, err := engine.New(ctx, flags.config(name))
				if err != nil {
					return err
				}
				out, computeTime, err := eng.Run(ctx, src, blur.BoxKernel())
				eng.Close()
				if err != nil {
					return err
				}

				result := performanceData(eng, flags.workers, src.Width, src.Height, computeTime, time.Since(startTime))
				result.InputPath = inputPath
				if reference == nil {
					reference = out
				} else {
					matches := bytes.Equal(reference.Buffer, out.Buffer)
					result.Matches = &matches
					if !matches {
						mismatched = append(mismatched, name)
					}
				}

				if outDir != "" {
					result.OutputPath = outputPathFor(outDir, inputPath, name)
					if err := codec.Encode(out, result.OutputPath, codec.FormatPNG); err != nil {
						return err
					}
				}
				log.Printf("%s: %.3f ms", name, result.ComputeTime)
				results = append(results, result)
			}

			path, err := stats.WritePerformanceResults(results, statsDir, "compare_")
			if err != nil {
				return err
			}
			log.Printf("Results written to %s", path)

			if len(mismatched) > 0 {
				return fmt.Errorf("output differs from sequential for: %s", strings.Join(mismatched, ", "))
			}
			log.Printf("All %d strategies produced identical output", len(order))
			return nil
		},
	}
	flags.bind(cmd.Flags())
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "also write each strategy's output under this directory")
	cmd.Flags().StringVar(&statsDir, "stats", ".", "directory that receives logs/compare_*.txt")
	_ = cmd.MarkFlagRequired("workers")
	return cmd
}

func outputPathFor(dir, inputPath, strategy string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", base, strategy))
}
