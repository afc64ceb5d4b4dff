package stats

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// PerformanceData holds timing and metadata for one strategy run
type PerformanceData struct {
	Strategy    string
	Width       int
	Height      int
	ComputeTime float64 // milliseconds
	TotalTime   float64 // milliseconds, including decode and encode
	InputPath   string
	OutputPath  string
	Timestamp   time.Time

	// Strategy-specific data
	Workers *int  // shared and distributed
	Lanes   *int  // simd
	Matches *bool // set by compare against the sequential reference
}

// WritePerformanceResults writes a combined results file under dir/logs
// and returns its path.
func WritePerformanceResults(results []PerformanceData, dir, prefix string) (string, error) {
	if len(results) == 0 {
		return "", nil
	}

	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	// Use timestamp from first result
	timestamp := results[0].Timestamp.Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(logDir, fmt.Sprintf("%s%s.txt", prefix, timestamp))

	file, err := os.Create(resultsFile)
	if err != nil {
		return "", fmt.Errorf("failed to create results file: %w", err)
	}
	if err := Write(file, results); err != nil {
		file.Close()
		return "", err
	}
	return resultsFile, file.Close()
}

// Write renders results as text.
func Write(w io.Writer, results []PerformanceData) error {
	ew := &errWriter{w: w}
	ew.printf("=== Combined Multi-Strategy Box Filter Results ===\n")
	if len(results) > 0 {
		ew.printf("Timestamp: %s\n", results[0].Timestamp.Format("2006-01-02 15:04:05"))
	}
	ew.printf("\n")

	for _, result := range results {
		ew.printf("=== %s Results ===\n", result.Strategy)
		ew.printf("Image size: %dx%d\n", result.Width, result.Height)
		ew.printf("Compute time: %.3fms\n", result.ComputeTime)
		ew.printf("Total execution time: %.3fms\n", result.TotalTime)

		if result.Workers != nil {
			ew.printf("Workers: %d\n", *result.Workers)
		}
		if result.Lanes != nil {
			ew.printf("Lanes: %d\n", *result.Lanes)
		}
		if result.Matches != nil {
			ew.printf("Matches sequential: %t\n", *result.Matches)
		}
		if result.InputPath != "" {
			ew.printf("Input file: %s\n", result.InputPath)
		}
		if result.OutputPath != "" {
			ew.printf("Output file: %s\n", result.OutputPath)
		}
		ew.printf("\n")
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
