package stats

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	workers, lanes := 4, 8
	matches := true
	results := []PerformanceData{
		{Strategy: "sequential", Width: 10, Height: 5, ComputeTime: 1.5, TotalTime: 3, InputPath: "in.png"},
		{Strategy: "shared", Width: 10, Height: 5, ComputeTime: 0.5, Workers: &workers, Matches: &matches},
		{Strategy: "simd", Width: 10, Height: 5, Lanes: &lanes, OutputPath: "out.png"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, results))
	out := buf.String()

	for _, want := range []string{
		"=== sequential Results ===",
		"Image size: 10x5",
		"Compute time: 1.500ms",
		"Input file: in.png",
		"Workers: 4",
		"Matches sequential: true",
		"Lanes: 8",
		"Output file: out.png",
	} {
		require.Contains(t, out, want)
	}
	require.Equal(t, 1, strings.Count(out, "Workers:"))
}

func TestWritePerformanceResults(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	path, err := WritePerformanceResults([]PerformanceData{{Strategy: "accel", Timestamp: ts}}, dir, "compare_")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "logs", "compare_2026-03-01_12-30-00.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Timestamp: 2026-03-01 12:30:00")
	require.Contains(t, string(data), "=== accel Results ===")
}

func TestWritePerformanceResultsEmpty(t *testing.T) {
	path, err := WritePerformanceResults(nil, t.TempDir(), "x_")
	require.NoError(t, err)
	require.Empty(t, path)
}
