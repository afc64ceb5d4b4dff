package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"go-smooth/internal/imagetest"
	"go-smooth/pkg/blur"
	"go-smooth/pkg/codec"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out.png")
	src := imagetest.Random(24, 18, 3)
	require.NoError(t, codec.Encode(src, input, codec.FormatPNG))

	_, err := execute(t, "run", "--strategy", "shared", "--workers", "3", "--stats", dir, input, output)
	require.NoError(t, err)

	got, _, err := codec.Decode(output)
	require.NoError(t, err)
	want, err := blur.Sequential{}.Apply(t.Context(), src, blur.BoxKernel())
	require.NoError(t, err)
	require.Equal(t, want.Buffer, got.Buffer)

	logs, err := filepath.Glob(filepath.Join(dir, "logs", "run_*.txt"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestRunCommandErrors(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	require.NoError(t, codec.Encode(imagetest.Random(4, 4, 1), input, codec.FormatPNG))

	_, err := execute(t, "run", "--strategy", "shared", input, filepath.Join(dir, "out.png"))
	require.Error(t, err, "shared needs --workers")

	_, err = execute(t, "run", "--strategy", "nope", input, filepath.Join(dir, "out.png"))
	require.Error(t, err)

	_, err = execute(t, "run", input, filepath.Join(dir, "out.bmp"))
	require.Error(t, err)

	_, err = execute(t, "run", input)
	require.Error(t, err)
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "photo.png")
	require.NoError(t, codec.Encode(imagetest.Random(31, 17, 12), input, codec.FormatPNG))

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0755))
	_, err := execute(t, "compare", "--workers", "3", "--out-dir", outDir, "--stats", dir, input)
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	logs, err := filepath.Glob(filepath.Join(dir, "logs", "compare_*.txt"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	report, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	require.Equal(t, 4, strings.Count(string(report), "Matches sequential: true"))
}

func TestInfoCommand(t *testing.T) {
	out, err := execute(t, "info")
	require.NoError(t, err)
	require.Contains(t, out, "SIMD: arch=")
	require.Contains(t, out, "sequential")
}

func TestOutputPathFor(t *testing.T) {
	require.Equal(t, filepath.Join("out", "img_simd.png"), outputPathFor("out", "data/img.jpg", "simd"))
}
