package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/osm-data-etl/internal/config"
	"github.com/couchcryptid/osm-data-etl/internal/observability"
)

const sampleFile = "../../internal/pipeline/testdata/chicago_sample.osm"

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: time.Second,
		BatchSize:       2,
		ShapeWorkers:    2,
		KafkaTopic:      "osm-documents",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunConvert_ToFileThenValidate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sample.json")
	opts := convertOptions{clean: true, output: out}

	err := runConvert(context.Background(), testConfig(), sampleFile, opts, io.Discard, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 4)

	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetArgs([]string{"validate", "--clean", out})
	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "4 documents (3 nodes, 1 ways)")
	assert.Contains(t, stdout.String(), "PASS")
}

func TestRunConvert_Stdout(t *testing.T) {
	var stdout bytes.Buffer
	opts := convertOptions{output: stdoutPath}

	err := runConvert(context.Background(), testConfig(), sampleFile, opts, &stdout, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"id":"261114295"`)
	assert.Contains(t, lines[3], `"type":"way"`)
}

func TestRunConvert_MissingInput(t *testing.T) {
	opts := convertOptions{output: filepath.Join(t.TempDir(), "out.json")}
	err := runConvert(context.Background(), testConfig(), "does-not-exist.osm", opts, io.Discard, discardLogger(), observability.NewMetricsForTesting())
	require.Error(t, err)
}

func TestValidateCmd_ReportsProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"way","pos":[1,2]}`+"\n"), 0o600))

	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"validate", path})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 problems found")
	assert.Contains(t, stdout.String(), "FAIL: record 1: way has pos")
}

func TestConvertCmd_RequiresInput(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"convert"})
	require.Error(t, root.Execute())
}
