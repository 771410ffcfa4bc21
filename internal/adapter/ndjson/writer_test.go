package ndjson

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/osm-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDocs() []*domain.Document {
	return []*domain.Document{
		{Type: domain.KindNode, Pos: []float64{1.5, 2.5}, Fields: map[string]string{"id": "1"}},
		{Type: domain.KindWay, NodeRefs: []string{"1", "2"}, Fields: map[string]string{"id": "2"}},
	}
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "data/chicago.osm.json", OutputPath("data/chicago.osm"))
}

func TestWriter_Compact(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false, discardLogger())

	require.NoError(t, w.LoadBatch(context.Background(), testDocs()))
	require.NoError(t, w.Close())

	assert.Equal(t,
		`{"id":"1","pos":[1.5,2.5],"type":"node"}`+"\n"+
			`{"id":"2","node_refs":["1","2"],"type":"way"}`+"\n",
		buf.String())
	assert.Equal(t, 2, w.Documents())
}

func TestWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true, discardLogger())

	require.NoError(t, w.LoadBatch(context.Background(), testDocs()[:1]))
	require.NoError(t, w.Close())

	assert.Equal(t, "{\n  \"id\": \"1\",\n  \"pos\": [\n    1.5,\n    2.5\n  ],\n  \"type\": \"node\"\n}\n", buf.String())

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "node", m["type"])
}

func TestWriter_EmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false, discardLogger())
	require.NoError(t, w.LoadBatch(context.Background(), nil))
	require.NoError(t, w.Close())
	assert.Empty(t, buf.String())
}

func TestCreate_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.osm.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("stale\n", 100)), 0o600))

	w, err := Create(path, false, discardLogger())
	require.NoError(t, err)
	require.NoError(t, w.LoadBatch(context.Background(), testDocs()))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, string(data), "stale")
}

func TestCreate_BadPath(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "out.json"), false, discardLogger())
	require.Error(t, err)
}
