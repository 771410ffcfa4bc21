package ndjson

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/osm-data-etl/internal/domain"
)

// Indent is the indentation used for pretty output.
const Indent = "  "

// OutputPath returns the default output path for an input file.
func OutputPath(input string) string {
	return input + ".json"
}

// Writer appends one JSON document per line to an output stream.
// It implements pipeline.BatchLoader.
type Writer struct {
	out    *bufio.Writer
	closer io.Closer
	indent string
	logger *slog.Logger
	lines  int
}

// NewWriter creates a Writer over w. With pretty set, each document is
// written indented over several lines, still followed by a newline.
func NewWriter(w io.Writer, pretty bool, logger *slog.Logger) *Writer {
	wr := &Writer{
		out:    bufio.NewWriterSize(w, 64*1024),
		logger: logger,
	}
	if pretty {
		wr.indent = Indent
	}
	return wr
}

// Create truncates or creates the file at path and returns a Writer for it.
func Create(path string, pretty bool, logger *slog.Logger) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	w := NewWriter(f, pretty, logger)
	w.closer = f
	logger.Info("writing output", "path", path, "pretty", pretty)
	return w, nil
}

// LoadBatch serializes docs in order, one per line.
func (w *Writer) LoadBatch(_ context.Context, docs []*domain.Document) error {
	for _, doc := range docs {
		data, err := domain.MarshalDocument(doc, w.indent)
		if err != nil {
			return fmt.Errorf("serialize %s %s: %w", doc.Type, doc.ID(), err)
		}
		if _, err := w.out.Write(data); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if err := w.out.WriteByte('\n'); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		w.lines++
	}
	return nil
}

// Documents returns the number of documents written so far.
func (w *Writer) Documents() int {
	return w.lines
}

// Close flushes buffered output and closes the file if Create opened it.
func (w *Writer) Close() error {
	if err := w.out.Flush(); err != nil {
		if w.closer != nil {
			_ = w.closer.Close()
		}
		return fmt.Errorf("flush output: %w", err)
	}
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
