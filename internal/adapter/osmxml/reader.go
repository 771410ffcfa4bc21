package osmxml

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/osm-data-etl/internal/domain"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/net/html/charset"
)

// ErrMalformedXML wraps any syntax error reported by the decoder. Input
// without a root element or with content after it is also malformed.
var ErrMalformedXML = errors.New("malformed xml")

// Stats counts what the reader has seen so far.
type Stats struct {
	Shapeable int            // node and way elements returned
	Ignored   map[string]int // other elements directly under the root, by name
}

// Reader streams node and way elements out of an OSM XML document.
// It implements pipeline.BatchExtractor.
//
// Only the subtree of the node or way currently being parsed is held in
// memory; everything else is discarded as soon as its tokens are read.
type Reader struct {
	dec     *xml.Decoder
	closers []io.Closer
	logger  *slog.Logger

	open       []*domain.Element
	depth      int
	sawRoot    bool
	rootClosed bool
	stats      Stats
}

// NewReader creates a Reader over r. The caller owns r.
func NewReader(r io.Reader, logger *slog.Logger) *Reader {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return &Reader{
		dec:    dec,
		logger: logger,
		stats:  Stats{Ignored: make(map[string]int)},
	}
}

// Open opens an OSM XML file. Gzip-compressed input is detected from its
// magic bytes and decompressed on the fly.
func Open(path string, logger *slog.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	br := bufio.NewReaderSize(f, 64*1024)
	closers := []io.Closer{f}

	var src io.Reader = br
	if isGzip(br) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open gzip input: %w", err)
		}
		logger.Debug("gzip input detected", "path", path)
		closers = append([]io.Closer{gz}, closers...)
		src = gz
	}

	r := NewReader(src, logger)
	r.closers = closers
	return r, nil
}

func isGzip(br *bufio.Reader) bool {
	h, err := br.Peek(2)
	return err == nil && h[0] == 0x1f && h[1] == 0x8b
}

// Next returns the next node or way once its closing tag has been read,
// with all nested tag and nd elements attached. It returns io.EOF after the
// document ends.
func (r *Reader) Next() (*domain.Element, error) {
	for {
		tok, err := r.dec.Token()
		if errors.Is(err, io.EOF) {
			if !r.sawRoot {
				return nil, fmt.Errorf("%w: no root element", ErrMalformedXML)
			}
			r.logger.Debug("end of input", "elements", r.stats.Shapeable)
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("%w: offset %d: %v", ErrMalformedXML, r.dec.InputOffset(), err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if r.rootClosed {
				return nil, fmt.Errorf("%w: offset %d: content after root element", ErrMalformedXML, r.dec.InputOffset())
			}
			r.sawRoot = true
			r.depth++
			r.start(t)
		case xml.EndElement:
			r.depth--
			if r.depth == 0 {
				r.rootClosed = true
			}
			if el := r.end(); el != nil {
				r.stats.Shapeable++
				return el, nil
			}
		}
	}
}

func (r *Reader) start(t xml.StartElement) {
	name := t.Name.Local
	if len(r.open) == 0 && name != domain.KindNode && name != domain.KindWay {
		// depth 2 is a direct child of the root element.
		if r.depth == 2 {
			r.stats.Ignored[name]++
		}
		return
	}

	el := &domain.Element{Name: name, Attrs: make([]domain.Attr, 0, len(t.Attr))}
	for _, a := range t.Attr {
		el.Attrs = append(el.Attrs, domain.Attr{Name: a.Name.Local, Value: a.Value})
	}
	if n := len(r.open); n > 0 {
		parent := r.open[n-1]
		parent.Children = append(parent.Children, el)
	}
	r.open = append(r.open, el)
}

// end pops the innermost open element and returns it when it closes a
// node or way subtree.
func (r *Reader) end() *domain.Element {
	n := len(r.open)
	if n == 0 {
		return nil
	}
	el := r.open[n-1]
	r.open[n-1] = nil
	r.open = r.open[:n-1]
	if n == 1 {
		return el
	}
	return nil
}

// ExtractBatch reads up to batchSize elements. It returns io.EOF only when
// the document is exhausted and no elements were read.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]*domain.Element, error) {
	batch := make([]*domain.Element, 0, batchSize)
	for len(batch) < batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		el, err := r.Next()
		if errors.Is(err, io.EOF) {
			if len(batch) == 0 {
				return nil, io.EOF
			}
			return batch, nil
		}
		if err != nil {
			return nil, err
		}
		batch = append(batch, el)
	}
	return batch, nil
}

// Stats returns a snapshot of the reader's counters.
func (r *Reader) Stats() Stats {
	ignored := make(map[string]int, len(r.stats.Ignored))
	for k, v := range r.stats.Ignored {
		ignored[k] = v
	}
	return Stats{Shapeable: r.stats.Shapeable, Ignored: ignored}
}

// Close releases the underlying file, if the reader was created by Open.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
