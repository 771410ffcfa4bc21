package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/osm-data-etl/internal/domain"
	"github.com/couchcryptid/osm-data-etl/internal/observability"
)

// BatchExtractor reads up to batchSize elements from the source. It returns
// io.EOF once the source is exhausted.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]*domain.Element, error)
}

// Transformer shapes one element. A nil document means the element produces
// no output.
type Transformer interface {
	Transform(ctx context.Context, el *domain.Element) (*domain.Document, error)
}

// BatchLoader writes documents to the destination in the order given.
type BatchLoader interface {
	LoadBatch(ctx context.Context, docs []*domain.Document) error
}

// Options tunes a Pipeline. Zero values select defaults.
type Options struct {
	BatchSize int
	Workers   int
	Clock     clockwork.Clock
}

// Summary describes a finished or in-progress run.
type Summary struct {
	Elements  int64         `json:"elements"`
	Documents int64         `json:"documents"`
	Duration  time.Duration `json:"duration_ns"`
}

// Pipeline runs a single extract-shape-load pass over its source.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	batchSize   int
	workers     int

	ready     atomic.Bool
	elements  atomic.Int64
	documents atomic.Int64
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       opts.Clock,
		batchSize:   opts.BatchSize,
		workers:     opts.Workers,
	}
}

// CheckReadiness returns nil once the pipeline has loaded its first batch.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded any documents yet")
	}
	return nil
}

// Progress returns the counts so far. Duration is left zero.
func (p *Pipeline) Progress() Summary {
	return Summary{Elements: p.elements.Load(), Documents: p.documents.Load()}
}

// Run drains the extractor, shaping and loading each batch in source order.
// The first error from any stage aborts the run; nothing is retried.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := p.clock.Now()
	p.logger.Info("pipeline started", "batch_size", p.batchSize, "workers", p.workers)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		done, err := p.processBatch(ctx)
		if err != nil {
			summary := p.summary(start)
			p.logger.Error("pipeline aborted", "error", err,
				"elements", summary.Elements, "documents", summary.Documents)
			return summary, err
		}
		if done {
			break
		}
	}

	summary := p.summary(start)
	p.logger.Info("pipeline finished",
		"elements", summary.Elements,
		"documents", summary.Documents,
		"duration", summary.Duration,
	)
	return summary, nil
}

func (p *Pipeline) summary(start time.Time) Summary {
	s := p.Progress()
	s.Duration = p.clock.Since(start)
	return s
}

// processBatch runs one extract-shape-load cycle. It reports done once the
// extractor is exhausted.
func (p *Pipeline) processBatch(ctx context.Context) (bool, error) {
	start := p.clock.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("extract: %w", err)
	}
	if len(batch) == 0 {
		return false, nil
	}

	p.metrics.BatchSize.Observe(float64(len(batch)))
	for _, el := range batch {
		p.metrics.ElementsRead.WithLabelValues(el.Name).Inc()
	}
	p.elements.Add(int64(len(batch)))

	docs, err := p.shapeBatch(ctx, batch)
	if err != nil {
		return false, err
	}

	if len(docs) > 0 {
		if err := p.loader.LoadBatch(ctx, docs); err != nil {
			return false, fmt.Errorf("load: %w", err)
		}
		p.metrics.DocumentsWritten.Add(float64(len(docs)))
		p.documents.Add(int64(len(docs)))
		p.ready.Store(true)
	}

	// Shaped and written: the subtrees are no longer needed.
	for _, el := range batch {
		el.Release()
	}

	p.metrics.BatchProcessingDuration.Observe(p.clock.Since(start).Seconds())
	return false, nil
}

// shapeBatch transforms every element, in parallel when more than one worker
// is configured. The returned documents keep the batch order.
func (p *Pipeline) shapeBatch(ctx context.Context, batch []*domain.Element) ([]*domain.Document, error) {
	shaped := make([]*domain.Document, len(batch))

	if p.workers == 1 || len(batch) == 1 {
		for i, el := range batch {
			doc, err := p.transformer.Transform(ctx, el)
			if err != nil {
				return nil, fmt.Errorf("shape: %w", err)
			}
			shaped[i] = doc
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers)
		for i, el := range batch {
			g.Go(func() error {
				doc, err := p.transformer.Transform(gctx, el)
				if err != nil {
					return fmt.Errorf("shape: %w", err)
				}
				shaped[i] = doc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	docs := shaped[:0]
	for _, doc := range shaped {
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
