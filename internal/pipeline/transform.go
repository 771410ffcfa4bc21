package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/osm-data-etl/internal/domain"
	"github.com/couchcryptid/osm-data-etl/internal/observability"
)

// ElementTransformer implements Transformer with a domain.Shaper and records
// what the shaper dropped.
type ElementTransformer struct {
	shaper  *domain.Shaper
	clean   bool
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTransformer creates an ElementTransformer. With clean set, the shaper's
// postcode, amenity and name normalization is applied.
func NewTransformer(shaper *domain.Shaper, clean bool, metrics *observability.Metrics, logger *slog.Logger) *ElementTransformer {
	return &ElementTransformer{
		shaper:  shaper,
		clean:   clean,
		metrics: metrics,
		logger:  logger,
	}
}

func (t *ElementTransformer) Transform(_ context.Context, el *domain.Element) (*domain.Document, error) {
	doc, err := t.shaper.Shape(el, t.clean)
	if err != nil || doc == nil {
		return doc, err
	}

	if d := doc.Dropped; d.Total() > 0 {
		t.recordDrops(d)
		t.logger.Debug("element inputs dropped",
			"type", doc.Type,
			"id", doc.ID(),
			"problem_keys", d.ProblemKeys,
			"street_detail", d.StreetDetail,
			"invalid_postcode", d.InvalidPostcode,
			"reserved_keys", d.ReservedKeys,
		)
	}
	return doc, nil
}

func (t *ElementTransformer) recordDrops(d domain.Drops) {
	add := func(reason string, n int) {
		if n > 0 {
			t.metrics.TagsDropped.WithLabelValues(reason).Add(float64(n))
		}
	}
	add(observability.DropProblemChars, d.ProblemKeys)
	add(observability.DropStreetDetail, d.StreetDetail)
	add(observability.DropInvalidPostcode, d.InvalidPostcode)
	add(observability.DropReservedKey, d.ReservedKeys)
}
