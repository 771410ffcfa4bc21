package pipeline

import (
	"context"

	"github.com/couchcryptid/osm-data-etl/internal/domain"
)

// FanOut returns a BatchLoader that hands every batch to each loader in turn,
// stopping at the first error.
func FanOut(loaders ...BatchLoader) BatchLoader {
	if len(loaders) == 1 {
		return loaders[0]
	}
	return fanOut(loaders)
}

type fanOut []BatchLoader

func (f fanOut) LoadBatch(ctx context.Context, docs []*domain.Document) error {
	for _, l := range f {
		if err := l.LoadBatch(ctx, docs); err != nil {
			return err
		}
	}
	return nil
}
