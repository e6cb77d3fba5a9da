package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/kpi-visualizer/internal/cache"
	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/kpi"
	"github.com/andresuchdata/kpi-visualizer/internal/repository"
)

// IngestService loads parsed sale reports into the store.
type IngestService struct {
	writer repository.OrderWriter
	cache  cache.SummaryCache
	strict bool
}

// NewIngestService builds the loader. With strict set, rows that would fail
// normalization are rejected before anything is written.
func NewIngestService(writer repository.OrderWriter, summaryCache cache.SummaryCache, strict bool) *IngestService {
	if summaryCache == nil {
		summaryCache = cache.NewNoopSummaryCache()
	}
	return &IngestService{writer: writer, cache: summaryCache, strict: strict}
}

// Load writes rows read from source, replacing the table contents when replace is set.
func (s *IngestService) Load(ctx context.Context, source string, rows []domain.RawOrder, replace bool) (*domain.IngestResult, error) {
	if len(rows) == 0 && !replace {
		return nil, fmt.Errorf("%s: %w", source, kpi.ErrEmptyInput)
	}

	if s.strict {
		if _, err := kpi.Normalize(rows); err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
	}

	n, err := s.writer.Load(ctx, rows, replace)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("summary cache invalidation failed")
	}

	log.Info().Str("source", source).Int64("rows", n).Msg("sale report ingested")

	return &domain.IngestResult{
		Source:   source,
		Rows:     n,
		LoadedAt: time.Now().UTC(),
	}, nil
}
