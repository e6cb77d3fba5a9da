package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/kpi-visualizer/internal/cache"
	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/kpi"
	"github.com/andresuchdata/kpi-visualizer/internal/repository"
)

// ErrInvalidArgument marks a request the caller has to fix.
var ErrInvalidArgument = errors.New("invalid argument")

type AnalyticsService struct {
	repo    repository.OrderRepository
	cache   cache.SummaryCache
	exclude []time.Time
}

// NewAnalyticsService builds the service. excluded are the dates dropped from chart
// series; a nil cache disables caching.
func NewAnalyticsService(repo repository.OrderRepository, summaryCache cache.SummaryCache, excluded []time.Time) *AnalyticsService {
	if summaryCache == nil {
		summaryCache = cache.NewNoopSummaryCache()
	}
	return &AnalyticsService{
		repo:    repo,
		cache:   summaryCache,
		exclude: excluded,
	}
}

// Summary returns the KPI summary of the whole store, filtered to status when set.
func (s *AnalyticsService) Summary(ctx context.Context, status string) (*domain.KPISummary, error) {
	status = strings.TrimSpace(status)

	cached, ok, err := s.cache.GetSummary(ctx, status)
	if err != nil {
		log.Warn().Err(err).Str("status", status).Msg("summary cache read failed")
	}
	if ok {
		return cached, nil
	}

	rows, err := s.repo.LoadOrders(ctx, domain.OrderFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	start := time.Now()
	summary, err := kpi.BuildRaw(rows, status)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("status", status).
		Int("rows", len(rows)).
		Dur("took", time.Since(start)).
		Msg("kpi summary built")

	if err := s.cache.SetSummary(ctx, status, summary); err != nil {
		log.Warn().Err(err).Str("status", status).Msg("summary cache write failed")
	}

	return summary, nil
}

// TimeSeries returns the per-date total of metric for one status.
func (s *AnalyticsService) TimeSeries(ctx context.Context, status, metric string) ([]domain.TimeSeriesPoint, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalidArgument)
	}
	m, err := kpi.ParseMetric(metric)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	rows, err := s.repo.LoadOrders(ctx, domain.OrderFilter{Statuses: []string{status}})
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	records, err := kpi.Normalize(rows)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	return kpi.DailySeries(kpi.FilterByStatus(records, status), m, s.exclude), nil
}

// Statuses lists the distinct order statuses in the store.
func (s *AnalyticsService) Statuses(ctx context.Context) ([]string, error) {
	statuses, err := s.repo.ListStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}
