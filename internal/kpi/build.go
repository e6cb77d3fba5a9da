package kpi

import (
	"fmt"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// Build runs aggregation and trend analysis over records and serializes the result.
// A status that matches no record still yields a summary: no daily metrics, zeroed
// overall statistics and empty trends.
func Build(records []domain.Order, status string) (*domain.KPISummary, error) {
	agg, err := Aggregate(records, status)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	trends := EmptyTrends()
	if filtered := FilterByStatus(records, status); len(filtered) > 0 {
		trends, err = AnalyzeTrends(filtered)
		if err != nil {
			return nil, fmt.Errorf("analyze trends: %w", err)
		}
	}

	summary := Serialize(agg.DailyMetrics, agg.OverallStats, trends)
	return &summary, nil
}

// BuildRaw normalizes rows and builds the summary.
func BuildRaw(rows []domain.RawOrder, status string) (*domain.KPISummary, error) {
	records, err := Normalize(rows)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return Build(records, status)
}
