package kpi

import (
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// Metric selects the value plotted by DailySeries.
type Metric string

const (
	MetricAmount Metric = "amount"
	MetricQty    Metric = "qty"
)

// ParseMetric accepts "amount" and "qty" (case-insensitive). An empty string means amount.
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case "", MetricAmount:
		return MetricAmount, nil
	case MetricQty, "quantity":
		return MetricQty, nil
	default:
		return "", fmt.Errorf("unknown metric %q", s)
	}
}

// DailySeries returns the per-date total of metric, ascending by date. Dates listed in
// exclude are dropped from the series.
func DailySeries(records []domain.Order, metric Metric, exclude []time.Time) []domain.TimeSeriesPoint {
	skip := make(map[time.Time]struct{}, len(exclude))
	for _, d := range exclude {
		skip[truncateDay(d)] = struct{}{}
	}

	totals := DailyTotals(records)
	points := make([]domain.TimeSeriesPoint, 0, len(totals))
	for _, t := range totals {
		if _, ok := skip[t.Date]; ok {
			continue
		}
		value := t.Amount
		if metric == MetricQty {
			value = float64(t.Quantity)
		}
		points = append(points, domain.TimeSeriesPoint{
			Date:  formatDate(t.Date),
			Value: value,
		})
	}
	return points
}

// ParseExcludedDates parses day-first dates such as "31/03/2022".
func ParseExcludedDates(values []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		text := v
		d, err := ParseOrderDate(&text)
		if err != nil {
			return nil, fmt.Errorf("excluded date %q: %w", v, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
