package kpi

import (
	"sort"
	"time"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// DailyMetric holds the totals of one (date, status) group.
type DailyMetric struct {
	Date        time.Time
	Status      string
	TotalAmount float64
	AvgAmount   domain.NullFloat
	TotalQty    int
	AvgQty      float64
}

// StatusMetrics is the per-status block of the overall statistics. The amount figures
// only see non-null amounts.
type StatusMetrics struct {
	AmountSum   float64
	AmountMean  domain.NullFloat
	AmountCount int
	QtySum      int
	QtyMean     float64
}

// OverallStats summarizes the records matching the status filter. AllOrders is the size
// of the record set before filtering.
type OverallStats struct {
	TotalRevenue       float64
	TotalOrders        int
	AllOrders          int
	AvgOrderValue      domain.NullFloat
	StatusDistribution map[string]int
	Start, End         time.Time
	MetricsByStatus    map[string]StatusMetrics
}

// Aggregation is the output of Aggregate.
type Aggregation struct {
	DailyMetrics []DailyMetric
	OverallStats OverallStats
}

type dailyKey struct {
	date   time.Time
	status string
}

// Aggregate computes per-(date, status) metrics and overall statistics over the records
// matching status (all records when status is empty). A status matching nothing yields
// zeroed statistics, not an error.
func Aggregate(records []domain.Order, status string) (*Aggregation, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	filtered := FilterByStatus(records, status)

	return &Aggregation{
		DailyMetrics: dailyMetrics(filtered),
		OverallStats: overallStats(filtered, len(records)),
	}, nil
}

func dailyMetrics(records []domain.Order) []DailyMetric {
	groups := make(map[dailyKey]*bucket)
	for _, r := range records {
		key := dailyKey{date: truncateDay(r.Date), status: r.Status}
		b, ok := groups[key]
		if !ok {
			b = &bucket{}
			groups[key] = b
		}
		b.add(r)
	}

	keys := make([]dailyKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].date.Equal(keys[j].date) {
			return keys[i].date.Before(keys[j].date)
		}
		return keys[i].status < keys[j].status
	})

	metrics := make([]DailyMetric, 0, len(keys))
	for _, k := range keys {
		b := groups[k]
		avgQty, _ := Mean(b.qty)
		metrics = append(metrics, DailyMetric{
			Date:        k.date,
			Status:      k.status,
			TotalAmount: sum(b.amounts),
			AvgAmount:   meanOrNull(b.amounts),
			TotalQty:    b.totalQty(),
			AvgQty:      avgQty,
		})
	}
	return metrics
}

func overallStats(records []domain.Order, all int) OverallStats {
	all := &bucket{}
	perStatus := make(map[string]*bucket)
	stats := OverallStats{
		TotalOrders:        len(records),
		AllOrders:          all,
		StatusDistribution: make(map[string]int),
		MetricsByStatus:    make(map[string]StatusMetrics),
	}

	for i, r := range records {
		all.add(r)
		b, ok := perStatus[r.Status]
		if !ok {
			b = &bucket{}
			perStatus[r.Status] = b
		}
		b.add(r)
		stats.StatusDistribution[r.Status]++

		day := truncateDay(r.Date)
		if i == 0 || day.Before(stats.Start) {
			stats.Start = day
		}
		if i == 0 || day.After(stats.End) {
			stats.End = day
		}
	}

	stats.TotalRevenue = sum(all.amounts)
	stats.AvgOrderValue = meanOrNull(all.amounts)

	for status, b := range perStatus {
		qtyMean, _ := Mean(b.qty)
		stats.MetricsByStatus[status] = StatusMetrics{
			AmountSum:   sum(b.amounts),
			AmountMean:  meanOrNull(b.amounts),
			AmountCount: len(b.amounts),
			QtySum:      b.totalQty(),
			QtyMean:     qtyMean,
		}
	}

	return stats
}
