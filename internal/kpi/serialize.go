package kpi

import (
	"time"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// SummaryDateLayout is the date format of every date in a serialized summary.
const SummaryDateLayout = "2006-01-02"

const statusMetricDecimals = 2

type statusField struct {
	key   string
	value func(StatusMetrics) domain.NullFloat
}

// statusFields flattens the status x metric table into its summary keys.
var statusFields = []statusField{
	{"amount_sum", func(m StatusMetrics) domain.NullFloat { return domain.Float(m.AmountSum) }},
	{"amount_mean", func(m StatusMetrics) domain.NullFloat { return m.AmountMean }},
	{"amount_count", func(m StatusMetrics) domain.NullFloat { return domain.Float(float64(m.AmountCount)) }},
	{"qty_sum", func(m StatusMetrics) domain.NullFloat { return domain.Float(float64(m.QtySum)) }},
	{"qty_mean", func(m StatusMetrics) domain.NullFloat { return domain.Float(m.QtyMean) }},
}

// Serialize assembles the aggregation and trend results into the summary document.
func Serialize(daily []DailyMetric, overall OverallStats, trends *Trends) domain.KPISummary {
	if trends == nil {
		trends = EmptyTrends()
	}

	return domain.KPISummary{
		DailyMetrics: serializeDaily(daily),
		OverallStats: serializeOverall(overall),
		Trends:       serializeTrends(trends),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(SummaryDateLayout)
}

func serializeDaily(daily []DailyMetric) []domain.DailyMetric {
	out := make([]domain.DailyMetric, 0, len(daily))
	for _, m := range daily {
		out = append(out, domain.DailyMetric{
			Date:          formatDate(m.Date),
			Status:        m.Status,
			TotalSales:    m.TotalAmount,
			AvgSales:      m.AvgAmount,
			TotalQuantity: m.TotalQty,
			AvgQuantity:   m.AvgQty,
		})
	}
	return out
}

func serializeOverall(stats OverallStats) domain.OverallStats {
	distribution := make(map[string]int, len(stats.StatusDistribution))
	for status, n := range stats.StatusDistribution {
		distribution[status] = n
	}

	byStatus := make(map[string]map[string]domain.NullFloat, len(stats.MetricsByStatus))
	for status, m := range stats.MetricsByStatus {
		fields := make(map[string]domain.NullFloat, len(statusFields))
		for _, f := range statusFields {
			v := f.value(m)
			if v.Valid {
				v.Float64 = roundFloat(v.Float64, statusMetricDecimals)
			}
			fields[f.key] = v
		}
		byStatus[status] = fields
	}

	return domain.OverallStats{
		TotalRevenue:       stats.TotalRevenue,
		TotalOrders:        stats.TotalOrders,
		AllOrders:          stats.AllOrders,
		AvgOrderValue:      stats.AvgOrderValue,
		StatusDistribution: distribution,
		DateRange: domain.DateRange{
			Start: formatDate(stats.Start),
			End:   formatDate(stats.End),
		},
		MetricsByStatus: byStatus,
	}
}

func serializeTrends(t *Trends) domain.Trends {
	top := make([]domain.DayTotal, 0, len(t.TopPerformingDays))
	for _, d := range t.TopPerformingDays {
		top = append(top, domain.DayTotal{
			Date:     formatDate(d.Date),
			Amount:   d.Amount,
			Quantity: d.Quantity,
		})
	}

	weekly := make([]domain.WeeklyAverage, 0, len(t.WeeklyAverages))
	for _, w := range t.WeeklyAverages {
		weekly = append(weekly, domain.WeeklyAverage{
			WeekEnding: formatDate(w.WeekEnding),
			Amount:     w.Amount,
			Quantity:   w.Quantity,
		})
	}

	return domain.Trends{
		DailyGrowth: domain.Growth{
			Amount:   t.DailyGrowth.Amount,
			Quantity: t.DailyGrowth.Quantity,
		},
		TopPerformingDays: top,
		WeeklyAverages:    weekly,
	}
}
