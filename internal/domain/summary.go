package domain

import (
	"bytes"
	"encoding/json"
)

// NullFloat is a float that may be undefined (mean of nothing, growth over a single
// day). Undefined values encode as JSON null, never as 0 or NaN.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a defined NullFloat.
func Float(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Float64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// KPISummary is the serialized KPI snapshot handed to the chart layer and the assistant.
type KPISummary struct {
	DailyMetrics []DailyMetric `json:"daily_metrics"`
	OverallStats OverallStats  `json:"overall_stats"`
	Trends       Trends        `json:"trends"`
}

// DailyMetric holds the totals for one (date, status) pair.
type DailyMetric struct {
	Date          string    `json:"date"`
	Status        string    `json:"status"`
	TotalSales    float64   `json:"total_sales"`
	AvgSales      NullFloat `json:"avg_sales"`
	TotalQuantity int       `json:"total_quantity"`
	AvgQuantity   float64   `json:"avg_quantity"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type OverallStats struct {
	TotalRevenue       float64                         `json:"total_revenue"`
	TotalOrders        int                             `json:"total_orders"`
	AllOrders          int                             `json:"all_orders"`
	AvgOrderValue      NullFloat                       `json:"avg_order_value"`
	StatusDistribution map[string]int                  `json:"status_distribution"`
	DateRange          DateRange                       `json:"date_range"`
	MetricsByStatus    map[string]map[string]NullFloat `json:"metrics_by_status"`
}

type Trends struct {
	DailyGrowth       Growth          `json:"daily_growth"`
	TopPerformingDays []DayTotal      `json:"top_performing_days"`
	WeeklyAverages    []WeeklyAverage `json:"weekly_averages"`
}

type Growth struct {
	Amount   NullFloat `json:"amount"`
	Quantity NullFloat `json:"quantity"`
}

type DayTotal struct {
	Date     string  `json:"date"`
	Amount   float64 `json:"amount"`
	Quantity int     `json:"quantity"`
}

// WeeklyAverage is keyed by the Sunday that closes the week.
type WeeklyAverage struct {
	WeekEnding string    `json:"week_ending"`
	Amount     NullFloat `json:"amount"`
	Quantity   float64   `json:"quantity"`
}
