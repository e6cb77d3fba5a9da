package kpi

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// --- fixtures ---

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func raw(row int, date, status string, amount *float64, qty int) domain.RawOrder {
	r := domain.RawOrder{
		Row:     row,
		OrderID: "405-000000" + string(rune('0'+row%10)),
		Date:    strPtr(date),
		Qty:     intPtr(qty),
		Amount:  amount,
	}
	if status != "" {
		r.Status = strPtr(status)
	}
	return r
}

func normalized(t *testing.T, rows ...domain.RawOrder) []domain.Order {
	t.Helper()
	records, err := Normalize(rows)
	require.NoError(t, err)
	return records
}

func mixedRows() []domain.RawOrder {
	return []domain.RawOrder{
		raw(1, "01/04/2022", "Shipped", floatPtr(100), 2),
		raw(2, "01/04/2022", "Cancelled", floatPtr(75), 1),
		raw(3, "02/04/2022", "Shipped", floatPtr(150), 3),
		raw(4, "03/04/2022", "Shipped - Delivered to Buyer", floatPtr(40), 1),
		raw(5, "04/04/2022", "", floatPtr(10), 1),
		raw(6, "05/04/2022", "Shipped", nil, 1),
		raw(7, "06/04/2022", "Shipped", floatPtr(500), 4),
		raw(8, "07/04/2022", "Unshipped", floatPtr(20), 1),
		raw(9, "08/04/2022", "Shipped", floatPtr(90), 2),
	}
}

// --- normalizer ---

func TestNormalize_FillsSentinels(t *testing.T) {
	records := normalized(t, raw(1, "1/4/2022", "", floatPtr(10), 1))
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, UnknownValue, r.Status)
	assert.Equal(t, UnknownValue, r.CourierStatus)
	assert.Equal(t, UnknownValue, r.ShipCity)
	assert.Equal(t, UnknownValue, r.ShipState)
	assert.Equal(t, UnknownValue, r.ShipPostalCode)
	assert.Equal(t, UnknownValue, r.ShipCountry)
	assert.Equal(t, NoPromotion, r.PromotionIDs)
	assert.Equal(t, NotEasyShipping, r.FulfilledBy)
	assert.Equal(t, UnknownCurrency, r.Currency)
	assert.Equal(t, "", r.SKU)
	assert.Equal(t, day(2022, time.April, 1), r.Date)
	assert.Nil(t, r.Amount, "unknown status carries no revenue")
}

func TestNormalize_KeepsPresentValues(t *testing.T) {
	row := raw(1, "15/06/2022", "Shipped", floatPtr(0), 1)
	row.ShipCity = strPtr("MUMBAI")
	row.PromotionIDs = strPtr("IN Core Free Shipping")
	row.FulfilledBy = strPtr("Easy Ship")

	records := normalized(t, row)
	r := records[0]
	assert.Equal(t, "MUMBAI", r.ShipCity)
	assert.Equal(t, "IN Core Free Shipping", r.PromotionIDs)
	assert.Equal(t, "Easy Ship", r.FulfilledBy)
	require.NotNil(t, r.Amount, "a genuine zero amount stays defined")
	assert.Equal(t, 0.0, *r.Amount)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	rows := []domain.RawOrder{raw(1, "01/04/2022", "", floatPtr(10), 1)}
	_, err := Normalize(rows)
	require.NoError(t, err)
	assert.Nil(t, rows[0].Status)
	require.NotNil(t, rows[0].Amount)
	assert.Equal(t, 10.0, *rows[0].Amount)
}

func TestNormalize_NullAmountInvariant(t *testing.T) {
	records := normalized(t, mixedRows()...)
	for _, r := range records {
		if IsUnfulfilled(r.Status) {
			assert.Nil(t, r.Amount, "row %d status %s", r.Row, r.Status)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	first := normalized(t, mixedRows()...)

	again := make([]domain.RawOrder, 0, len(first))
	for _, r := range first {
		again = append(again, r.Raw())
	}
	second := normalized(t, again...)

	assert.Equal(t, first, second)
}

func TestNormalize_MalformedDate(t *testing.T) {
	tests := []struct {
		name string
		date *string
	}{
		{"missing", nil},
		{"empty", strPtr("  ")},
		{"month first", strPtr("04/31/2022")},
		{"iso", strPtr("2022-04-01")},
		{"garbage", strPtr("yesterday")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := raw(7, "01/04/2022", "Shipped", floatPtr(1), 1)
			row.Date = tt.date

			_, err := Normalize([]domain.RawOrder{raw(1, "01/04/2022", "Shipped", floatPtr(1), 1), row})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInput))

			var rec *MalformedRecordError
			require.True(t, errors.As(err, &rec))
			assert.Equal(t, 7, rec.Row)
			assert.Equal(t, "date", rec.Field)
		})
	}
}

func TestNormalize_MalformedNumbers(t *testing.T) {
	missingQty := raw(3, "01/04/2022", "Shipped", floatPtr(1), 1)
	missingQty.Qty = nil

	_, err := Normalize([]domain.RawOrder{missingQty})
	require.ErrorIs(t, err, ErrMalformedInput)

	_, err = Normalize([]domain.RawOrder{raw(4, "01/04/2022", "Shipped", floatPtr(1), -2)})
	require.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), `invalid qty "-2"`)

	_, err = Normalize([]domain.RawOrder{raw(5, "01/04/2022", "Shipped", floatPtr(-10), 1)})
	require.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), `invalid amount "-10"`)
}

func TestNormalize_NegativeAmountRejectedForAnyStatus(t *testing.T) {
	for _, status := range []string{"Cancelled", "Unshipped", ""} {
		_, err := Normalize([]domain.RawOrder{raw(6, "01/04/2022", status, floatPtr(-10), 1)})
		require.ErrorIs(t, err, ErrMalformedInput, "status %q", status)

		var rec *MalformedRecordError
		require.ErrorAs(t, err, &rec)
		assert.Equal(t, 6, rec.Row)
		assert.Equal(t, "amount", rec.Field)
	}
}

func TestSentinel(t *testing.T) {
	v, ok := Sentinel("promotion_ids")
	assert.True(t, ok)
	assert.Equal(t, "None", v)

	_, ok = Sentinel("order_id")
	assert.False(t, ok)
}

// --- aggregator ---

func TestAggregate_ExampleShipped(t *testing.T) {
	records := normalized(t,
		raw(1, "01/04/2022", "Shipped", floatPtr(100), 2),
		raw(2, "02/04/2022", "Shipped", floatPtr(150), 3),
	)

	summary, err := Build(records, "")
	require.NoError(t, err)

	assert.Equal(t, 250.0, summary.OverallStats.TotalRevenue)
	assert.Equal(t, 2, summary.OverallStats.TotalOrders)
	require.True(t, summary.Trends.DailyGrowth.Amount.Valid)
	assert.InDelta(t, 0.5, summary.Trends.DailyGrowth.Amount.Float64, 1e-9)
	assert.InDelta(t, 0.5, summary.Trends.DailyGrowth.Quantity.Float64, 1e-9)
	assert.Equal(t, "2022-04-01", summary.OverallStats.DateRange.Start)
	assert.Equal(t, "2022-04-02", summary.OverallStats.DateRange.End)
}

func TestAggregate_ExampleCancelled(t *testing.T) {
	records := normalized(t, raw(1, "01/04/2022", "Cancelled", floatPtr(75), 1))
	require.Nil(t, records[0].Amount)

	agg, err := Aggregate(records, "")
	require.NoError(t, err)

	assert.Equal(t, 0.0, agg.OverallStats.TotalRevenue)
	assert.Equal(t, 1, agg.OverallStats.TotalOrders)
	assert.False(t, agg.OverallStats.AvgOrderValue.Valid)

	m := agg.OverallStats.MetricsByStatus["Cancelled"]
	assert.Equal(t, 0, m.AmountCount)
	assert.False(t, m.AmountMean.Valid)
	assert.Equal(t, 1, m.QtySum)
}

func TestAggregate_EmptyInput(t *testing.T) {
	_, err := Aggregate(nil, "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = AnalyzeTrends([]domain.Order{})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Build(nil, "Shipped")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAggregate_Conservation(t *testing.T) {
	records := normalized(t, mixedRows()...)

	for _, status := range []string{"", "Shipped", "Cancelled", "Nope"} {
		agg, err := Aggregate(records, status)
		require.NoError(t, err)

		filtered := FilterByStatus(records, status)
		total := 0
		for _, n := range agg.OverallStats.StatusDistribution {
			total += n
		}
		assert.Equal(t, len(filtered), agg.OverallStats.TotalOrders, "status %q", status)
		assert.Equal(t, len(filtered), total, "status %q", status)
		assert.Equal(t, len(records), agg.OverallStats.AllOrders, "status %q", status)
	}
}

func TestAggregate_OverallStatsFollowFilter(t *testing.T) {
	records := normalized(t,
		raw(1, "01/04/2022", "Shipped", floatPtr(100), 2),
		raw(2, "05/05/2022", "Shipped", floatPtr(150), 3),
		raw(3, "02/04/2022", "Cancelled", floatPtr(75), 1),
	)

	agg, err := Aggregate(records, "Cancelled")
	require.NoError(t, err)

	stats := agg.OverallStats
	assert.Equal(t, 0.0, stats.TotalRevenue)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 3, stats.AllOrders)
	assert.False(t, stats.AvgOrderValue.Valid)
	assert.Equal(t, map[string]int{"Cancelled": 1}, stats.StatusDistribution)
	assert.Equal(t, day(2022, time.April, 2), stats.Start)
	assert.Equal(t, day(2022, time.April, 2), stats.End)
	assert.Len(t, stats.MetricsByStatus, 1)

	agg, err = Aggregate(records, "Shipped")
	require.NoError(t, err)
	assert.Equal(t, 250.0, agg.OverallStats.TotalRevenue)
	assert.Equal(t, day(2022, time.April, 1), agg.OverallStats.Start)
	assert.Equal(t, day(2022, time.May, 5), agg.OverallStats.End)
}

func TestAggregate_DailyMetricsOrdering(t *testing.T) {
	records := normalized(t,
		raw(1, "02/04/2022", "Shipped", floatPtr(5), 1),
		raw(2, "01/04/2022", "Shipped", floatPtr(5), 1),
		raw(3, "01/04/2022", "Cancelled", floatPtr(5), 2),
	)

	agg, err := Aggregate(records, "")
	require.NoError(t, err)
	require.Len(t, agg.DailyMetrics, 3)

	assert.Equal(t, "Cancelled", agg.DailyMetrics[0].Status)
	assert.Equal(t, "Shipped", agg.DailyMetrics[1].Status)
	assert.Equal(t, day(2022, time.April, 2), agg.DailyMetrics[2].Date)

	cancelled := agg.DailyMetrics[0]
	assert.Equal(t, 0.0, cancelled.TotalAmount)
	assert.False(t, cancelled.AvgAmount.Valid)
	assert.Equal(t, 2, cancelled.TotalQty)
	assert.Equal(t, 2.0, cancelled.AvgQty)
}

func TestAggregate_StatusFilter(t *testing.T) {
	records := normalized(t, mixedRows()...)

	agg, err := Aggregate(records, "Shipped")
	require.NoError(t, err)

	assert.Equal(t, 5, agg.OverallStats.TotalOrders)
	for _, m := range agg.DailyMetrics {
		assert.Equal(t, "Shipped", m.Status)
	}

	agg, err = Aggregate(records, "shipped")
	require.NoError(t, err)
	assert.Equal(t, 0, agg.OverallStats.TotalOrders, "filter is case-sensitive")
}

func TestMean_Empty(t *testing.T) {
	_, err := Mean(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	m, err := Mean([]float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2.0, m)
}

// --- trends ---

func TestAnalyzeTrends_SingleDayGrowthUndefined(t *testing.T) {
	records := normalized(t,
		raw(1, "01/04/2022", "Shipped", floatPtr(10), 1),
		raw(2, "01/04/2022", "Shipped", floatPtr(20), 1),
	)

	trends, err := AnalyzeTrends(records)
	require.NoError(t, err)
	assert.False(t, trends.DailyGrowth.Amount.Valid)
	assert.False(t, trends.DailyGrowth.Quantity.Valid)
	require.Len(t, trends.TopPerformingDays, 1)
	assert.Equal(t, 30.0, trends.TopPerformingDays[0].Amount)
}

func TestAnalyzeTrends_GapsNotInterpolated(t *testing.T) {
	records := normalized(t,
		raw(1, "01/04/2022", "Shipped", floatPtr(100), 1),
		raw(2, "10/04/2022", "Shipped", floatPtr(200), 1),
		raw(3, "11/04/2022", "Shipped", floatPtr(100), 1),
	)

	trends, err := AnalyzeTrends(records)
	require.NoError(t, err)
	// steps: +100%, -50%
	assert.InDelta(t, 0.25, trends.DailyGrowth.Amount.Float64, 1e-9)
}

func TestAnalyzeTrends_SkipsStepsFromZero(t *testing.T) {
	records := normalized(t,
		raw(1, "01/04/2022", "Cancelled", floatPtr(100), 1),
		raw(2, "02/04/2022", "Shipped", floatPtr(200), 1),
	)

	trends, err := AnalyzeTrends(records)
	require.NoError(t, err)
	assert.False(t, trends.DailyGrowth.Amount.Valid)
	require.True(t, trends.DailyGrowth.Quantity.Valid)
	assert.Equal(t, 0.0, trends.DailyGrowth.Quantity.Float64)
}

func TestAnalyzeTrends_TopDays(t *testing.T) {
	records := normalized(t, mixedRows()...)

	trends, err := AnalyzeTrends(records)
	require.NoError(t, err)

	top := trends.TopPerformingDays
	require.LessOrEqual(t, len(top), TopDaysLimit)
	require.Len(t, top, TopDaysLimit)
	assert.Equal(t, day(2022, time.April, 6), top[0].Date)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Amount, top[i].Amount)
	}

	// every day left out is no better than the last one kept
	kept := make(map[time.Time]bool)
	for _, d := range top {
		kept[d.Date] = true
	}
	for _, d := range DailyTotals(records) {
		if !kept[d.Date] {
			assert.LessOrEqual(t, d.Amount, top[len(top)-1].Amount)
		}
	}
}

func TestTopDays_TiesByDate(t *testing.T) {
	totals := []DayTotal{
		{Date: day(2022, time.April, 3), Amount: 10},
		{Date: day(2022, time.April, 1), Amount: 10},
		{Date: day(2022, time.April, 2), Amount: 20},
	}
	top := TopDays(totals, 2)
	require.Len(t, top, 2)
	assert.Equal(t, day(2022, time.April, 2), top[0].Date)
	assert.Equal(t, day(2022, time.April, 1), top[1].Date)
}

func TestWeekEnding(t *testing.T) {
	// 2022-04-03 is a Sunday
	assert.Equal(t, day(2022, time.April, 3), WeekEnding(day(2022, time.March, 28)))
	assert.Equal(t, day(2022, time.April, 3), WeekEnding(day(2022, time.April, 1)))
	assert.Equal(t, day(2022, time.April, 3), WeekEnding(day(2022, time.April, 3)))
	assert.Equal(t, day(2022, time.April, 10), WeekEnding(day(2022, time.April, 4)))
}

func TestAnalyzeTrends_WeeklyAverages(t *testing.T) {
	records := normalized(t,
		raw(1, "01/04/2022", "Shipped", floatPtr(100), 2),
		raw(2, "03/04/2022", "Cancelled", floatPtr(50), 4),
		raw(3, "04/04/2022", "Shipped", floatPtr(30), 1),
	)

	trends, err := AnalyzeTrends(records)
	require.NoError(t, err)
	require.Len(t, trends.WeeklyAverages, 2)

	first := trends.WeeklyAverages[0]
	assert.Equal(t, day(2022, time.April, 3), first.WeekEnding)
	assert.Equal(t, domain.Float(100), first.Amount)
	assert.Equal(t, 3.0, first.Quantity)

	second := trends.WeeklyAverages[1]
	assert.Equal(t, day(2022, time.April, 10), second.WeekEnding)
	assert.Equal(t, domain.Float(30), second.Amount)
}

func TestAnalyzeTrends_WeeklyAveragesSkipEmptyWeeks(t *testing.T) {
	records := normalized(t,
		raw(1, "01/04/2022", "Shipped", floatPtr(100), 2),
		raw(2, "15/04/2022", "Shipped", floatPtr(40), 1),
	)

	trends, err := AnalyzeTrends(records)
	require.NoError(t, err)
	require.Len(t, trends.WeeklyAverages, 2)
	assert.Equal(t, day(2022, time.April, 3), trends.WeeklyAverages[0].WeekEnding)
	assert.Equal(t, day(2022, time.April, 17), trends.WeeklyAverages[1].WeekEnding)
}

// --- serializer / pipeline ---

func TestBuild_FilterMiss(t *testing.T) {
	records := normalized(t, mixedRows()...)

	summary, err := Build(records, "Returned")
	require.NoError(t, err)

	assert.Empty(t, summary.DailyMetrics)
	assert.NotNil(t, summary.DailyMetrics)
	assert.Equal(t, len(records), summary.OverallStats.AllOrders)

	stats := summary.OverallStats
	assert.Equal(t, 0.0, stats.TotalRevenue)
	assert.Equal(t, 0, stats.TotalOrders)
	assert.False(t, stats.AvgOrderValue.Valid)
	assert.Empty(t, stats.StatusDistribution)
	assert.Empty(t, stats.MetricsByStatus)
	assert.Equal(t, domain.DateRange{}, stats.DateRange)

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"avg_order_value":null`)
	assert.Contains(t, string(data), `"status_distribution":{}`)
	assert.False(t, summary.Trends.DailyGrowth.Amount.Valid)
	assert.Empty(t, summary.Trends.TopPerformingDays)
	assert.Empty(t, summary.Trends.WeeklyAverages)
}

func TestBuildRaw_Malformed(t *testing.T) {
	rows := mixedRows()
	rows[3].Date = strPtr("2022/04/03")

	_, err := BuildRaw(rows, "")
	require.ErrorIs(t, err, ErrMalformedInput)

	var rec *MalformedRecordError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, 4, rec.Row)
}

func TestSerialize_JSONShape(t *testing.T) {
	records := normalized(t,
		raw(1, "01/04/2022", "Shipped", floatPtr(10.005), 1),
		raw(2, "01/04/2022", "Shipped", floatPtr(20.111), 2),
		raw(3, "02/04/2022", "Cancelled", floatPtr(99), 1),
	)

	summary, err := Build(records, "")
	require.NoError(t, err)

	data, err := json.Marshal(summary)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc, 3)
	assert.Contains(t, doc, "daily_metrics")
	assert.Contains(t, doc, "overall_stats")
	assert.Contains(t, doc, "trends")

	overall := doc["overall_stats"].(map[string]any)
	byStatus := overall["metrics_by_status"].(map[string]any)

	shipped := byStatus["Shipped"].(map[string]any)
	assert.ElementsMatch(t, []string{"amount_sum", "amount_mean", "amount_count", "qty_sum", "qty_mean"}, keys(shipped))
	assert.Equal(t, 30.12, shipped["amount_sum"])
	assert.Equal(t, 2.0, shipped["amount_count"])
	assert.Equal(t, 1.5, shipped["qty_mean"])

	cancelled := byStatus["Cancelled"].(map[string]any)
	assert.Nil(t, cancelled["amount_mean"])
	assert.Equal(t, 0.0, cancelled["amount_sum"])

	// unrounded outside metrics_by_status
	assert.InDelta(t, 30.116, overall["total_revenue"], 1e-9)

	daily := doc["daily_metrics"].([]any)
	require.Len(t, daily, 2)
	assert.Equal(t, "2022-04-01", daily[0].(map[string]any)["date"])
	assert.Nil(t, daily[1].(map[string]any)["avg_sales"])
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// --- series ---

func TestDailySeries(t *testing.T) {
	records := normalized(t,
		raw(1, "31/03/2022", "Shipped", floatPtr(5), 1),
		raw(2, "01/04/2022", "Shipped", floatPtr(100), 2),
		raw(3, "01/04/2022", "Shipped", floatPtr(50), 1),
		raw(4, "02/04/2022", "Shipped", nil, 4),
	)
	exclude, err := ParseExcludedDates([]string{"31/03/2022", "29/06/2022"})
	require.NoError(t, err)

	amounts := DailySeries(records, MetricAmount, exclude)
	assert.Equal(t, []domain.TimeSeriesPoint{
		{Date: "2022-04-01", Value: 150},
		{Date: "2022-04-02", Value: 0},
	}, amounts)

	qty := DailySeries(records, MetricQty, nil)
	require.Len(t, qty, 3)
	assert.Equal(t, 4.0, qty[2].Value)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricAmount, m)

	m, err = ParseMetric("QTY")
	require.NoError(t, err)
	assert.Equal(t, MetricQty, m)

	_, err = ParseMetric("profit")
	assert.Error(t, err)
}
