package kpi

import (
	"sort"
	"time"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// TopDaysLimit is how many dates top_performing_days reports.
const TopDaysLimit = 5

// DayTotal is the total amount and quantity of one date.
type DayTotal struct {
	Date     time.Time
	Amount   float64
	Quantity int
}

// WeeklyAverage is the mean per order of one calendar week ending on WeekEnding (a Sunday).
type WeeklyAverage struct {
	WeekEnding time.Time
	Amount     domain.NullFloat
	Quantity   float64
}

// Growth is the mean day-over-day change, as a fraction (0.5 == +50%).
type Growth struct {
	Amount   domain.NullFloat
	Quantity domain.NullFloat
}

// Trends is the output of AnalyzeTrends.
type Trends struct {
	DailyGrowth       Growth
	TopPerformingDays []DayTotal
	WeeklyAverages    []WeeklyAverage
}

// EmptyTrends is the trend block of a status filter that matched nothing.
func EmptyTrends() *Trends {
	return &Trends{
		TopPerformingDays: []DayTotal{},
		WeeklyAverages:    []WeeklyAverage{},
	}
}

// AnalyzeTrends computes growth, best days and weekly averages over records.
func AnalyzeTrends(records []domain.Order) (*Trends, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	totals := DailyTotals(records)

	return &Trends{
		DailyGrowth:       dailyGrowth(totals),
		TopPerformingDays: TopDays(totals, TopDaysLimit),
		WeeklyAverages:    weeklyAverages(records),
	}, nil
}

// DailyTotals sums amount (non-null only) and quantity per date, ascending by date.
// Dates without records are absent.
func DailyTotals(records []domain.Order) []DayTotal {
	dates, groups := byDate(records)
	totals := make([]DayTotal, 0, len(dates))
	for _, d := range dates {
		b := groups[d]
		totals = append(totals, DayTotal{
			Date:     d,
			Amount:   sum(b.amounts),
			Quantity: b.totalQty(),
		})
	}
	return totals
}

func dailyGrowth(totals []DayTotal) Growth {
	if len(totals) < 2 {
		return Growth{}
	}

	amounts := make([]float64, len(totals))
	quantities := make([]float64, len(totals))
	for i, t := range totals {
		amounts[i] = t.Amount
		quantities[i] = float64(t.Quantity)
	}

	return Growth{
		Amount:   meanOrNull(pctChange(amounts)),
		Quantity: meanOrNull(pctChange(quantities)),
	}
}

// pctChange returns the change of each value relative to the one before it. Steps from
// a zero total have no defined ratio and are left out.
func pctChange(series []float64) []float64 {
	changes := make([]float64, 0, len(series))
	for i := 1; i < len(series); i++ {
		prev := series[i-1]
		if prev == 0 {
			continue
		}
		changes = append(changes, (series[i]-prev)/prev)
	}
	return changes
}

// TopDays returns up to n dates with the highest amount, ties broken by earlier date.
func TopDays(totals []DayTotal, n int) []DayTotal {
	ranked := make([]DayTotal, len(totals))
	copy(ranked, totals)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		return ranked[i].Date.Before(ranked[j].Date)
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// WeekEnding returns the Sunday closing the week that contains t.
func WeekEnding(t time.Time) time.Time {
	day := truncateDay(t)
	offset := (7 - int(day.Weekday())) % 7
	return day.AddDate(0, 0, offset)
}

func weeklyAverages(records []domain.Order) []WeeklyAverage {
	groups := make(map[time.Time]*bucket)
	for _, r := range records {
		week := WeekEnding(r.Date)
		b, ok := groups[week]
		if !ok {
			b = &bucket{}
			groups[week] = b
		}
		b.add(r)
	}

	weeks := make([]time.Time, 0, len(groups))
	for w := range groups {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	averages := make([]WeeklyAverage, 0, len(weeks))
	for _, w := range weeks {
		b := groups[w]
		qty, _ := Mean(b.qty)
		averages = append(averages, WeeklyAverage{
			WeekEnding: w,
			Amount:     meanOrNull(b.amounts),
			Quantity:   qty,
		})
	}
	return averages
}
