package kpi

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// Mean returns the arithmetic mean of values, or ErrEmptyInput when there are none.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// meanOrNull wraps Mean for fields that report an undefined mean as null.
func meanOrNull(values []float64) domain.NullFloat {
	m, err := Mean(values)
	if err != nil {
		return domain.NullFloat{}
	}
	return domain.Float(m)
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// bucket accumulates the amount and quantity observations of one group.
type bucket struct {
	amounts []float64 // non-null amounts only
	qty     []float64
	orders  int
}

func (b *bucket) add(o domain.Order) {
	b.orders++
	b.qty = append(b.qty, float64(o.Qty))
	if o.Amount != nil {
		b.amounts = append(b.amounts, *o.Amount)
	}
}

func (b *bucket) totalQty() int {
	return int(sum(b.qty))
}

// FilterByStatus returns the records whose status equals status exactly. An empty
// status returns records unchanged.
func FilterByStatus(records []domain.Order, status string) []domain.Order {
	if status == "" {
		return records
	}
	filtered := make([]domain.Order, 0)
	for _, r := range records {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// byDate groups records per calendar date and returns the dates in ascending order.
func byDate(records []domain.Order) ([]time.Time, map[time.Time]*bucket) {
	groups := make(map[time.Time]*bucket)
	for _, r := range records {
		day := truncateDay(r.Date)
		b, ok := groups[day]
		if !ok {
			b = &bucket{}
			groups[day] = b
		}
		b.add(r)
	}

	dates := make([]time.Time, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, groups
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
