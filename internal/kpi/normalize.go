package kpi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// Sentinels written into missing categorical fields.
const (
	UnknownValue      = "Unknown"
	NoPromotion       = "None"
	NotEasyShipping   = "Not Easy Shipping"
	UnknownCurrency   = "N/A"
	statusFieldName   = "status"
	dateFieldName     = "date"
	qtyFieldName      = "qty"
	amountFieldName   = "amount"
	maxDateTextLength = 10
)

// unfulfilledStatuses never carry revenue.
var unfulfilledStatuses = map[string]struct{}{
	"Cancelled":  {},
	"Unshipped":  {},
	UnknownValue: {},
}

// IsUnfulfilled reports whether orders in status carry no revenue.
func IsUnfulfilled(status string) bool {
	_, ok := unfulfilledStatuses[status]
	return ok
}

type fillRule struct {
	field    string
	sentinel string
	get      func(*domain.RawOrder) *string
	set      func(*domain.Order, string)
}

// fillTable is the null-filling policy. Columns not listed are copied, with missing
// values becoming the empty string.
var fillTable = []fillRule{
	{statusFieldName, UnknownValue, func(r *domain.RawOrder) *string { return r.Status }, func(o *domain.Order, v string) { o.Status = v }},
	{"courier_status", UnknownValue, func(r *domain.RawOrder) *string { return r.CourierStatus }, func(o *domain.Order, v string) { o.CourierStatus = v }},
	{"currency", UnknownCurrency, func(r *domain.RawOrder) *string { return r.Currency }, func(o *domain.Order, v string) { o.Currency = v }},
	{"promotion_ids", NoPromotion, func(r *domain.RawOrder) *string { return r.PromotionIDs }, func(o *domain.Order, v string) { o.PromotionIDs = v }},
	{"fulfilled_by", NotEasyShipping, func(r *domain.RawOrder) *string { return r.FulfilledBy }, func(o *domain.Order, v string) { o.FulfilledBy = v }},
	{"ship_city", UnknownValue, func(r *domain.RawOrder) *string { return r.ShipCity }, func(o *domain.Order, v string) { o.ShipCity = v }},
	{"ship_state", UnknownValue, func(r *domain.RawOrder) *string { return r.ShipState }, func(o *domain.Order, v string) { o.ShipState = v }},
	{"ship_postal_code", UnknownValue, func(r *domain.RawOrder) *string { return r.ShipPostalCode }, func(o *domain.Order, v string) { o.ShipPostalCode = v }},
	{"ship_country", UnknownValue, func(r *domain.RawOrder) *string { return r.ShipCountry }, func(o *domain.Order, v string) { o.ShipCountry = v }},
	{"fulfilment", "", func(r *domain.RawOrder) *string { return r.Fulfilment }, func(o *domain.Order, v string) { o.Fulfilment = v }},
	{"sales_channel", "", func(r *domain.RawOrder) *string { return r.SalesChannel }, func(o *domain.Order, v string) { o.SalesChannel = v }},
	{"ship_service_level", "", func(r *domain.RawOrder) *string { return r.ShipServiceLevel }, func(o *domain.Order, v string) { o.ShipServiceLevel = v }},
	{"style", "", func(r *domain.RawOrder) *string { return r.Style }, func(o *domain.Order, v string) { o.Style = v }},
	{"sku", "", func(r *domain.RawOrder) *string { return r.SKU }, func(o *domain.Order, v string) { o.SKU = v }},
	{"category", "", func(r *domain.RawOrder) *string { return r.Category }, func(o *domain.Order, v string) { o.Category = v }},
	{"size", "", func(r *domain.RawOrder) *string { return r.Size }, func(o *domain.Order, v string) { o.Size = v }},
	{"asin", "", func(r *domain.RawOrder) *string { return r.ASIN }, func(o *domain.Order, v string) { o.ASIN = v }},
}

// Normalize fills missing fields, parses the day-first order date and drops the amount
// of orders that were never fulfilled. The first malformed row aborts normalization.
func Normalize(rows []domain.RawOrder) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(rows))
	for i := range rows {
		order, err := NormalizeRow(rows[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// NormalizeRow normalizes a single source row.
func NormalizeRow(row domain.RawOrder) (domain.Order, error) {
	order := domain.Order{
		Row:     row.Row,
		OrderID: row.OrderID,
		B2B:     row.B2B,
	}

	for _, rule := range fillTable {
		value := rule.sentinel
		if v := rule.get(&row); v != nil {
			value = *v
		}
		rule.set(&order, value)
	}

	date, err := ParseOrderDate(row.Date)
	if err != nil {
		return domain.Order{}, malformed(row, dateFieldName, row.Date, err)
	}
	order.Date = date

	if row.Qty == nil {
		return domain.Order{}, malformed(row, qtyFieldName, nil, errors.New("missing quantity"))
	}
	if *row.Qty < 0 {
		return domain.Order{}, malformedValue(row, qtyFieldName, *row.Qty, errors.New("negative quantity"))
	}
	order.Qty = *row.Qty

	if row.Amount != nil {
		if *row.Amount < 0 {
			return domain.Order{}, malformedValue(row, amountFieldName, *row.Amount, errors.New("negative amount"))
		}
		if !IsUnfulfilled(order.Status) {
			amount := *row.Amount
			order.Amount = &amount
		}
	}

	return order, nil
}

// ParseOrderDate parses DD/MM/YYYY text (single-digit day and month accepted).
// Missing text is an error; it never defaults to the current date.
func ParseOrderDate(text *string) (time.Time, error) {
	if text == nil {
		return time.Time{}, errors.New("missing date")
	}
	trimmed := strings.TrimSpace(*text)
	if trimmed == "" || len(trimmed) > maxDateTextLength {
		return time.Time{}, errors.New("expected DD/MM/YYYY")
	}
	return time.Parse("2/1/2006", trimmed)
}

func malformed(row domain.RawOrder, field string, value *string, err error) error {
	text := ""
	if value != nil {
		text = *value
	}
	return &MalformedRecordError{Row: row.Row, OrderID: row.OrderID, Field: field, Value: text, Err: err}
}

func malformedValue[T int | float64](row domain.RawOrder, field string, value T, err error) error {
	text := strconv.FormatFloat(float64(value), 'f', -1, 64)
	return &MalformedRecordError{Row: row.Row, OrderID: row.OrderID, Field: field, Value: text, Err: err}
}

// Sentinel returns the value written into column when the source leaves it empty.
func Sentinel(column string) (string, bool) {
	for _, rule := range fillTable {
		if rule.field == column {
			return rule.sentinel, true
		}
	}
	return "", false
}
