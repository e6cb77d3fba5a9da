package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/kpi"
)

// Columns is the column order of the amazon_sales table and of cleaned CSV exports.
var Columns = []string{
	"order_id", "date", "status", "fulfilment", "sales_channel", "ship_service_level",
	"style", "sku", "category", "size", "asin", "courier_status", "qty", "currency",
	"amount", "ship_city", "ship_state", "ship_postal_code", "ship_country",
	"promotion_ids", "b2b", "fulfilled_by",
}

// ErrMissingColumn is returned when the header lacks a column every row needs.
var ErrMissingColumn = errors.New("missing required column")

var requiredColumns = []string{"order_id", "date", "status", "qty", "amount"}

type stringField func(*domain.RawOrder) **string

var stringFields = map[string]stringField{
	"date":               func(r *domain.RawOrder) **string { return &r.Date },
	"status":             func(r *domain.RawOrder) **string { return &r.Status },
	"fulfilment":         func(r *domain.RawOrder) **string { return &r.Fulfilment },
	"sales_channel":      func(r *domain.RawOrder) **string { return &r.SalesChannel },
	"ship_service_level": func(r *domain.RawOrder) **string { return &r.ShipServiceLevel },
	"style":              func(r *domain.RawOrder) **string { return &r.Style },
	"sku":                func(r *domain.RawOrder) **string { return &r.SKU },
	"category":           func(r *domain.RawOrder) **string { return &r.Category },
	"size":               func(r *domain.RawOrder) **string { return &r.Size },
	"asin":               func(r *domain.RawOrder) **string { return &r.ASIN },
	"courier_status":     func(r *domain.RawOrder) **string { return &r.CourierStatus },
	"currency":           func(r *domain.RawOrder) **string { return &r.Currency },
	"ship_city":          func(r *domain.RawOrder) **string { return &r.ShipCity },
	"ship_state":         func(r *domain.RawOrder) **string { return &r.ShipState },
	"ship_postal_code":   func(r *domain.RawOrder) **string { return &r.ShipPostalCode },
	"ship_country":       func(r *domain.RawOrder) **string { return &r.ShipCountry },
	"promotion_ids":      func(r *domain.RawOrder) **string { return &r.PromotionIDs },
	"fulfilled_by":       func(r *domain.RawOrder) **string { return &r.FulfilledBy },
}

// ColumnName maps a report header ("Sales Channel ", "ship-service-level", "Order ID")
// onto its snake_case column. Headers of unnamed spreadsheet columns map to "".
func ColumnName(header string) string {
	name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	if name == "" || strings.HasPrefix(name, "unnamed:") {
		return ""
	}
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	return name
}

// ReadCSV parses an Amazon sale report. Empty cells are read as missing values.
func ReadCSV(r io.Reader) ([]domain.RawOrder, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	return readRecords(reader.Read)
}

// readRecords consumes a header row followed by data rows. next returns io.EOF after
// the last row.
func readRecords(next func() ([]string, error)) ([]domain.RawOrder, error) {
	header, err := next()
	if err == io.EOF {
		return nil, fmt.Errorf("read header: %w", kpi.ErrEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colMap := make(map[string]int)
	for i, h := range header {
		if name := ColumnName(h); name != "" {
			colMap[name] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var rows []domain.RawOrder
	for line := 1; ; line++ {
		record, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		row, err := parseRow(line, record, colMap)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseRow(line int, record []string, colMap map[string]int) (domain.RawOrder, error) {
	getValue := func(col string) *string {
		idx, ok := colMap[col]
		if !ok || idx >= len(record) {
			return nil
		}
		v := strings.TrimSpace(record[idx])
		if v == "" {
			return nil
		}
		return &v
	}

	row := domain.RawOrder{Row: line}
	if id := getValue("order_id"); id != nil {
		row.OrderID = *id
	}
	for col, field := range stringFields {
		*field(&row) = getValue(col)
	}

	if v := getValue("qty"); v != nil {
		qty, err := parseQty(*v)
		if err != nil {
			return row, invalid(row, "qty", *v, err)
		}
		row.Qty = &qty
	}

	if v := getValue("amount"); v != nil {
		amount, err := strconv.ParseFloat(*v, 64)
		if err != nil {
			return row, invalid(row, "amount", *v, err)
		}
		row.Amount = &amount
	}

	if v := getValue("b2b"); v != nil {
		b2b, err := strconv.ParseBool(*v)
		if err != nil {
			return row, invalid(row, "b2b", *v, err)
		}
		row.B2B = b2b
	}

	return row, nil
}

// parseQty accepts integers and integral floats ("2.0"), which spreadsheet exports produce.
func parseQty(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, errors.New("not a whole number")
	}
	return int(f), nil
}

func invalid(row domain.RawOrder, field, value string, err error) error {
	return &kpi.MalformedRecordError{
		Row:     row.Row,
		OrderID: row.OrderID,
		Field:   field,
		Value:   value,
		Err:     err,
	}
}
