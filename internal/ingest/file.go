package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// Read parses r according to the extension of name (.csv or .xlsx).
func Read(name string, r io.Reader) ([]domain.RawOrder, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv", "":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

// ReadFile parses a local sale report.
func ReadFile(path string) ([]domain.RawOrder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Read(path, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("rows", len(rows)).Msg("read sale report")
	return rows, nil
}

// WriteCleanCSV writes normalized orders with the snake_case header. Dates keep the
// day-first layout, so the output can be read back with ReadCSV.
func WriteCleanCSV(w io.Writer, orders []domain.Order) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, o := range orders {
		if err := cw.Write(cleanRecord(o)); err != nil {
			return fmt.Errorf("failed to write order %s: %w", o.OrderID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// EncodeCleanCSV renders WriteCleanCSV into memory, for uploads.
func EncodeCleanCSV(orders []domain.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCleanCSV(&buf, orders); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cleanRecord(o domain.Order) []string {
	amount := ""
	if o.Amount != nil {
		amount = strconv.FormatFloat(*o.Amount, 'f', -1, 64)
	}

	return []string{
		o.OrderID,
		o.Date.Format(domain.OrderDateLayout),
		o.Status,
		o.Fulfilment,
		o.SalesChannel,
		o.ShipServiceLevel,
		o.Style,
		o.SKU,
		o.Category,
		o.Size,
		o.ASIN,
		o.CourierStatus,
		strconv.Itoa(o.Qty),
		o.Currency,
		amount,
		o.ShipCity,
		o.ShipState,
		o.ShipPostalCode,
		o.ShipCountry,
		o.PromotionIDs,
		strconv.FormatBool(o.B2B),
		o.FulfilledBy,
	}
}
