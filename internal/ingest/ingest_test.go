package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/kpi-visualizer/internal/kpi"
)

const saleReport = `index,Order ID,Date,Status,Fulfilment,Sales Channel ,ship-service-level,Style,SKU,Category,Size,ASIN,Courier Status,Qty,currency,Amount,ship-city,ship-state,ship-postal-code,ship-country,promotion-ids,B2B,fulfilled-by,Unnamed: 22
0,405-8078784-5731545,04-30-22,Cancelled,Merchant,Amazon.in,Standard,SET389,SET389-KR-NP-S,Set,S,B09KXVBD7Z,,0,INR,647.62,MUMBAI,MAHARASHTRA,400081.0,IN,,False,Easy Ship,
1,171-9198151-1101146,30/04/2022,Shipped - Delivered to Buyer,Merchant,Amazon.in,Standard,JNE3781,JNE3781-KR-XXXL,kurta,3XL,B09K3WFS32,Shipped,1,INR,406.0,BENGALURU,KARNATAKA,560085.0,IN,Amazon PLCC Free-Financing Universal Merchant AAT-WNKTBO3K27EJC,False,Easy Ship,
`

func TestColumnName(t *testing.T) {
	tests := map[string]string{
		"Order ID":           "order_id",
		"Sales Channel ":     "sales_channel",
		"ship-service-level": "ship_service_level",
		"B2B":                "b2b",
		"Unnamed: 22":        "",
		"\ufeffindex":        "index",
		"  ":                 "",
	}
	for header, want := range tests {
		assert.Equal(t, want, ColumnName(header), header)
	}
}

func TestReadCSV(t *testing.T) {
	report := strings.Replace(saleReport, "04-30-22", "30/04/2022", 1)

	rows, err := ReadCSV(strings.NewReader(report))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 1, first.Row)
	assert.Equal(t, "405-8078784-5731545", first.OrderID)
	require.NotNil(t, first.SalesChannel)
	assert.Equal(t, "Amazon.in", *first.SalesChannel)
	assert.Nil(t, first.CourierStatus)
	assert.Nil(t, first.PromotionIDs)
	require.NotNil(t, first.Qty)
	assert.Equal(t, 0, *first.Qty)
	require.NotNil(t, first.Amount)
	assert.Equal(t, 647.62, *first.Amount)
	assert.False(t, first.B2B)

	second := rows[1]
	require.NotNil(t, second.Status)
	assert.Equal(t, "Shipped - Delivered to Buyer", *second.Status)
	require.NotNil(t, second.ShipPostalCode)
	assert.Equal(t, "560085.0", *second.ShipPostalCode)
}

func TestReadCSV_ThenNormalize(t *testing.T) {
	report := strings.Replace(saleReport, "04-30-22", "30/04/2022", 1)

	rows, err := ReadCSV(strings.NewReader(report))
	require.NoError(t, err)

	orders, err := kpi.Normalize(rows)
	require.NoError(t, err)

	assert.Nil(t, orders[0].Amount, "cancelled")
	assert.Equal(t, kpi.UnknownValue, orders[0].CourierStatus)
	assert.Equal(t, kpi.NoPromotion, orders[0].PromotionIDs)
	require.NotNil(t, orders[1].Amount)
	assert.Equal(t, 406.0, *orders[1].Amount)
}

func TestReadCSV_BadDateSurfacesOnNormalize(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(saleReport))
	require.NoError(t, err)

	_, err = kpi.Normalize(rows)
	require.ErrorIs(t, err, kpi.ErrMalformedInput)

	var rec *kpi.MalformedRecordError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, 1, rec.Row)
	assert.Equal(t, "405-8078784-5731545", rec.OrderID)
}

func TestReadCSV_MalformedNumber(t *testing.T) {
	report := strings.Replace(saleReport, ",406.0,", ",four hundred,", 1)

	_, err := ReadCSV(strings.NewReader(report))
	require.ErrorIs(t, err, kpi.ErrMalformedInput)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "amount")
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Order ID,Date,Status\n1,01/04/2022,Shipped\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, kpi.ErrEmptyInput)
}

func TestWriteCleanCSV_RoundTrip(t *testing.T) {
	report := strings.Replace(saleReport, "04-30-22", "30/04/2022", 1)
	rows, err := ReadCSV(strings.NewReader(report))
	require.NoError(t, err)
	orders, err := kpi.Normalize(rows)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCleanCSV(&buf, orders))
	assert.True(t, strings.HasPrefix(buf.String(), "order_id,date,status,"))

	again, err := ReadCSV(&buf)
	require.NoError(t, err)
	cleaned, err := kpi.Normalize(again)
	require.NoError(t, err)

	assert.Equal(t, orders, cleaned)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	lines := [][]interface{}{
		{"Order ID", "Date", "Status", "Qty", "Amount", "Sales Channel "},
		{"A-1", "01/04/2022", "Shipped", 2, 100.5, "Amazon.in"},
		{"A-2", "02/04/2022", "Pending", 1, "", "Amazon.in"},
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &line))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Read("report.xlsx", buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A-1", rows[0].OrderID)
	require.NotNil(t, rows[0].Qty)
	assert.Equal(t, 2, *rows[0].Qty)
	require.NotNil(t, rows[0].Amount)
	assert.Equal(t, 100.5, *rows[0].Amount)
	assert.Nil(t, rows[1].Amount)
}

func TestRead_UnsupportedType(t *testing.T) {
	_, err := Read("report.json", strings.NewReader("{}"))
	assert.Error(t, err)
}
