package domain

import "time"

// RawOrder is one row of the Amazon sale report as it sits in the source file or the
// amazon_sales table. Nullable columns are pointers; nothing has been cleaned yet.
type RawOrder struct {
	Row              int      `json:"id" db:"id"`
	OrderID          string   `json:"order_id" db:"order_id"`
	Date             *string  `json:"date" db:"date"`
	Status           *string  `json:"status" db:"status"`
	Fulfilment       *string  `json:"fulfilment" db:"fulfilment"`
	SalesChannel     *string  `json:"sales_channel" db:"sales_channel"`
	ShipServiceLevel *string  `json:"ship_service_level" db:"ship_service_level"`
	Style            *string  `json:"style" db:"style"`
	SKU              *string  `json:"sku" db:"sku"`
	Category         *string  `json:"category" db:"category"`
	Size             *string  `json:"size" db:"size"`
	ASIN             *string  `json:"asin" db:"asin"`
	CourierStatus    *string  `json:"courier_status" db:"courier_status"`
	Qty              *int     `json:"qty" db:"qty"`
	Currency         *string  `json:"currency" db:"currency"`
	Amount           *float64 `json:"amount" db:"amount"`
	ShipCity         *string  `json:"ship_city" db:"ship_city"`
	ShipState        *string  `json:"ship_state" db:"ship_state"`
	ShipPostalCode   *string  `json:"ship_postal_code" db:"ship_postal_code"`
	ShipCountry      *string  `json:"ship_country" db:"ship_country"`
	PromotionIDs     *string  `json:"promotion_ids" db:"promotion_ids"`
	B2B              bool     `json:"b2b" db:"b2b"`
	FulfilledBy      *string  `json:"fulfilled_by" db:"fulfilled_by"`
}

// Order is a normalized order record. Every categorical field is filled; Amount is the
// only nullable field.
type Order struct {
	Row              int       `json:"row"`
	OrderID          string    `json:"order_id"`
	Date             time.Time `json:"date"`
	Status           string    `json:"status"`
	Fulfilment       string    `json:"fulfilment"`
	SalesChannel     string    `json:"sales_channel"`
	ShipServiceLevel string    `json:"ship_service_level"`
	Style            string    `json:"style"`
	SKU              string    `json:"sku"`
	Category         string    `json:"category"`
	Size             string    `json:"size"`
	ASIN             string    `json:"asin"`
	CourierStatus    string    `json:"courier_status"`
	Qty              int       `json:"qty"`
	Currency         string    `json:"currency"`
	Amount           *float64  `json:"amount"`
	ShipCity         string    `json:"ship_city"`
	ShipState        string    `json:"ship_state"`
	ShipPostalCode   string    `json:"ship_postal_code"`
	ShipCountry      string    `json:"ship_country"`
	PromotionIDs     string    `json:"promotion_ids"`
	B2B              bool      `json:"b2b"`
	FulfilledBy      string    `json:"fulfilled_by"`
}

// OrderDateLayout is the day-first text format dates are stored in.
const OrderDateLayout = "02/01/2006"

// Raw converts a normalized order back into its source representation.
func (o Order) Raw() RawOrder {
	str := func(s string) *string { return &s }
	date := o.Date.Format(OrderDateLayout)
	qty := o.Qty

	var amount *float64
	if o.Amount != nil {
		v := *o.Amount
		amount = &v
	}

	return RawOrder{
		Row:              o.Row,
		OrderID:          o.OrderID,
		Date:             &date,
		Status:           str(o.Status),
		Fulfilment:       str(o.Fulfilment),
		SalesChannel:     str(o.SalesChannel),
		ShipServiceLevel: str(o.ShipServiceLevel),
		Style:            str(o.Style),
		SKU:              str(o.SKU),
		Category:         str(o.Category),
		Size:             str(o.Size),
		ASIN:             str(o.ASIN),
		CourierStatus:    str(o.CourierStatus),
		Qty:              &qty,
		Currency:         str(o.Currency),
		Amount:           amount,
		ShipCity:         str(o.ShipCity),
		ShipState:        str(o.ShipState),
		ShipPostalCode:   str(o.ShipPostalCode),
		ShipCountry:      str(o.ShipCountry),
		PromotionIDs:     str(o.PromotionIDs),
		B2B:              o.B2B,
		FulfilledBy:      str(o.FulfilledBy),
	}
}

// OrderFilter narrows the rows loaded from the store.
type OrderFilter struct {
	Statuses []string `json:"statuses"`
	Limit    int      `json:"limit"`
}

// TimeSeriesPoint is one point of a per-date chart series.
type TimeSeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// ChatRequest is a question for the sales assistant.
type ChatRequest struct {
	Query  string `json:"query" binding:"required"`
	Status string `json:"status"`
	Stream bool   `json:"stream"`
}

// IngestResult reports a completed load into the store.
type IngestResult struct {
	Source   string    `json:"source"`
	Rows     int64     `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}
