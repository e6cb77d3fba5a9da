package postgres

// OrdersTable holds the sale report, one row per order line.
const OrdersTable = "amazon_sales"

const createOrdersTable = `
	CREATE TABLE IF NOT EXISTS amazon_sales (
		id                 BIGSERIAL PRIMARY KEY,
		order_id           TEXT NOT NULL,
		date               TEXT,
		status             TEXT,
		fulfilment         TEXT,
		sales_channel      TEXT,
		ship_service_level TEXT,
		style              TEXT,
		sku                TEXT,
		category           TEXT,
		size               TEXT,
		asin               TEXT,
		courier_status     TEXT,
		qty                INTEGER,
		currency           TEXT,
		amount             DOUBLE PRECISION,
		ship_city          TEXT,
		ship_state         TEXT,
		ship_postal_code   TEXT,
		ship_country       TEXT,
		promotion_ids      TEXT,
		b2b                BOOLEAN NOT NULL DEFAULT FALSE,
		fulfilled_by       TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_amazon_sales_status ON amazon_sales (status);
`

// orderColumns lists the loadable columns in table order; id is generated.
var orderColumns = []string{
	"order_id", "date", "status", "fulfilment", "sales_channel", "ship_service_level",
	"style", "sku", "category", "size", "asin", "courier_status", "qty", "currency",
	"amount", "ship_city", "ship_state", "ship_postal_code", "ship_country",
	"promotion_ids", "b2b", "fulfilled_by",
}

const selectOrders = `
	SELECT id, order_id, date, status, fulfilment, sales_channel, ship_service_level,
		style, sku, category, size, asin, courier_status, qty, currency, amount,
		ship_city, ship_state, ship_postal_code, ship_country, promotion_ids, b2b,
		fulfilled_by
	FROM amazon_sales`
