package repository

import (
	"context"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// OrderRepository reads sale report rows from the amazon_sales table.
type OrderRepository interface {
	// ListOrders returns the first limit rows in load order.
	ListOrders(ctx context.Context, limit int) ([]domain.RawOrder, error)
	// LoadOrders returns every row matching filter. A missing status is matched as
	// "Unknown", the value it takes after normalization.
	LoadOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.RawOrder, error)
	ListStatuses(ctx context.Context) ([]string, error)
}

// OrderWriter bulk-loads rows into the amazon_sales table.
type OrderWriter interface {
	EnsureSchema(ctx context.Context) error
	// Load copies rows into the table, emptying it first when replace is set.
	Load(ctx context.Context, rows []domain.RawOrder, replace bool) (int64, error)
}
