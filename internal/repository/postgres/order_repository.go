package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/kpi"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) ListOrders(ctx context.Context, limit int) ([]domain.RawOrder, error) {
	query := selectOrders + ` ORDER BY id LIMIT $1`

	orders := []domain.RawOrder{}
	if err := r.db.SelectContext(ctx, &orders, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) LoadOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.RawOrder, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if len(filter.Statuses) > 0 {
		args = append(args, kpi.UnknownValue, pq.Array(filter.Statuses))
		conditions = append(conditions, fmt.Sprintf("COALESCE(status, $%d) = ANY($%d)", len(args)-1, len(args)))
	}

	query := selectOrders
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	orders := []domain.RawOrder{}
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) ListStatuses(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT COALESCE(status, $1) AS status
		FROM amazon_sales
		ORDER BY status
	`

	statuses := []string{}
	if err := r.db.SelectContext(ctx, &statuses, query, kpi.UnknownValue); err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}
