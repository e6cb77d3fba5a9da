package service

import (
	"context"
	"fmt"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/repository"
)

const DefaultOrdersLimit = 10

type OrderService struct {
	repo     repository.OrderRepository
	maxLimit int
}

func NewOrderService(repo repository.OrderRepository, maxLimit int) *OrderService {
	if maxLimit <= 0 {
		maxLimit = 1000
	}
	return &OrderService{repo: repo, maxLimit: maxLimit}
}

// ListOrders returns raw rows in load order. limit defaults to 10 and is capped.
func (s *OrderService) ListOrders(ctx context.Context, limit int) ([]domain.RawOrder, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidArgument)
	}
	if limit == 0 {
		limit = DefaultOrdersLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	orders, err := s.repo.ListOrders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
