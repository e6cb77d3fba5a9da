package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/kpi-visualizer/internal/config"
	"github.com/andresuchdata/kpi-visualizer/internal/domain"
)

// CopyWriter loads rows with the COPY protocol.
type CopyWriter struct {
	pool *pgxpool.Pool
}

// NewPool opens a pgx pool for bulk loads.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("could not create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}
	return pool, nil
}

func NewCopyWriter(pool *pgxpool.Pool) *CopyWriter {
	return &CopyWriter{pool: pool}
}

func (w *CopyWriter) EnsureSchema(ctx context.Context) error {
	if _, err := w.pool.Exec(ctx, createOrdersTable); err != nil {
		return fmt.Errorf("failed to create %s: %w", OrdersTable, err)
	}
	return nil
}

func (w *CopyWriter) Load(ctx context.Context, rows []domain.RawOrder, replace bool) (int64, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Error().Err(err).Msg("could not rollback transaction")
		}
	}()

	if replace {
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+OrdersTable+" RESTART IDENTITY"); err != nil {
			return 0, fmt.Errorf("failed to truncate %s: %w", OrdersTable, err)
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{OrdersTable}, orderColumns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return copyValues(rows[i]), nil
	}))
	if err != nil {
		return 0, fmt.Errorf("failed to copy orders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.Info().Int64("rows", n).Bool("replace", replace).Msg("orders loaded")
	return n, nil
}

// copyValues follows orderColumns.
func copyValues(r domain.RawOrder) []any {
	return []any{
		r.OrderID, r.Date, r.Status, r.Fulfilment, r.SalesChannel, r.ShipServiceLevel,
		r.Style, r.SKU, r.Category, r.Size, r.ASIN, r.CourierStatus, r.Qty, r.Currency,
		r.Amount, r.ShipCity, r.ShipState, r.ShipPostalCode, r.ShipCountry,
		r.PromotionIDs, r.B2B, r.FulfilledBy,
	}
}
