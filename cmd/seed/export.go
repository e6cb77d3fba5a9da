package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/andresuchdata/kpi-visualizer/internal/config"
	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/ingest"
	"github.com/andresuchdata/kpi-visualizer/internal/kpi"
	"github.com/andresuchdata/kpi-visualizer/internal/repository/postgres"
	"github.com/andresuchdata/kpi-visualizer/internal/storage"
)

func runExport(c *cli.Context, cfg *config.Config) error {
	out, key := c.String("out"), c.String("s3-key")
	if out == "" && key == "" {
		return errors.New("pass --out and/or --s3-key")
	}

	db, err := sqlx.Connect("pgx", databaseConfig(c, cfg).DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rows, err := postgres.NewOrderRepository(postgres.Wrap(db, 1)).LoadOrders(c.Context, domain.OrderFilter{})
	if err != nil {
		return err
	}
	orders, err := kpi.Normalize(rows)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	data, err := ingest.EncodeCleanCSV(orders)
	if err != nil {
		return err
	}

	if out != "" {
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
	}

	if key != "" {
		store, err := storage.NewS3Client(cfg.Storage)
		if err != nil {
			return err
		}
		if err := store.UploadObject(c.Context, key, data); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.App.Writer, "exported %d orders\n", len(orders))
	return nil
}
