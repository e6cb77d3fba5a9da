package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/andresuchdata/kpi-visualizer/internal/config"
	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/ingest"
	"github.com/andresuchdata/kpi-visualizer/internal/kpi"
	"github.com/andresuchdata/kpi-visualizer/internal/repository/postgres"
	"github.com/andresuchdata/kpi-visualizer/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.App.LogLevel, cfg.Server.Mode)

	sourceFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read orders from a local report instead of the database",
		},
		&cli.StringFlag{
			Name:    "db-url",
			Usage:   "Database connection string",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:  "status",
			Usage: "Order status to filter on",
		},
	}

	app := &cli.App{
		Name:  "analytics",
		Usage: "Compute sales KPIs offline",
		Commands: []*cli.Command{
			{
				Name:  "summary",
				Usage: "Print the KPI summary as JSON",
				Flags: sourceFlags,
				Action: func(c *cli.Context) error {
					rows, err := loadRows(c, cfg)
					if err != nil {
						return err
					}
					summary, err := kpi.BuildRaw(rows, c.String("status"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, summary)
				},
			},
			{
				Name:  "series",
				Usage: "Print the per-date series of one status",
				Flags: append(sourceFlags, &cli.StringFlag{
					Name:  "metric",
					Usage: "amount or qty",
					Value: string(kpi.MetricAmount),
				}),
				Action: func(c *cli.Context) error {
					status := c.String("status")
					if status == "" {
						return errors.New("--status is required")
					}
					metric, err := kpi.ParseMetric(c.String("metric"))
					if err != nil {
						return err
					}
					excluded, err := kpi.ParseExcludedDates(cfg.App.ExcludedDates)
					if err != nil {
						return err
					}

					rows, err := loadRows(c, cfg)
					if err != nil {
						return err
					}
					records, err := kpi.Normalize(rows)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, kpi.DailySeries(kpi.FilterByStatus(records, status), metric, excluded))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("analytics failed")
	}
}

func loadRows(c *cli.Context, cfg *config.Config) ([]domain.RawOrder, error) {
	if path := c.String("file"); path != "" {
		return ingest.ReadFile(path)
	}

	dsn := c.String("db-url")
	if dsn == "" {
		dsn = cfg.Database.DSN()
	}
	return loadFromDB(c.Context, dsn)
}

func loadFromDB(ctx context.Context, dsn string) ([]domain.RawOrder, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := postgres.NewOrderRepository(postgres.Wrap(sqlx.NewDb(db, "pgx"), 1))
	return repo.LoadOrders(ctx, domain.OrderFilter{})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
