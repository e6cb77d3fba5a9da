package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/kpi-visualizer/internal/cache"
	"github.com/andresuchdata/kpi-visualizer/internal/config"
	"github.com/andresuchdata/kpi-visualizer/internal/drive"
	"github.com/andresuchdata/kpi-visualizer/internal/repository/postgres"
	"github.com/andresuchdata/kpi-visualizer/internal/service"
	"github.com/andresuchdata/kpi-visualizer/internal/storage"
	"github.com/andresuchdata/kpi-visualizer/pkg/logger"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string",
		EnvVars: []string{"DATABASE_URL"},
	}
}

// databaseConfig applies --db-url over the environment settings.
func databaseConfig(c *cli.Context, cfg *config.Config) *config.DatabaseConfig {
	dbCfg := cfg.Database
	if url := c.String("db-url"); url != "" {
		dbCfg.URL = url
	}
	return &dbCfg
}

func main() {
	cfg := config.Load()
	logger.Setup(cfg.App.LogLevel, cfg.Server.Mode)

	app := &cli.App{
		Name:  "seed",
		Usage: "Load Amazon sale reports into the orders table",
		Commands: []*cli.Command{
			{
				Name:  "load",
				Usage: "Load reports from local files, an S3 prefix or a Google Drive folder",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringSliceFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Report file (.csv or .xlsx), repeatable",
					},
					&cli.StringFlag{
						Name:    "dir",
						Usage:   "Directory of reports",
						EnvVars: []string{"SEED_DATA_DIR"},
					},
					&cli.StringFlag{
						Name:  "s3-prefix",
						Usage: "Load every report under this prefix of S3_BUCKET",
					},
					&cli.StringFlag{
						Name:  "drive-folder",
						Usage: "Load every report in this Google Drive folder ID",
					},
					&cli.BoolFlag{
						Name:  "replace",
						Usage: "Truncate the orders table before loading",
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Reject reports with rows that fail normalization",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "create-table",
						Usage: "Create the orders table when missing",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Reports parsed concurrently",
						Value: 4,
					},
				},
				Action: func(c *cli.Context) error {
					return runLoad(c, cfg)
				},
			},
			{
				Name:  "export",
				Usage: "Write the cleaned orders as CSV to a file and/or S3",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "out",
						Usage: "Local output path",
					},
					&cli.StringFlag{
						Name:  "s3-key",
						Usage: "Object key to upload the export to",
					},
				},
				Action: func(c *cli.Context) error {
					return runExport(c, cfg)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed failed")
	}
}

func runLoad(c *cli.Context, cfg *config.Config) error {
	ctx := c.Context

	sources, err := localSources(c.StringSlice("file"), c.String("dir"))
	if err != nil {
		return err
	}

	if prefix := c.String("s3-prefix"); prefix != "" {
		store, err := storage.NewS3Client(cfg.Storage)
		if err != nil {
			return err
		}
		remote, err := objectSources(ctx, store, prefix)
		if err != nil {
			return err
		}
		sources = append(sources, remote...)
	}

	if folderID := c.String("drive-folder"); folderID != "" {
		remote, cleanup, err := driveSources(ctx, cfg.Drive, folderID)
		if err != nil {
			return err
		}
		defer cleanup()
		sources = append(sources, remote...)
	}

	if len(sources) == 0 {
		return errors.New("nothing to load: pass --file, --dir, --s3-prefix or --drive-folder")
	}

	start := time.Now()
	batches, err := readSources(ctx, sources, c.Int("workers"))
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, databaseConfig(c, cfg))
	if err != nil {
		return err
	}
	defer pool.Close()

	ingestService, err := newIngestService(ctx, pool, cfg, c.Bool("strict"), c.Bool("create-table"))
	if err != nil {
		return err
	}

	results, err := loadBatches(ctx, ingestService, batches, c.Bool("replace"))
	var total int64
	for _, r := range results {
		total += r.Rows
	}
	logger.Log.Info().
		Int("reports", len(results)).
		Int64("rows", total).
		Dur("took", time.Since(start)).
		Msg("load finished")
	return err
}

func newIngestService(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, strict, createTable bool) (*service.IngestService, error) {
	writer := postgres.NewCopyWriter(pool)
	if createTable {
		if err := writer.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}

	summaryCache, err := cache.NewSummaryCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("summary cache unavailable, skipping invalidation")
		summaryCache = cache.NewNoopSummaryCache()
	}

	return service.NewIngestService(writer, summaryCache, strict), nil
}

// driveSources downloads the folder to a temporary directory; cleanup removes it.
func driveSources(ctx context.Context, cfg config.DriveConfig, folderID string) ([]source, func(), error) {
	driveService, err := drive.NewService(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	dir, err := os.MkdirTemp("", "kpi-drive-*")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create download dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	paths, err := driveService.DownloadFolder(ctx, folderID, dir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Log.Info().Str("folder", folderID).Int("files", len(paths)).Msg("downloaded drive folder")

	sources, err := localSources(paths, "")
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return sources, cleanup, nil
}
