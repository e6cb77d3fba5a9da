package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/ingest"
	"github.com/andresuchdata/kpi-visualizer/internal/storage"
)

// source is one sale report to read, local or remote.
type source struct {
	name string
	read func(ctx context.Context) ([]domain.RawOrder, error)
}

type batch struct {
	source string
	rows   []domain.RawOrder
}

type loader interface {
	Load(ctx context.Context, source string, rows []domain.RawOrder, replace bool) (*domain.IngestResult, error)
}

func supportedName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// localSources returns files followed by the reports found directly in dir, sorted by name.
func localSources(files []string, dir string) ([]source, error) {
	paths := append([]string(nil), files...)
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read dir %s: %w", dir, err)
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && supportedName(e.Name()) {
				found = append(found, filepath.Join(dir, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}

	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		sources = append(sources, source{
			name: path,
			read: func(context.Context) ([]domain.RawOrder, error) {
				return ingest.ReadFile(path)
			},
		})
	}
	return sources, nil
}

// objectSources lists the reports under prefix in the bucket.
func objectSources(ctx context.Context, store storage.ObjectStorage, prefix string) ([]source, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var sources []source
	for _, obj := range objects {
		if !supportedName(obj.Key) {
			continue
		}
		key := obj.Key
		sources = append(sources, source{
			name: "s3:" + key,
			read: func(ctx context.Context) ([]domain.RawOrder, error) {
				body, err := store.OpenObject(ctx, key)
				if err != nil {
					return nil, err
				}
				defer body.Close()

				rows, err := ingest.Read(key, body)
				if err != nil {
					return nil, fmt.Errorf("s3:%s: %w", key, err)
				}
				return rows, nil
			},
		})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].name < sources[j].name })
	return sources, nil
}

// readSources parses sources with at most workers in flight. Batches keep the order of
// sources.
func readSources(ctx context.Context, sources []source, workers int) ([]batch, error) {
	if workers <= 0 {
		workers = 1
	}

	batches := make([]batch, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		g.Go(func() error {
			rows, err := src.read(ctx)
			if err != nil {
				return err
			}
			batches[i] = batch{source: src.name, rows: rows}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

// loadBatches writes batches in order. With replace, only the first batch truncates the
// table.
func loadBatches(ctx context.Context, l loader, batches []batch, replace bool) ([]*domain.IngestResult, error) {
	results := make([]*domain.IngestResult, 0, len(batches))
	for i, b := range batches {
		res, err := l.Load(ctx, b.source, b.rows, replace && i == 0)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
