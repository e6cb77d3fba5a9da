package drive

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/ingest"
)

// Loader stores parsed rows; *service.IngestService satisfies it.
type Loader interface {
	Load(ctx context.Context, source string, rows []domain.RawOrder, replace bool) (*domain.IngestResult, error)
}

type IngestService struct {
	driveService *Service
	loader       Loader
}

func NewIngestService(driveService *Service, loader Loader) *IngestService {
	return &IngestService{
		driveService: driveService,
		loader:       loader,
	}
}

// IngestFile downloads one sale report from Drive and loads it into the store.
func (s *IngestService) IngestFile(ctx context.Context, fileID string, replace bool) (*domain.IngestResult, error) {
	file, err := s.driveService.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	rows, err := s.readFile(ctx, file)
	if err != nil {
		return nil, err
	}

	return s.loader.Load(ctx, "drive:"+file.Name, rows, replace)
}

// IngestFolder loads every supported report in folderID. When replace is set only the
// first file truncates the table, so the folder ends up as the full contents.
func (s *IngestService) IngestFolder(ctx context.Context, folderID string, replace bool) ([]*domain.IngestResult, error) {
	files, err := s.driveService.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var results []*domain.IngestResult
	for _, f := range files {
		if !Supported(f) {
			log.Debug().Str("file", f.Name).Msg("skipping unsupported drive file")
			continue
		}

		rows, err := s.readFile(ctx, f)
		if err != nil {
			return results, err
		}

		res, err := s.loader.Load(ctx, "drive:"+f.Name, rows, replace && len(results) == 0)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	return results, nil
}

func (s *IngestService) readFile(ctx context.Context, file *File) ([]domain.RawOrder, error) {
	var buf bytes.Buffer
	if err := s.driveService.DownloadFile(ctx, file, &buf); err != nil {
		return nil, err
	}

	rows, err := ingest.Read(file.ExportName(), &buf)
	if err != nil {
		return nil, fmt.Errorf("drive:%s: %w", file.Name, err)
	}
	return rows, nil
}

// Supported reports whether f is a sale report the ingest readers understand.
func Supported(f *File) bool {
	if f.IsFolder() {
		return false
	}
	if f.MimeType == sheetMimeType {
		return true
	}
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}
