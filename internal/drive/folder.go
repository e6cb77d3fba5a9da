package drive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DownloadFolder saves every supported report in folderID under dir and returns the
// local paths. Google Sheets are saved as CSV.
func (s *Service) DownloadFolder(ctx context.Context, folderID, dir string) ([]string, error) {
	if dir == "" {
		return nil, errors.New("download dir is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := s.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !Supported(f) {
			continue
		}

		localPath := filepath.Join(dir, filepath.Base(f.ExportName()))
		if err := s.downloadTo(ctx, f, localPath); err != nil {
			return nil, err
		}
		paths = append(paths, localPath)
	}

	return paths, nil
}

func (s *Service) downloadTo(ctx context.Context, f *File, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", path, err)
	}
	if err := s.DownloadFile(ctx, f, out); err != nil {
		out.Close()
		_ = os.Remove(path)
		return err
	}
	return out.Close()
}
