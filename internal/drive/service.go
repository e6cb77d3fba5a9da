package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/andresuchdata/kpi-visualizer/internal/config"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	sheetMimeType  = "application/vnd.google-apps.spreadsheet"
	fileFields     = "id, name, mimeType, modifiedTime, size"
)

// ErrNotConfigured is returned when no service account credentials are set.
var ErrNotConfigured = errors.New("google drive credentials are not configured")

// ErrFolderNotFound is returned by FindFolderByPath when a path segment does not exist.
var ErrFolderNotFound = errors.New("folder not found")

type Service struct {
	srv *drive.Service
}

// NewService authenticates with the service account in cfg (inline JSON first, then
// the credentials file).
func NewService(ctx context.Context, cfg config.DriveConfig) (*Service, error) {
	credentials := []byte(cfg.CredentialsJSON)
	if len(credentials) == 0 && cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credentials = data
	}
	if len(credentials) == 0 {
		return nil, ErrNotConfigured
	}

	jwt, err := google.JWTConfigFromJSON(credentials, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	return NewServiceWithOptions(ctx, option.WithHTTPClient(jwt.Client(ctx)))
}

// NewServiceWithOptions builds the client from raw API options.
func NewServiceWithOptions(ctx context.Context, opts ...option.ClientOption) (*Service, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	return &Service{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

func (f *File) IsFolder() bool { return f.MimeType == folderMimeType }

// ExportName is the name the file is parsed under. Google Sheets are exported as CSV.
func (f *File) ExportName() string {
	if f.MimeType == sheetMimeType && !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
		return f.Name + ".csv"
	}
	return f.Name
}

func fromAPI(f *drive.File) *File {
	return &File{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		ModifiedTime: f.ModifiedTime,
		Size:         f.Size,
	}
}

// ListFiles lists the non-trashed children of folderID ("root" when empty), following
// pagination.
func (s *Service) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	if folderID == "" {
		folderID = "root"
	}

	var files []*File
	err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(folderID))).
		Fields("nextPageToken, files(" + fileFields + ")").
		OrderBy("name").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				files = append(files, fromAPI(f))
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	return files, nil
}

// GetFile returns the metadata of one file.
func (s *Service) GetFile(ctx context.Context, fileID string) (*File, error) {
	f, err := s.srv.Files.Get(fileID).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to get file %s: %w", fileID, err)
	}
	return fromAPI(f), nil
}

// DownloadFile copies the content of file to w.
func (s *Service) DownloadFile(ctx context.Context, file *File, w io.Writer) error {
	var body io.ReadCloser
	if file.MimeType == sheetMimeType {
		resp, err := s.srv.Files.Export(file.ID, "text/csv").Context(ctx).Download()
		if err != nil {
			return fmt.Errorf("unable to export file %s: %w", file.Name, err)
		}
		body = resp.Body
	} else {
		resp, err := s.srv.Files.Get(file.ID).Context(ctx).Download()
		if err != nil {
			return fmt.Errorf("unable to download file %s: %w", file.Name, err)
		}
		body = resp.Body
	}
	defer body.Close()

	if _, err := io.Copy(w, body); err != nil {
		return fmt.Errorf("failed to read file %s: %w", file.Name, err)
	}
	return nil
}

// FindFolderByPath resolves a slash-separated folder path from the Drive root.
func (s *Service) FindFolderByPath(ctx context.Context, path string) (string, error) {
	currentID := "root"

	for _, folder := range strings.Split(path, "/") {
		if folder == "" {
			continue
		}

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false",
				escapeQuery(currentID), escapeQuery(folder), folderMimeType)).
			Fields("files(id, name)").
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}

		if len(result.Files) == 0 {
			return "", fmt.Errorf("%w: %s", ErrFolderNotFound, folder)
		}

		currentID = result.Files[0].Id
	}

	return currentID, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
