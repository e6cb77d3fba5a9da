package drive

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/kpi-visualizer/internal/ingest"
	"github.com/andresuchdata/kpi-visualizer/internal/kpi"
)

type Handler struct {
	service       *Service
	ingestService *IngestService
}

func NewHandler(service *Service, ingestService *IngestService) *Handler {
	return &Handler{
		service:       service,
		ingestService: ingestService,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/ingest", h.IngestFile).Methods(http.MethodPost)
}

// ListFiles lists a folder by ?folderId= or by ?path= from the Drive root.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")

	if folderPath := query.Get("path"); folderPath != "" {
		id, err := h.service.FindFolderByPath(r.Context(), folderPath)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrFolderNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, "folder lookup failed", err)
			return
		}
		folderID = id
	}

	files, err := h.service.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "drive listing failed", err)
		return
	}
	if files == nil {
		files = []*File{}
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, "fileId parameter is required", nil)
		return
	}

	file, err := h.service.GetFile(r.Context(), fileID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "drive lookup failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(file.ExportName()))

	if err := h.service.DownloadFile(r.Context(), file, w); err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("drive download failed")
	}
}

// IngestFile loads ?fileId= into the store; ?replace=true truncates the table first.
func (h *Handler) IngestFile(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fileID := query.Get("fileId")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, "fileId parameter is required", nil)
		return
	}

	replace := false
	if raw := query.Get("replace"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid replace parameter", err)
			return
		}
		replace = v
	}

	result, err := h.ingestService.IngestFile(r.Context(), fileID, replace)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, kpi.ErrMalformedInput) || errors.Is(err, kpi.ErrEmptyInput) || errors.Is(err, ingest.ErrMissingColumn) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "ingestion failed", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := map[string]string{"error": message}
	if err != nil {
		body["details"] = err.Error()
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Msg(message)
		}
	}
	writeJSON(w, status, body)
}
