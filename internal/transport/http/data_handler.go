package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "viewership/internal/errors"
	"viewership/internal/files"
	"viewership/internal/middleware"
	"viewership/internal/services"
	"viewership/internal/validation"
	"viewership/pkg/contracts/domain"
)

const (
	defaultTopN     = 10
	uploadFormField = "file"
	multipartMemory = 32 << 20
)

// DataHandler serves the viewership data routes with RFC 7807 errors
type DataHandler struct {
	service        CorpusServiceInterface
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler
func NewDataHandler(service CorpusServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "data_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/files", h.GetFiles)
	r.Get("/corpus", h.GetCorpus)
	r.Get("/fiscal-halves", h.GetFiscalHalves)
	r.With(middleware.ContentTypeValidator("multipart/form-data")).Post("/uploads", h.Upload)

	r.With(h.MediaCtx).Get("/top/{media}", h.GetTop)
	r.With(h.MediaCtx).Get("/master/{media}", h.GetMaster)

	return r
}

type mediaKey struct{}

// MediaCtx validates the {media} parameter
func (h *DataHandler) MediaCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		media, err := domain.ParseMediaType(chi.URLParam(r, "media"))
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("media", "Media must be film or tv"))
			return
		}
		next.ServeHTTP(w, r.WithContext(withMedia(r, media)))
	})
}

func withMedia(r *http.Request, media domain.MediaType) context.Context {
	return context.WithValue(r.Context(), mediaKey{}, media)
}

func mediaFrom(r *http.Request) domain.MediaType {
	if m, ok := r.Context().Value(mediaKey{}).(domain.MediaType); ok {
		return m
	}
	return domain.MediaFilm
}

// FileView is the JSON form of an export file
type FileView struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size_bytes"`
	Modified time.Time `json:"modified"`
}

// GetFiles handles GET /api/data/files
func (h *DataHandler) GetFiles(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Files(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	views := make([]FileView, 0, len(list))
	for _, f := range list {
		views = append(views, fileView(f))
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   views,
		"count":  len(views),
	})
}

func fileView(f files.FileInfo) FileView {
	return FileView{Name: f.Name, Size: f.Size, Modified: f.ModTime}
}

// GetCorpus handles GET /api/data/corpus. It reports what the last build
// read and skipped, not the rows themselves.
func (h *DataHandler) GetCorpus(w http.ResponseWriter, r *http.Request) {
	corpus, err := h.service.Corpus(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"fingerprint": corpus.Fingerprint,
			"built_at":    corpus.BuiltAt,
			"film_rows":   len(corpus.Film),
			"tv_rows":     len(corpus.TV),
			"files":       corpus.Files,
			"skipped":     corpus.Skipped,
		},
	})
}

// GetMaster handles GET /api/data/master/{media}
func (h *DataHandler) GetMaster(w http.ResponseWriter, r *http.Request) {
	corpus, err := h.service.Corpus(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows := corpus.Table(mediaFrom(r))
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
	})
}

// GetTop handles GET /api/data/top/{media}?n=&metric=&min_count=&max_count=
func (h *DataHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	q, field, err := parseTopQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(field, err.Error()))
		return
	}

	table, err := h.service.Top(r.Context(), mediaFrom(r), q)
	if err != nil {
		if errors.Is(err, services.ErrInvalidQuery) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("query", err.Error()))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   table,
	})
}

func parseTopQuery(r *http.Request) (domain.TopQuery, string, error) {
	values := r.URL.Query()
	q := domain.TopQuery{N: defaultTopN}

	intParam := func(name string, dst *int) error {
		raw := values.Get(name)
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be an integer", name)
		}
		*dst = n
		return nil
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"n", &q.N},
		{"min_count", &q.MinCount},
		{"max_count", &q.MaxCount},
	} {
		if err := intParam(p.name, p.dst); err != nil {
			return q, p.name, err
		}
	}

	metric, err := domain.ParseMetric(values.Get("metric"))
	if err != nil {
		return q, "metric", err
	}
	q.Metric = metric
	return q, "", nil
}

// GetFiscalHalves handles GET /api/data/fiscal-halves?dimension=
func (h *DataHandler) GetFiscalHalves(w http.ResponseWriter, r *http.Request) {
	dim, err := domain.ParseDimension(r.URL.Query().Get("dimension"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("dimension", err.Error()))
		return
	}

	buckets, err := h.service.FiscalHalves(r.Context(), dim)
	if err != nil {
		if errors.Is(err, services.ErrInvalidQuery) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("dimension", err.Error()))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":    "success",
		"dimension": dim,
		"data":      buckets,
		"count":     len(buckets),
	})
}

// Upload handles POST /api/data/uploads with the workbook in the "file"
// multipart field
func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.New(http.StatusRequestEntityTooLarge,
				"UPLOAD_TOO_LARGE", fmt.Sprintf("Upload exceeds %d bytes", maxErr.Limit)))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadFormField, "A workbook must be sent in the file field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest)
		return
	}

	name := filepath.Base(header.Filename)
	h.logger.InfoContext(ctx, "upload received",
		slog.String("file", name),
		slog.Int("size_bytes", len(data)))

	result, err := h.service.Upload(ctx, name, data)
	if err != nil {
		switch {
		case errors.Is(err, files.ErrExportExists):
			h.errorHandler.HandleError(w, r, apierrors.ExportExists(name))
		case apierrors.IsType(err, apierrors.ErrTypeValidation):
			h.errorHandler.HandleError(w, r, apierrors.UploadRejected(validation.Message(err)))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"message": result.Message,
		"data":    result,
	})
}
