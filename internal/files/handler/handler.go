// Package handler exposes the files domain under /api/files. All routes
// require a verified identity; object keys are scoped to the user.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GustavEkberg/init/internal/files/models"
	"github.com/GustavEkberg/init/internal/platform/middleware"
	"github.com/GustavEkberg/init/internal/transport/http/shared"
	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
	"github.com/GustavEkberg/init/pkg/requestcontext"
)

// Uploads above this size are rejected before buffering.
const maxUploadBytes = 10 << 20

// Service defines the file operations the handler needs.
type Service interface {
	Upload(ctx context.Context, userID uuid.UUID, filename, contentType string, body io.Reader) (*models.File, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.File, error)
	Presign(ctx context.Context, userID uuid.UUID, key string) (string, error)
	Delete(ctx context.Context, userID uuid.UUID, key string) error
}

// Handler wires file endpoints to the files service.
type Handler struct {
	files  Service
	authn  middleware.Authenticator
	logger *slog.Logger
}

// New creates a new files Handler.
func New(files Service, authn middleware.Authenticator, logger *slog.Logger) *Handler {
	return &Handler{files: files, authn: authn, logger: logger}
}

// Register registers the file routes under /api/files.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/files", func(api chi.Router) {
		api.Use(middleware.RequireAuth(h.authn, h.logger))
		api.Post("/", h.handleUpload)
		api.Get("/", h.handleList)
		api.Get("/*", h.handlePresign)
		api.Delete("/*", h.handleDelete)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart upload"))
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		shared.WriteError(w, dErrors.Validation("file", "a file part is required"))
		return
	}
	defer part.Close()

	file, err := h.files.Upload(ctx, requestcontext.UserID(ctx),
		header.Filename, header.Header.Get("Content-Type"), part)
	if err != nil {
		h.logFailure(ctx, "file upload failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, file)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	files, err := h.files.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logFailure(ctx, "file listing failed", err)
		shared.WriteError(w, err)
		return
	}

	if files == nil {
		files = []models.File{}
	}
	shared.WriteJSON(w, http.StatusOK, files)
}

func (h *Handler) handlePresign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	url, err := h.files.Presign(ctx, requestcontext.UserID(ctx), chi.URLParam(r, "*"))
	if err != nil {
		h.logFailure(ctx, "file presign failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.files.Delete(ctx, requestcontext.UserID(ctx), chi.URLParam(r, "*")); err != nil {
		h.logFailure(ctx, "file delete failed", err)
		shared.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if _, coded := dErrors.CodeOf(err); coded {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
