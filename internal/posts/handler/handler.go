// Package handler exposes the posts domain over HTTP: a machine CRUD
// surface under /api/posts and interactive create/update endpoints for
// browser forms.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GustavEkberg/init/internal/platform/middleware"
	"github.com/GustavEkberg/init/internal/posts/models"
	"github.com/GustavEkberg/init/internal/transport/http/shared"
	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
	"github.com/GustavEkberg/init/pkg/outcome"
	"github.com/GustavEkberg/init/pkg/requestcontext"
)

// Service defines the post operations the handler needs.
type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, req models.CreatePostRequest) (*models.Post, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Post, error)
	List(ctx context.Context, authorID uuid.UUID) ([]models.Post, error)
	Update(ctx context.Context, userID, id uuid.UUID, req models.UpdatePostRequest) (*models.Post, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	InvalidateList(ctx context.Context, authorID uuid.UUID)
}

// Handler wires post endpoints to the posts service.
type Handler struct {
	posts  Service
	authn  middleware.Authenticator
	logger *slog.Logger
}

// New creates a new posts Handler.
func New(posts Service, authn middleware.Authenticator, logger *slog.Logger) *Handler {
	return &Handler{posts: posts, authn: authn, logger: logger}
}

// Register registers machine routes under /api/posts and the interactive
// form endpoints at /posts.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/posts", func(api chi.Router) {
		api.Use(middleware.RequireAuth(h.authn, h.logger))
		api.Post("/", h.handleCreate)
		api.Get("/", h.handleList)
		api.Get("/{id}", h.handleGet)
		api.Put("/{id}", h.handleUpdate)
		api.Delete("/{id}", h.handleDelete)
	})

	r.Post("/posts", h.handleInteractiveCreate)
	r.Post("/posts/{id}", h.handleInteractiveUpdate)
}

// =============================================================================
// Machine endpoints
// =============================================================================

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	var req models.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	post, err := h.posts.Create(ctx, userID, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	h.posts.InvalidateList(ctx, userID)
	shared.WriteJSON(w, http.StatusCreated, post)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	posts, err := h.posts.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "list posts failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	if posts == nil {
		posts = []models.Post{}
	}
	shared.WriteJSON(w, http.StatusOK, posts)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	var req models.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	post, err := h.posts.Update(ctx, userID, id, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	h.posts.InvalidateList(ctx, userID)
	shared.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	if err := h.posts.Delete(ctx, userID, id); err != nil {
		shared.WriteError(w, err)
		return
	}

	h.posts.InvalidateList(ctx, userID)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Interactive endpoints
// =============================================================================

// handleInteractiveCreate answers a browser post form. The identity comes
// from the session cookie; a missing or stale session maps to the login
// redirect through the outcome mapping.
func (h *Handler) handleInteractiveCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := h.identify(r)
	if err == nil {
		var req models.CreatePostRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			shared.WriteOutcome(w, r, outcome.Error("invalid request"))
			return
		}

		var post *models.Post
		post, err = h.posts.Create(ctx, identity.UserID, req)
		if err == nil {
			h.writeMutationOutcome(w, r, identity.UserID, post, nil)
			return
		}
	}
	h.writeMutationOutcome(w, r, uuid.Nil, nil, err)
}

func (h *Handler) handleInteractiveUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := h.identify(r)
	if err == nil {
		var id uuid.UUID
		id, err = uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			shared.WriteOutcome(w, r, outcome.Error("invalid post ID"))
			return
		}

		var req models.UpdatePostRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			shared.WriteOutcome(w, r, outcome.Error("invalid request"))
			return
		}

		var post *models.Post
		post, err = h.posts.Update(ctx, identity.UserID, id, req)
		if err == nil {
			h.writeMutationOutcome(w, r, identity.UserID, post, nil)
			return
		}
	}
	h.writeMutationOutcome(w, r, uuid.Nil, nil, err)
}

// writeMutationOutcome maps a mutation result to an interactive outcome.
// The success hook invalidates the author's cached list, so exactly one
// invalidation happens per successful mutation and none on failure.
func (h *Handler) writeMutationOutcome(w http.ResponseWriter, r *http.Request, authorID uuid.UUID, post *models.Post, err error) {
	ctx := r.Context()

	o, defect := outcome.Map(post, err, outcome.Mapping{
		Messages: map[dErrors.Code]string{
			dErrors.CodeValidation:   "",
			dErrors.CodeNotFound:     "post not found",
			dErrors.CodeUnauthorized: "",
		},
		Fallback: "could not save the post",
		OnSuccess: func() {
			h.posts.InvalidateList(ctx, authorID)
		},
	})
	if defect != nil {
		h.logger.ErrorContext(ctx, "post mutation defect",
			"error", defect.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, defect)
		return
	}
	shared.WriteOutcome(w, r, o)
}

func (h *Handler) identify(r *http.Request) (middleware.Identity, error) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		return middleware.Identity{}, dErrors.Unauthenticated("no session")
	}
	return h.authn.Authenticate(r.Context(), token)
}

func (h *Handler) postID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid post ID"))
		return uuid.Nil, false
	}
	return id, true
}
