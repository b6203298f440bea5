// Package handler exposes the auth domain over HTTP: machine endpoints
// under /api/auth and interactive login/logout for browser flows.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GustavEkberg/init/internal/auth/models"
	"github.com/GustavEkberg/init/internal/platform/middleware"
	"github.com/GustavEkberg/init/internal/transport/http/shared"
	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
	"github.com/GustavEkberg/init/pkg/outcome"
	"github.com/GustavEkberg/init/pkg/requestcontext"
)

// Service defines the auth operations the handler needs.
type Service interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.UserInfo, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*models.UserInfo, error)
	Authenticate(ctx context.Context, token string) (middleware.Identity, error)
}

// Handler wires auth endpoints to the auth service.
type Handler struct {
	auth          Service
	logger        *slog.Logger
	secureCookies bool
}

// New creates a new auth Handler. With secureCookies the session cookie
// uses the __Secure- prefix and the Secure attribute.
func New(auth Service, logger *slog.Logger, secureCookies bool) *Handler {
	return &Handler{
		auth:          auth,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// Register registers machine routes under /api/auth and the interactive
// login/logout routes at the root.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/auth", func(api chi.Router) {
		api.Post("/signup", h.handleSignup)
		api.Post("/login", h.handleLogin)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth(h.auth, h.logger))
			protected.Post("/logout", h.handleLogout)
			protected.Post("/logout-all", h.handleLogoutAll)
			protected.Get("/me", h.handleMe)
		})
	})

	r.Post("/login", h.handleInteractiveLogin)
	r.Post("/logout", h.handleInteractiveLogout)
}

// =============================================================================
// Machine endpoints
// =============================================================================

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	info, err := h.auth.Signup(ctx, req)
	if err != nil {
		h.logFailure(ctx, "signup failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, info)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	res, err := h.auth.Login(ctx, req)
	if err != nil {
		h.logFailure(ctx, "login failed", err)
		shared.WriteError(w, err)
		return
	}

	h.setSessionCookie(w, res)
	shared.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.auth.Logout(ctx, requestcontext.SessionID(ctx)); err != nil {
		h.logFailure(ctx, "logout failed", err)
		shared.WriteError(w, err)
		return
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleLogoutAll revokes every session the caller holds, including the one
// authenticating this request.
func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.auth.LogoutAll(ctx, requestcontext.UserID(ctx)); err != nil {
		h.logFailure(ctx, "logout all failed", err)
		shared.WriteError(w, err)
		return
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	info, err := h.auth.Me(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logFailure(ctx, "me lookup failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, info)
}

// =============================================================================
// Interactive endpoints
// =============================================================================

// handleInteractiveLogin answers a browser login form. Success issues the
// session cookie and redirects home; declared failures become tagged error
// payloads.
func (h *Handler) handleInteractiveLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteOutcome(w, r, outcome.Error("invalid request"))
		return
	}

	res, err := h.auth.Login(ctx, req)
	if err == nil {
		h.setSessionCookie(w, res)
		shared.WriteOutcome(w, r, outcome.Redirect("/"))
		return
	}

	o, defect := outcome.Map(nil, err, outcome.Mapping{
		Messages: map[dErrors.Code]string{
			dErrors.CodeValidation: "",
		},
		Fallback: "could not log in",
	})
	if defect != nil {
		h.logFailure(ctx, "login defect", defect)
		shared.WriteError(w, defect)
		return
	}
	shared.WriteOutcome(w, r, o)
}

// handleInteractiveLogout ends the session behind the cookie and sends the
// browser to the login page. A stale or missing session still clears the
// cookie; logout is not allowed to fail visibly.
func (h *Handler) handleInteractiveLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if token := middleware.TokenFromRequest(r); token != "" {
		if identity, err := h.auth.Authenticate(ctx, token); err == nil {
			if err := h.auth.Logout(ctx, identity.SessionID); err != nil {
				h.logFailure(ctx, "logout failed", err)
			}
		}
	}

	h.clearSessionCookie(w)
	shared.WriteOutcome(w, r, outcome.Redirect(outcome.DefaultLoginPath))
}

// =============================================================================
// Cookies
// =============================================================================

func (h *Handler) cookieName() string {
	if h.secureCookies {
		return middleware.SecureSessionCookieName
	}
	return middleware.SessionCookieName
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, res *models.LoginResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if _, coded := dErrors.CodeOf(err); coded {
		h.logger.WarnContext(ctx, msg,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
}
