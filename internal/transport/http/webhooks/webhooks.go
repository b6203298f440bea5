// Package webhooks receives delivery events from the transactional email
// provider. This is a machine-facing surface: authentication failures are
// HTTP 401, never redirects.
package webhooks

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GustavEkberg/init/internal/activity"
	"github.com/GustavEkberg/init/internal/transport/http/shared"
	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
	"github.com/GustavEkberg/init/pkg/requestcontext"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-Webhook-Secret"

// emailEvent is the provider's delivery event payload.
type emailEvent struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

// Handler verifies and records inbound webhook events.
type Handler struct {
	secret string
	logger *slog.Logger
}

// New creates a webhook Handler. An empty secret disables the endpoint
// entirely rather than accepting unauthenticated calls.
func New(secret string, logger *slog.Logger) *Handler {
	return &Handler{secret: secret, logger: logger}
}

// Register registers the webhook routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/webhooks/email", h.handleEmailEvent)
}

func (h *Handler) handleEmailEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.secret == "" {
		shared.WriteError(w, dErrors.NotFound("endpoint", r.URL.Path))
		return
	}

	provided := r.Header.Get(SecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		h.logger.WarnContext(ctx, "webhook with bad secret",
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, dErrors.Unauthenticated("invalid webhook secret"))
		return
	}

	var event emailEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid event payload"))
		return
	}
	if event.Type == "" {
		shared.WriteError(w, dErrors.Validation("type", "event type is required"))
		return
	}

	activity.Logf(ctx, "email event %s for %s", event.Type, event.Email)
	h.logger.InfoContext(ctx, "email event received",
		"type", event.Type,
		"request_id", requestcontext.RequestID(ctx),
	)

	w.WriteHeader(http.StatusNoContent)
}
