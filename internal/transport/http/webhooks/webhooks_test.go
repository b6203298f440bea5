package webhooks

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"github.com/GustavEkberg/init/internal/activity"
	"github.com/GustavEkberg/init/pkg/testutil"
)

type WebhooksSuite struct {
	suite.Suite
	router chi.Router
}

func TestWebhooksSuite(t *testing.T) {
	suite.Run(t, new(WebhooksSuite))
}

func (s *WebhooksSuite) SetupTest() {
	s.router = chi.NewRouter()
	New("shared-secret", slog.New(slog.DiscardHandler)).Register(s.router)
}

func (s *WebhooksSuite) TestEmailEvent() {
	s.Run("valid secret records the event", func() {
		acc := &activity.Accumulator{}
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/webhooks/email",
			map[string]string{"type": "delivered", "email": "jane@example.com"})
		req = req.WithContext(activity.WithAccumulator(req.Context(), acc))
		req.Header.Set(SecretHeader, "shared-secret")

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
		s.Equal(1, acc.Len())
	})

	s.Run("wrong secret is a 401", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/webhooks/email",
			map[string]string{"type": "delivered"})
		req.Header.Set(SecretHeader, "wrong")

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("missing secret is a 401", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/webhooks/email",
			map[string]string{"type": "delivered"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("missing event type is a 400", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/webhooks/email",
			map[string]string{"email": "jane@example.com"})
		req.Header.Set(SecretHeader, "shared-secret")

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("unconfigured endpoint is a 404", func() {
		disabled := chi.NewRouter()
		New("", slog.New(slog.DiscardHandler)).Register(disabled)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/webhooks/email",
			map[string]string{"type": "delivered"})
		rr := testutil.DoRequest(disabled, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}
