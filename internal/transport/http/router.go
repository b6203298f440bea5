// Package httptransport assembles the HTTP surface: the middleware chain,
// the session gate over interactive routes, and every domain handler.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GustavEkberg/init/internal/activity"
	"github.com/GustavEkberg/init/internal/platform/metrics"
	"github.com/GustavEkberg/init/internal/platform/middleware"
	"github.com/GustavEkberg/init/internal/transport/http/shared"
)

// Registrar registers a handler's routes on the router.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs. Nil registrars are skipped so
// optional domains (files without a bucket) drop out cleanly.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Notifier *activity.Notifier
	Gate     middleware.GateConfig
	Handlers []Registrar
}

// NewRouter builds the application router. Middleware order matters: the
// request ID and client metadata come first so every later log line can
// carry them, recovery wraps everything below it, and the session gate
// runs last so excluded paths and machine routes bypass it.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(activity.Middleware(d.Notifier))

	// The gate wraps the whole mux so unregistered interactive paths still
	// redirect. Infra endpoints join the standing exclusions.
	skip := func(path string) bool {
		return path == "/health" || path == "/metrics" || middleware.SkipGate(path)
	}
	r.Use(middleware.Excluding(skip, middleware.SessionGate(d.Gate, d.Metrics)))

	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", handleHome)
	r.Get("/login", handleLoginPage)

	for _, h := range d.Handlers {
		if h != nil {
			h.Register(r)
		}
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHome and handleLoginPage are the two public pages. The template
// serves page data as JSON; a frontend renders it.
func handleHome(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"page": "home"})
}

func handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"page": "login"})
}
