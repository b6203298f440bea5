package middleware

import (
	"net/http"
	"strings"

	"github.com/GustavEkberg/init/internal/platform/metrics"
)

// Session cookie names. The secure-prefixed variant is issued when serving
// over TLS; the gate accepts either.
const (
	SessionCookieName       = "session"
	SecureSessionCookieName = "__Secure-" + SessionCookieName
)

// CurrentPathHeader carries the inbound path on every allowed response so
// layout rendering can detect the active route without re-parsing the URL.
const CurrentPathHeader = "X-Current-Path"

// GateConfig is the static admission data for the session gate. The lists
// are compile-time configuration, not runtime-tunable.
type GateConfig struct {
	// PublicPaths are exact-match paths that never require a session.
	PublicPaths []string
	// PublicPrefixes are prefix-match public path roots.
	PublicPrefixes []string
	// LoginPath is the redirect target for unauthenticated requests.
	LoginPath string
}

// DefaultGateConfig returns the admission data the template ships with.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		PublicPaths: []string{"/", "/login"},
		LoginPath:   "/login",
	}
}

// Decision is the gate's verdict for a single request. Exactly one of
// Allowed or RedirectTo is meaningful; the gate has no error channel.
type Decision struct {
	Allowed     bool
	RedirectTo  string
	Annotations map[string]string
}

// Decide is the gate as a pure function over (path, cookie presence).
// Matching is case-sensitive exact string/prefix comparison with no
// normalization. The cookie value is never inspected beyond non-emptiness;
// credential validity is the auth service's concern.
func (c GateConfig) Decide(path string, cookiePresent func(name string) bool) Decision {
	allow := Decision{
		Allowed:     true,
		Annotations: map[string]string{CurrentPathHeader: path},
	}

	for _, public := range c.PublicPaths {
		if path == public {
			return allow
		}
	}
	for _, root := range c.PublicPrefixes {
		if strings.HasPrefix(path, root) {
			return allow
		}
	}

	if cookiePresent(SessionCookieName) || cookiePresent(SecureSessionCookieName) {
		return allow
	}

	return Decision{RedirectTo: c.LoginPath}
}

// SessionGate admits or redirects every request it sees. It runs to
// completion before any handler and holds no state across requests.
func SessionGate(cfg GateConfig, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := cfg.Decide(r.URL.Path, func(name string) bool {
				cookie, err := r.Cookie(name)
				return err == nil && cookie.Value != ""
			})

			if !decision.Allowed {
				if m != nil {
					m.GateRedirects.Inc()
				}
				http.Redirect(w, r, decision.RedirectTo, http.StatusSeeOther)
				return
			}

			for key, value := range decision.Annotations {
				w.Header().Set(key, value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// gateExclusions are the well-known files the gate never sees.
var gateExclusions = map[string]bool{
	"/favicon.ico": true,
	"/sitemap.xml": true,
	"/robots.txt":  true,
}

// imageExtensions are static asset suffixes excluded from gating.
var imageExtensions = []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp"}

// SkipGate reports whether a path bypasses the session gate entirely: API
// routes authenticate per-request, and static assets are public. Evaluated
// by the router before the gate runs.
func SkipGate(path string) bool {
	if strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/static/") {
		return true
	}
	if gateExclusions[path] {
		return true
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Excluding applies mw only to requests whose path does not match skip.
func Excluding(skip func(path string) bool, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		gated := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			gated.ServeHTTP(w, r)
		})
	}
}
