// Package metrics registers the application's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated       prometheus.Counter
	Logins             prometheus.Counter
	GateRedirects      prometheus.Counter
	PostsCreated       prometheus.Counter
	CacheInvalidations prometheus.Counter
	FilesUploaded      prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return newWithRegisterer(prometheus.DefaultRegisterer)
}

// NewForTest registers metrics on a throwaway registry so parallel test
// suites do not collide.
func NewForTest() *Metrics {
	return newWithRegisterer(prometheus.NewRegistry())
}

func newWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "init_users_created_total",
			Help: "Total number of users created.",
		}),
		Logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "init_logins_total",
			Help: "Total number of successful logins.",
		}),
		GateRedirects: factory.NewCounter(prometheus.CounterOpts{
			Name: "init_gate_redirects_total",
			Help: "Requests redirected to the login page by the session gate.",
		}),
		PostsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "init_posts_created_total",
			Help: "Total number of posts created.",
		}),
		CacheInvalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "init_cache_invalidations_total",
			Help: "Post list cache invalidations triggered by successful mutations.",
		}),
		FilesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "init_files_uploaded_total",
			Help: "Total number of files uploaded to object storage.",
		}),
	}
}
