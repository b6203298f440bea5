package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GustavEkberg/init/internal/activity"
	authhandler "github.com/GustavEkberg/init/internal/auth/handler"
	authservice "github.com/GustavEkberg/init/internal/auth/service"
	sessionstore "github.com/GustavEkberg/init/internal/auth/store/session"
	userstore "github.com/GustavEkberg/init/internal/auth/store/user"
	"github.com/GustavEkberg/init/internal/auth/token"
	fileshandler "github.com/GustavEkberg/init/internal/files/handler"
	filesservice "github.com/GustavEkberg/init/internal/files/service"
	"github.com/GustavEkberg/init/internal/files/storage"
	"github.com/GustavEkberg/init/internal/platform/config"
	"github.com/GustavEkberg/init/internal/platform/httpserver"
	"github.com/GustavEkberg/init/internal/platform/logger"
	"github.com/GustavEkberg/init/internal/platform/metrics"
	"github.com/GustavEkberg/init/internal/platform/middleware"
	"github.com/GustavEkberg/init/internal/platform/postgres"
	platformredis "github.com/GustavEkberg/init/internal/platform/redis"
	postscache "github.com/GustavEkberg/init/internal/posts/cache"
	postshandler "github.com/GustavEkberg/init/internal/posts/handler"
	postsservice "github.com/GustavEkberg/init/internal/posts/service"
	postsstore "github.com/GustavEkberg/init/internal/posts/store"
	httptransport "github.com/GustavEkberg/init/internal/transport/http"
	"github.com/GustavEkberg/init/internal/transport/http/webhooks"
	"github.com/GustavEkberg/init/pkg/email"
)

const tokenIssuer = "init"

// main wires dependencies and owns the server lifecycle. Backing services
// are optional: without Postgres, Redis, or S3 the server runs on
// in-memory stores, which is the zero-config development mode.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	pool, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err.Error())
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Error("schema migration failed", "error", err.Error())
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var users authservice.UserStore = userstore.NewInMemory()
	if pool != nil {
		users = userstore.NewPostgres(pool)
	}
	var sessions authservice.SessionStore = sessionstore.NewInMemory()
	if redisClient != nil {
		sessions = sessionstore.NewRedis(redisClient)
	}

	var sender email.Sender = email.NoopSender{Logger: log}
	if cfg.Email.APIKey != "" {
		sender = email.NewClient(cfg.Email.BaseURL, cfg.Email.APIKey, cfg.Email.From)
	}

	authSvc, err := authservice.New(
		users,
		sessions,
		token.NewService(cfg.JWTSigningKey, tokenIssuer),
		sender,
		m,
		log,
		cfg.SessionTTL,
	)
	if err != nil {
		log.Error("auth service init failed", "error", err.Error())
		os.Exit(1)
	}

	var postStore postsservice.Store = postsstore.NewInMemory()
	if pool != nil {
		postStore = postsstore.NewPostgres(pool)
	}
	var listCache postscache.ListCache
	if redisClient != nil {
		listCache = postscache.NewRedis(redisClient, 5*time.Minute, m)
	}
	postsSvc, err := postsservice.New(postStore, listCache, m, log)
	if err != nil {
		log.Error("posts service init failed", "error", err.Error())
		os.Exit(1)
	}

	handlers := []httptransport.Registrar{
		authhandler.New(authSvc, log, cfg.SecureCookies),
		postshandler.New(postsSvc, authSvc, log),
		webhooks.New(cfg.Email.WebhookSecret, log),
	}

	objectStorage, err := storage.NewS3(ctx, cfg.S3)
	if err != nil {
		log.Error("object storage init failed", "error", err.Error())
		os.Exit(1)
	}
	if objectStorage != nil {
		filesSvc, err := filesservice.New(objectStorage, m, log)
		if err != nil {
			log.Error("files service init failed", "error", err.Error())
			os.Exit(1)
		}
		handlers = append(handlers, fileshandler.New(filesSvc, authSvc, log))
	} else {
		log.Info("no S3 bucket configured, files endpoints disabled")
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Metrics:  m,
		Notifier: activity.NewNotifier(cfg.ActivityWebhookURL, log),
		Gate:     middleware.DefaultGateConfig(),
		Handlers: handlers,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server starting", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
