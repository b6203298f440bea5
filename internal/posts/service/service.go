// Package service implements the posts domain logic: validation,
// ownership checks, and the cached list path.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/GustavEkberg/init/internal/activity"
	"github.com/GustavEkberg/init/internal/platform/metrics"
	"github.com/GustavEkberg/init/internal/posts/cache"
	"github.com/GustavEkberg/init/internal/posts/models"
	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
	"github.com/GustavEkberg/init/pkg/platform/sentinel"
	"github.com/GustavEkberg/init/pkg/requestcontext"
)

const (
	maxTitleLength = 200
	maxBodyLength  = 50000
)

// Store persists posts.
type Store interface {
	Create(ctx context.Context, post *models.Post) error
	Find(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service is the posts domain service.
type Service struct {
	store   Store
	cache   cache.ListCache
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New constructs the posts service. A nil cache degrades to the no-op
// variant.
func New(store Store, listCache cache.ListCache, m *metrics.Metrics, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("post store is required")
	}
	if listCache == nil {
		listCache = cache.Noop{Metrics: m}
	}
	return &Service{
		store:   store,
		cache:   listCache,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("posts"),
	}, nil
}

// Create validates and stores a new post for the author.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, req models.CreatePostRequest) (*models.Post, error) {
	ctx, span := s.tracer.Start(ctx, "posts.Create",
		trace.WithAttributes(attribute.String("author_id", authorID.String())))
	defer span.End()

	if err := validateContent(req.Title, req.Body); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	post := &models.Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.metrics.PostsCreated.Inc()
	activity.Logf(ctx, "new post %q by %s", post.Title, authorID)
	return post, nil
}

// Get returns a post by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	ctx, span := s.tracer.Start(ctx, "posts.Get",
		trace.WithAttributes(attribute.String("post_id", id.String())))
	defer span.End()

	post, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("post", id.String())
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return post, nil
}

// List returns an author's posts, newest first, through the cache.
func (s *Service) List(ctx context.Context, authorID uuid.UUID) ([]models.Post, error) {
	ctx, span := s.tracer.Start(ctx, "posts.List",
		trace.WithAttributes(attribute.String("author_id", authorID.String())))
	defer span.End()

	cached, hit, err := s.cache.GetList(ctx, authorID)
	if err != nil {
		// A broken cache must not break reads.
		s.logger.WarnContext(ctx, "post list cache read failed", "error", err.Error())
	}
	if hit {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached, nil
	}

	posts, err := s.store.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	if err := s.cache.SetList(ctx, authorID, posts); err != nil {
		s.logger.WarnContext(ctx, "post list cache write failed", "error", err.Error())
	}
	return posts, nil
}

// Update applies changes to a post the user owns.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req models.UpdatePostRequest) (*models.Post, error) {
	ctx, span := s.tracer.Start(ctx, "posts.Update",
		trace.WithAttributes(attribute.String("post_id", id.String())))
	defer span.End()

	post, err := s.ownedPost(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Body != nil {
		post.Body = *req.Body
	}
	if err := validateContent(post.Title, post.Body); err != nil {
		return nil, err
	}
	post.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, post); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("post", id.String())
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

// Delete removes a post the user owns.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "posts.Delete",
		trace.WithAttributes(attribute.String("post_id", id.String())))
	defer span.End()

	if _, err := s.ownedPost(ctx, userID, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.NotFound("post", id.String())
		}
		return fmt.Errorf("delete post: %w", err)
	}

	activity.Logf(ctx, "post %s deleted by %s", id, userID)
	return nil
}

// InvalidateList drops the author's cached list. Called through the
// success hook of mutating call sites; failures are logged, never
// surfaced, so a cache outage cannot fail a completed mutation.
func (s *Service) InvalidateList(ctx context.Context, authorID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, authorID); err != nil {
		s.logger.WarnContext(ctx, "post list cache invalidation failed",
			"author_id", authorID.String(),
			"error", err.Error(),
		)
	}
}

func (s *Service) ownedPost(ctx context.Context, userID, id uuid.UUID) (*models.Post, error) {
	post, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("post", id.String())
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	if post.AuthorID != userID {
		return nil, dErrors.Unauthorized("you do not own this post")
	}
	return post, nil
}

func validateContent(title, body string) error {
	if title == "" {
		return dErrors.Validation("title", "title is required")
	}
	if len(title) > maxTitleLength {
		return dErrors.Validation("title", "title is too long")
	}
	if len(body) > maxBodyLength {
		return dErrors.Validation("body", "body is too long")
	}
	return nil
}
