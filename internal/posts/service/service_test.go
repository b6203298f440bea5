package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/GustavEkberg/init/internal/platform/metrics"
	"github.com/GustavEkberg/init/internal/posts/models"
	"github.com/GustavEkberg/init/internal/posts/store"
	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
)

// recordingCache counts operations and serves a fixed list when primed.
type recordingCache struct {
	mu            sync.Mutex
	primed        []models.Post
	hit           bool
	sets          int
	invalidations int
}

func (c *recordingCache) GetList(context.Context, uuid.UUID) ([]models.Post, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.primed, c.hit, nil
}

func (c *recordingCache) SetList(_ context.Context, _ uuid.UUID, posts []models.Post) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.primed = posts
	c.hit = true
	return nil
}

func (c *recordingCache) Invalidate(context.Context, uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.primed = nil
	c.hit = false
	return nil
}

type PostsServiceSuite struct {
	suite.Suite
	cache   *recordingCache
	service *Service
	author  uuid.UUID
}

func TestPostsServiceSuite(t *testing.T) {
	suite.Run(t, new(PostsServiceSuite))
}

func (s *PostsServiceSuite) SetupTest() {
	s.cache = &recordingCache{}
	s.author = uuid.New()

	var err error
	s.service, err = New(store.NewInMemory(), s.cache, metrics.NewForTest(), slog.New(slog.DiscardHandler))
	s.Require().NoError(err)
}

func (s *PostsServiceSuite) create(title string) *models.Post {
	post, err := s.service.Create(context.Background(), s.author, models.CreatePostRequest{
		Title: title,
		Body:  "body",
	})
	s.Require().NoError(err)
	return post
}

func (s *PostsServiceSuite) TestCreate() {
	s.Run("valid post", func() {
		post := s.create("hello")
		s.Equal(s.author, post.AuthorID)
		s.NotZero(post.CreatedAt)
	})

	s.Run("empty title is a validation error", func() {
		_, err := s.service.Create(context.Background(), s.author, models.CreatePostRequest{Body: "body"})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("oversized title is a validation error", func() {
		_, err := s.service.Create(context.Background(), s.author, models.CreatePostRequest{
			Title: strings.Repeat("x", maxTitleLength+1),
		})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("oversized body is a validation error", func() {
		_, err := s.service.Create(context.Background(), s.author, models.CreatePostRequest{
			Title: "ok",
			Body:  strings.Repeat("x", maxBodyLength+1),
		})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
}

func (s *PostsServiceSuite) TestGet() {
	post := s.create("hello")

	got, err := s.service.Get(context.Background(), post.ID)
	s.Require().NoError(err)
	s.Equal(post.Title, got.Title)

	_, err = s.service.Get(context.Background(), uuid.New())
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *PostsServiceSuite) TestList() {
	ctx := context.Background()
	s.create("first")

	s.Run("miss fills the cache", func() {
		posts, err := s.service.List(ctx, s.author)
		s.Require().NoError(err)
		s.Len(posts, 1)
		s.Equal(1, s.cache.sets)
	})

	s.Run("hit skips the store", func() {
		posts, err := s.service.List(ctx, s.author)
		s.Require().NoError(err)
		s.Len(posts, 1)
		s.Equal(1, s.cache.sets)
	})
}

func (s *PostsServiceSuite) TestUpdate() {
	ctx := context.Background()
	post := s.create("before")

	s.Run("owner can update", func() {
		title := "after"
		updated, err := s.service.Update(ctx, s.author, post.ID, models.UpdatePostRequest{Title: &title})
		s.Require().NoError(err)
		s.Equal("after", updated.Title)
		s.Equal("body", updated.Body)
	})

	s.Run("non-owner is rejected", func() {
		title := "hijack"
		_, err := s.service.Update(ctx, uuid.New(), post.ID, models.UpdatePostRequest{Title: &title})
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("emptying the title is a validation error", func() {
		empty := ""
		_, err := s.service.Update(ctx, s.author, post.ID, models.UpdatePostRequest{Title: &empty})
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("missing post is not found", func() {
		title := "x"
		_, err := s.service.Update(ctx, s.author, uuid.New(), models.UpdatePostRequest{Title: &title})
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *PostsServiceSuite) TestDelete() {
	ctx := context.Background()
	post := s.create("doomed")

	s.Run("non-owner is rejected", func() {
		err := s.service.Delete(ctx, uuid.New(), post.ID)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("owner can delete", func() {
		s.Require().NoError(s.service.Delete(ctx, s.author, post.ID))
		_, err := s.service.Get(ctx, post.ID)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func (s *PostsServiceSuite) TestInvalidateList() {
	ctx := context.Background()
	s.create("cached")

	_, err := s.service.List(ctx, s.author)
	s.Require().NoError(err)
	s.Equal(1, s.cache.sets)

	s.service.InvalidateList(ctx, s.author)
	s.Equal(1, s.cache.invalidations)

	// The next list is a miss and refills.
	_, err = s.service.List(ctx, s.author)
	s.Require().NoError(err)
	s.Equal(2, s.cache.sets)
}
