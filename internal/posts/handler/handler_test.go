package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/GustavEkberg/init/internal/platform/metrics"
	"github.com/GustavEkberg/init/internal/platform/middleware"
	"github.com/GustavEkberg/init/internal/posts/models"
	"github.com/GustavEkberg/init/internal/posts/service"
	"github.com/GustavEkberg/init/internal/posts/store"
	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
	"github.com/GustavEkberg/init/pkg/testutil"
)

const validToken = "valid-token"

// staticAuthenticator accepts a single fixed token.
type staticAuthenticator struct {
	identity middleware.Identity
}

func (a staticAuthenticator) Authenticate(_ context.Context, token string) (middleware.Identity, error) {
	if token != validToken {
		return middleware.Identity{}, dErrors.Unauthenticated("invalid token")
	}
	return a.identity, nil
}

// countingCache counts invalidations; reads always miss.
type countingCache struct {
	mu            sync.Mutex
	invalidations int
}

func (c *countingCache) GetList(context.Context, uuid.UUID) ([]models.Post, bool, error) {
	return nil, false, nil
}

func (c *countingCache) SetList(context.Context, uuid.UUID, []models.Post) error { return nil }

func (c *countingCache) Invalidate(context.Context, uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	return nil
}

func (c *countingCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations
}

type PostsHandlerSuite struct {
	suite.Suite
	user   uuid.UUID
	cache  *countingCache
	svc    *service.Service
	router chi.Router
}

func TestPostsHandlerSuite(t *testing.T) {
	suite.Run(t, new(PostsHandlerSuite))
}

func (s *PostsHandlerSuite) SetupTest() {
	s.user = uuid.New()
	s.cache = &countingCache{}

	var err error
	s.svc, err = service.New(store.NewInMemory(), s.cache, metrics.NewForTest(), slog.New(slog.DiscardHandler))
	s.Require().NoError(err)

	authn := staticAuthenticator{identity: middleware.Identity{
		UserID:    s.user,
		SessionID: uuid.New(),
	}}

	s.router = chi.NewRouter()
	New(s.svc, authn, slog.New(slog.DiscardHandler)).Register(s.router)
}

func (s *PostsHandlerSuite) authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+validToken)
	return req
}

func (s *PostsHandlerSuite) create(title string) *models.Post {
	req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/posts",
		models.CreatePostRequest{Title: title, Body: "body"}))
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusCreated, rr.Code)
	return testutil.UnmarshalResponse[models.Post](s.T(), rr)
}

// =============================================================================
// Machine endpoints
// =============================================================================

func (s *PostsHandlerSuite) TestCreate() {
	s.Run("creates and invalidates the list once", func() {
		before := s.cache.count()
		post := s.create("hello")
		s.Equal(s.user, post.AuthorID)
		s.Equal(before+1, s.cache.count())
	})

	s.Run("validation failure does not invalidate", func() {
		before := s.cache.count()
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/posts",
			models.CreatePostRequest{Body: "no title"}))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		s.Equal(before, s.cache.count())
	})

	s.Run("without a token is a 401", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/posts",
			models.CreatePostRequest{Title: "hello"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

func (s *PostsHandlerSuite) TestListAndGet() {
	post := s.create("hello")

	s.Run("list returns own posts", func() {
		req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/api/posts"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		posts := testutil.UnmarshalResponse[[]models.Post](s.T(), rr)
		s.Len(*posts, 1)
	})

	s.Run("get by ID", func() {
		req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/api/posts/"+post.ID.String()))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
	})

	s.Run("unknown ID is a 404", func() {
		req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/api/posts/"+uuid.NewString()))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("malformed ID is a 400", func() {
		req := s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/api/posts/not-a-uuid"))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *PostsHandlerSuite) TestUpdateAndDelete() {
	post := s.create("before")

	s.Run("update invalidates once", func() {
		before := s.cache.count()
		title := "after"
		req := s.authed(testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/posts/"+post.ID.String(),
			models.UpdatePostRequest{Title: &title}))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Equal(before+1, s.cache.count())
	})

	s.Run("delete invalidates once", func() {
		before := s.cache.count()
		req := s.authed(testutil.NewRequest(s.T(), http.MethodDelete, "/api/posts/"+post.ID.String()))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
		s.Equal(before+1, s.cache.count())
	})
}

// =============================================================================
// Interactive endpoints
// =============================================================================

func (s *PostsHandlerSuite) TestInteractiveCreate() {
	s.Run("success is a tagged payload and invalidates once", func() {
		before := s.cache.count()
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/posts",
			models.CreatePostRequest{Title: "hello", Body: "body"})
		req.Header.Set("Authorization", "Bearer "+validToken)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertOutcomeTag(s.T(), rr, "Success")
		s.Equal(before+1, s.cache.count())
	})

	s.Run("validation failure is a tagged error, no invalidation", func() {
		before := s.cache.count()
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/posts",
			models.CreatePostRequest{Body: "no title"})
		req.Header.Set("Authorization", "Bearer "+validToken)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertOutcomeTag(s.T(), rr, "Error")
		s.Equal(before, s.cache.count())
	})

	s.Run("no session redirects to login", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/posts",
			models.CreatePostRequest{Title: "hello"})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusSeeOther)
		s.Equal("/login", rr.Header().Get("Location"))
	})
}

func (s *PostsHandlerSuite) TestInteractiveUpdate() {
	post := s.create("before")

	s.Run("owner update succeeds", func() {
		title := "after"
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/posts/"+post.ID.String(),
			models.UpdatePostRequest{Title: &title})
		req.Header.Set("Authorization", "Bearer "+validToken)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertOutcomeTag(s.T(), rr, "Success")
	})

	s.Run("unknown post is a tagged error", func() {
		title := "x"
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/posts/"+uuid.NewString(),
			models.UpdatePostRequest{Title: &title})
		req.Header.Set("Authorization", "Bearer "+validToken)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		testutil.AssertOutcomeTag(s.T(), rr, "Error")
	})
}
