// Package store provides post persistence. The in-memory variant backs
// tests and zero-config development; the Postgres variant is the
// production store.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/GustavEkberg/init/internal/posts/models"
	"github.com/GustavEkberg/init/pkg/platform/sentinel"
)

// InMemoryStore is a mutex-protected map store.
type InMemoryStore struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]models.Post
}

// NewInMemory creates an empty in-memory post store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{posts: make(map[uuid.UUID]models.Post)}
}

// Create stores a new post.
func (s *InMemoryStore) Create(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.posts[post.ID]; exists {
		return sentinel.ErrConflict
	}
	s.posts[post.ID] = *post
	return nil
}

// Find returns a post by ID.
func (s *InMemoryStore) Find(_ context.Context, id uuid.UUID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &post, nil
}

// ListByAuthor returns an author's posts, newest first.
func (s *InMemoryStore) ListByAuthor(_ context.Context, authorID uuid.UUID) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Post
	for _, post := range s.posts {
		if post.AuthorID == authorID {
			out = append(out, post)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces a stored post.
func (s *InMemoryStore) Update(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.posts[post.ID] = *post
	return nil
}

// Delete removes a post. Missing posts return sentinel.ErrNotFound.
func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}
