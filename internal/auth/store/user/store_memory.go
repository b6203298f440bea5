// Package user persists accounts.
//
// Error contract for all stores in this package:
//   - sentinel.ErrNotFound when the user does not exist
//   - sentinel.ErrConflict when the email is already registered
//   - wrapped infrastructure errors otherwise
package user

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/GustavEkberg/init/internal/auth/models"
	"github.com/GustavEkberg/init/pkg/platform/sentinel"
)

// InMemoryStore keeps users in memory for tests and development.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
}

// NewInMemory constructs an empty in-memory user store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (s *InMemoryStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := s.byEmail[key]; exists {
		return fmt.Errorf("email %s: %w", u.Email, sentinel.ErrConflict)
	}

	copied := *u
	s.byID[u.ID] = &copied
	s.byEmail[key] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, fmt.Errorf("user %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.byEmail[strings.ToLower(email)]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, sentinel.ErrNotFound)
}
