//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/GustavEkberg/init/internal/auth/models"
	"github.com/GustavEkberg/init/internal/auth/store/session"
	platformredis "github.com/GustavEkberg/init/internal/platform/redis"
	"github.com/GustavEkberg/init/pkg/platform/sentinel"
	"github.com/GustavEkberg/init/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedis(&platformredis.Client{Client: s.redis.Client})
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) newSession(userID uuid.UUID, ttl time.Duration) *models.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	sess := &models.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Device:    "Firefox on Linux",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	s.Require().NoError(s.store.Save(context.Background(), sess))
	return sess
}

func (s *RedisStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	sess := s.newSession(uuid.New(), time.Hour)

	found, err := s.store.Find(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.UserID, found.UserID)
	s.Equal(sess.Device, found.Device)

	_, err = s.store.Find(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestExpiry() {
	ctx := context.Background()
	sess := s.newSession(uuid.New(), time.Second)

	_, err := s.store.Find(ctx, sess.ID)
	s.Require().NoError(err)

	time.Sleep(1500 * time.Millisecond)

	_, err = s.store.Find(ctx, sess.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestSaveExpiredSessionRejected() {
	sess := &models.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	s.ErrorIs(s.store.Save(context.Background(), sess), sentinel.ErrInvalidState)
}

func (s *RedisStoreSuite) TestDelete() {
	ctx := context.Background()
	sess := s.newSession(uuid.New(), time.Hour)

	s.Require().NoError(s.store.Delete(ctx, sess.ID))

	_, err := s.store.Find(ctx, sess.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// Deleting a missing session is a no-op.
	s.NoError(s.store.Delete(ctx, sess.ID))
}

func (s *RedisStoreSuite) TestDeleteByUser() {
	ctx := context.Background()
	user := uuid.New()
	first := s.newSession(user, time.Hour)
	second := s.newSession(user, time.Hour)
	other := s.newSession(uuid.New(), time.Hour)

	s.Require().NoError(s.store.DeleteByUser(ctx, user))

	_, err := s.store.Find(ctx, first.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Find(ctx, second.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Find(ctx, other.ID)
	s.NoError(err)
}
