// Package service implements signup, login, logout, and session
// verification.
//
// Declared error codes: validation, conflict (Signup); validation,
// unauthenticated (Login); unauthenticated (Authenticate); not_found (Me).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"

	"github.com/GustavEkberg/init/internal/activity"
	"github.com/GustavEkberg/init/internal/auth/models"
	"github.com/GustavEkberg/init/internal/auth/token"
	"github.com/GustavEkberg/init/internal/platform/metrics"
	"github.com/GustavEkberg/init/internal/platform/middleware"
	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
	"github.com/GustavEkberg/init/pkg/email"
	"github.com/GustavEkberg/init/pkg/platform/sentinel"
	"github.com/GustavEkberg/init/pkg/requestcontext"
)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	Save(ctx context.Context, sess *models.Session) error
	Find(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// Service is the auth domain service.
type Service struct {
	users      UserStore
	sessions   SessionStore
	tokens     *token.Service
	sender     email.Sender
	metrics    *metrics.Metrics
	logger     *slog.Logger
	sessionTTL time.Duration
}

// New constructs the auth service.
func New(
	users UserStore,
	sessions SessionStore,
	tokens *token.Service,
	sender email.Sender,
	m *metrics.Metrics,
	logger *slog.Logger,
	sessionTTL time.Duration,
) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if sender == nil {
		sender = email.NoopSender{Logger: logger}
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		sender:     sender,
		metrics:    m,
		logger:     logger,
		sessionTTL: sessionTTL,
	}, nil
}

// Signup registers a new account and sends a welcome email.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.UserInfo, error) {
	if !govalidator.IsEmail(req.Email) || !govalidator.StringLength(req.Email, "3", "255") {
		return nil, dErrors.Validation("email", "a valid email address is required")
	}
	if len(req.Password) < 8 {
		return nil, dErrors.Validation("password", "password must be at least 8 characters")
	}
	if len(req.Password) > 72 {
		return nil, dErrors.Validation("password", "password must be at most 72 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	first, last := email.DeriveNameFromEmail(req.Email)
	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    first,
		LastName:     last,
		CreatedAt:    requestcontext.Now(ctx),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with that email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.UsersCreated.Inc()
	activity.Logf(ctx, "new signup: %s", user.Email)
	s.sendWelcome(user)

	return userInfo(user), nil
}

// sendWelcome delivers the welcome email without blocking signup.
func (s *Service) sendWelcome(user *models.User) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := s.sender.Send(ctx, email.Message{
			To:      user.Email,
			Subject: "Welcome",
			HTML:    fmt.Sprintf("<p>Hi %s, your account is ready.</p>", user.FirstName),
		})
		if err != nil {
			s.logger.Warn("welcome email failed", "error", err, "user_id", user.ID)
		}
	}()
}

// Login verifies credentials and opens a session. Credential failures are
// indistinguishable by design.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, dErrors.Validation("", "email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Unauthenticated("invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, dErrors.Unauthenticated("invalid email or password")
	}

	now := requestcontext.Now(ctx)
	sess := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Device:    deviceLabel(requestcontext.UserAgent(ctx)),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	signed, err := s.tokens.Generate(user.ID, sess.ID, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	s.metrics.Logins.Inc()
	activity.Logf(ctx, "login: %s from %s", user.Email, sess.Device)

	return &models.LoginResult{
		UserID:    user.ID,
		SessionID: sess.ID,
		Token:     signed,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// Logout closes the session. Closing a missing session is not an error.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LogoutAll revokes every session the user holds, across devices.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	activity.Logf(ctx, "logout all devices: %s", userID)
	return nil
}

// Authenticate verifies a session token and confirms the session still
// exists. Satisfies middleware.Authenticator.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (middleware.Identity, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return middleware.Identity{}, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return middleware.Identity{}, dErrors.Unauthenticated("invalid session token")
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return middleware.Identity{}, dErrors.Unauthenticated("invalid session token")
	}

	if _, err := s.sessions.Find(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return middleware.Identity{}, dErrors.Unauthenticated("session is no longer active")
		}
		return middleware.Identity{}, fmt.Errorf("find session: %w", err)
	}

	return middleware.Identity{UserID: userID, SessionID: sessionID}, nil
}

// Me returns the public projection of the user.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.NotFound("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return userInfo(user), nil
}

func userInfo(u *models.User) *models.UserInfo {
	return &models.UserInfo{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func deviceLabel(uaString string) string {
	if uaString == "" {
		return "Unknown device"
	}
	ua := useragent.New(uaString)
	name, _ := ua.Browser()
	if name == "" {
		return "Unknown device"
	}
	if os := ua.OS(); os != "" {
		return fmt.Sprintf("%s on %s", name, os)
	}
	return name
}
