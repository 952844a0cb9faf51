package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/cache"
	"github.com/taskflow/taskflow/internal/metrics"
	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository"
	"github.com/taskflow/taskflow/internal/sanitize"
	"github.com/taskflow/taskflow/internal/schema"
	"github.com/taskflow/taskflow/internal/validation"
)

// SessionStore keeps server-side sessions. *cache.Cache implements it.
// Register is the only method usable without one.
type SessionStore interface {
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, *cache.Session, error)
	GetSession(ctx context.Context, token string) (*cache.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

// Grant is an opened session handed back to the client as a cookie.
type Grant struct {
	Token   string
	Session *cache.Session
	// Persistent grants outlive the browser session.
	Persistent bool
}

// AuthConfig tunes session lifetimes.
type AuthConfig struct {
	SessionTTL  time.Duration
	RememberTTL time.Duration
}

// AuthService handles account and session logic.
type AuthService struct {
	store     repository.Store
	validator *validation.Validator
	hasher    *auth.Hasher
	sessions  SessionStore
	metrics   metrics.Recorder
	logger    *slog.Logger
	cfg       AuthConfig
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(deps Deps, hasher *auth.Hasher, sessions SessionStore, cfg AuthConfig) *AuthService {
	deps = deps.withDefaults()
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.RememberTTL <= 0 {
		cfg.RememberTTL = 30 * 24 * time.Hour
	}
	return &AuthService{
		store:     deps.Store,
		validator: deps.Validator,
		hasher:    hasher,
		sessions:  sessions,
		metrics:   deps.Metrics,
		logger:    deps.Logger.With("component", "auth"),
		cfg:       cfg,
		now:       deps.Now,
	}
}

// Signup registers an account and opens a session for it.
func (s *AuthService) Signup(ctx context.Context, body []byte) (*model.User, *Grant, error) {
	user, err := s.Register(ctx, body)
	if err != nil {
		s.metrics.IncAuth("signup", "failure")
		return nil, nil, err
	}

	grant, err := s.open(ctx, user.ID, false)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncAuth("signup", "success")
	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, grant, nil
}

// Register validates body and creates the account without opening a
// session.
func (s *AuthService) Register(ctx context.Context, body []byte) (*model.User, error) {
	var p schema.Signup
	if _, err := s.validator.Decode(body, &p, false); err != nil {
		return nil, err
	}
	if *p.Password != *p.ConfirmPassword {
		return nil, validation.NewFieldError("confirm_password", "Passwords do not match.")
	}
	sanitize.Text(p.Text()...)

	hash, err := s.hasher.Hash(*p.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:        uuid.NewString(),
		Name:      *p.Name,
		Email:     schema.NormalizeEmail(*p.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Users().Create(ctx, user, hash); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords are both ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, body []byte) (*model.User, *Grant, error) {
	var p schema.Login
	if _, err := s.validator.Decode(body, &p, false); err != nil {
		s.metrics.IncAuth("login", "failure")
		return nil, nil, err
	}

	cred, err := s.store.Users().Credential(ctx, schema.NormalizeEmail(*p.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyMissing(*p.Password)
			s.metrics.IncAuth("login", "failure")
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("load credential: %w", err)
	}

	ok, err := s.hasher.Verify(*p.Password, cred.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.metrics.IncAuth("login", "failure")
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.store.Users().GetByID(ctx, cred.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}

	remember := p.Remember != nil && *p.Remember
	grant, err := s.open(ctx, user.ID, remember)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncAuth("login", "success")
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "remember", remember)
	return user, grant, nil
}

// Logout revokes the session behind token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a session token to its principal.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	sess, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &auth.Principal{UserID: sess.UserID, SessionID: sess.ID}, nil
}

// Me returns the account of userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) open(ctx context.Context, userID string, remember bool) (*Grant, error) {
	ttl := s.cfg.SessionTTL
	if remember {
		ttl = s.cfg.RememberTTL
	}

	token, sess, err := s.sessions.CreateSession(ctx, userID, ttl)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &Grant{Token: token, Session: sess, Persistent: remember}, nil
}
