package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/teamdash/team-dashboard/internal/cache"
	"github.com/teamdash/team-dashboard/internal/events"
	"github.com/teamdash/team-dashboard/internal/models"
	"github.com/teamdash/team-dashboard/internal/rbac"
	"github.com/teamdash/team-dashboard/internal/utils"
)

var (
	ErrNoSession          = errors.New("no active session")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginUnsupported   = errors.New("login is handled by the identity provider")
)

// Session is the authenticated state of one browser session. It is created
// at login, read by every request and destroyed at logout.
type Session struct {
	Token     string       `json:"-"`
	User      *models.User `json:"user"`
	CreatedAt time.Time    `json:"created_at"`
}

// ID identifies the session without exposing the token.
func (s *Session) ID() string {
	return SessionID(s.Token)
}

// Access is the role and permission set the session user holds.
func (s *Session) Access() rbac.Access {
	if s == nil {
		return rbac.Access{}
	}
	access, _ := rbac.AccessFor(s.User)
	return access
}

// SessionID hashes a token into a stable identifier.
func SessionID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

// Resolver turns a bearer token into a session.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Session, error)
}

// Authenticator is the upstream login call.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
}

// Manager owns login, logout and resolution for upstream-issued tokens. The
// token and user record live under two keys; a session exists only while both
// are present.
type Manager struct {
	store     *cache.CacheHelper
	auth      Authenticator
	publisher events.EventPublisher
	ttl       time.Duration
	logger    utils.Logger
	now       func() time.Time
}

func NewManager(store *cache.CacheHelper, auth Authenticator, publisher events.EventPublisher, ttl time.Duration, logger utils.Logger) *Manager {
	return &Manager{
		store:     store,
		auth:      auth,
		publisher: publisher,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

func tokenKey(token string) string { return "token:" + token }
func userKey(token string) string  { return "user:" + token }

// Login authenticates against the upstream API and stores the session.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	token, user, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if token == "" || user == nil {
		return nil, ErrInvalidCredentials
	}

	s := &Session{Token: token, User: user, CreatedAt: m.now().UTC()}
	created := strconv.FormatInt(s.CreatedAt.Unix(), 10)
	if err := m.store.SetPair(ctx, tokenKey(token), created, userKey(token), user, m.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	access := s.Access()
	m.logger.Info("Session started", "session_id", s.ID(), "user_id", user.ID, "role", access.Role)
	if err := m.publisher.PublishSessionStarted(ctx, events.SessionEvent{
		SessionID: s.ID(),
		UserID:    user.ID,
		Role:      string(access.Role),
	}); err != nil {
		m.logger.Warn("Failed to publish session start", "session_id", s.ID(), "error", err)
	}

	return s, nil
}

// Resolve returns the session for token. A missing token key or user key
// means logged out, and whatever remains of the pair is removed.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	created, err := m.store.GetString(ctx, tokenKey(token))
	if err != nil {
		if errors.Is(err, cache.ErrCacheNotFound) {
			m.clear(ctx, token)
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var user models.User
	if err := m.store.Get(ctx, userKey(token), &user); err != nil {
		if errors.Is(err, cache.ErrCacheNotFound) {
			m.clear(ctx, token)
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session user: %w", err)
	}

	s := &Session{Token: token, User: &user}
	if unix, err := strconv.ParseInt(created, 10, 64); err == nil {
		s.CreatedAt = time.Unix(unix, 0).UTC()
	}

	if err := m.store.Touch(ctx, m.ttl, tokenKey(token), userKey(token)); err != nil {
		m.logger.Warn("Failed to extend session", "session_id", s.ID(), "error", err)
	}
	return s, nil
}

// Logout removes both keys and announces the end of the session. Logging out
// an unknown token is not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoSession
	}

	var userID int64
	var user models.User
	if err := m.store.Get(ctx, userKey(token), &user); err == nil {
		userID = user.ID
	}

	if err := m.store.Delete(ctx, tokenKey(token), userKey(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	id := SessionID(token)
	m.logger.Info("Session ended", "session_id", id, "user_id", userID)
	if err := m.publisher.PublishSessionEnded(ctx, events.SessionEvent{SessionID: id, UserID: userID}); err != nil {
		m.logger.Warn("Failed to publish session end", "session_id", id, "error", err)
	}
	return nil
}

func (m *Manager) clear(ctx context.Context, token string) {
	cache.SafeDelete(ctx, m.store, tokenKey(token), userKey(token))
}
