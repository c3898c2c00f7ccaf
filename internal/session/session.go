// Package session owns the authenticated identity, the bearer token
// lifecycle and the idle-timeout bookkeeping.
//
// Every state-changing operation leaves persisted storage consistent with
// in-memory state before it returns; a caller can never observe a token
// without its user or vice versa.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
	"github.com/Ajaypalvai07/ai-help-center/internal/config"
	"github.com/Ajaypalvai07/ai-help-center/internal/logging"
	"github.com/Ajaypalvai07/ai-help-center/internal/storage"
)

const instrumentationName = "github.com/Ajaypalvai07/ai-help-center/internal/session"

// ErrUnauthenticated is returned by Verify when no valid session exists.
// The store has already failed closed (all state cleared) when it surfaces.
var ErrUnauthenticated = errors.New("session: unauthenticated")

// Session is the current authentication state. User is nil when
// unauthenticated; User and Token are always set or cleared together.
type Session struct {
	User         *api.User
	Token        config.Secret
	LastActivity time.Time
}

// Authenticated reports whether a user is signed in.
func (s Session) Authenticated() bool {
	return s.User != nil && s.Token.IsSet()
}

// AuthClient is the slice of the API client the session store depends on.
type AuthClient interface {
	Login(ctx context.Context, email string, password config.Secret) (*api.TokenResponse, error)
	Verify(ctx context.Context) (*api.User, error)
}

// Store manages the session lifecycle against an AuthClient and persists
// state through a storage.Store. It implements api.TokenSource.
type Store struct {
	auth        AuthClient
	storage     storage.Store
	logger      *logging.Logger
	idleTimeout time.Duration
	clock       func() time.Time

	signInCounter  metric.Int64Counter
	signOutCounter metric.Int64Counter

	mu    sync.RWMutex
	state Session
}

// Option customizes a Store.
type Option func(*Store)

// WithClock injects the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// NewStore creates a session store and restores any persisted session.
// idleTimeout is the inactivity window after which IsExpired reports true.
func NewStore(auth AuthClient, st storage.Store, idleTimeout time.Duration, logger *logging.Logger, opts ...Option) (*Store, error) {
	if auth == nil {
		return nil, errors.New("auth client is required")
	}
	if st == nil {
		return nil, errors.New("storage is required")
	}
	if idleTimeout <= 0 {
		return nil, errors.New("idle timeout must be positive")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Store{
		auth:        auth,
		storage:     st,
		logger:      logger,
		idleTimeout: idleTimeout,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initMetrics()
	s.restore()

	return s, nil
}

// initMetrics initializes OpenTelemetry counters.
func (s *Store) initMetrics() {
	meter := otel.Meter(instrumentationName)
	var err error

	s.signInCounter, err = meter.Int64Counter(
		"helpcenter.session.signins_total",
		metric.WithDescription("Total number of successful sign-ins"),
		metric.WithUnit("{signin}"),
	)
	if err != nil {
		s.logger.Warn(context.Background(), "failed to create sign-in counter", zap.Error(err))
	}

	s.signOutCounter, err = meter.Int64Counter(
		"helpcenter.session.signouts_total",
		metric.WithDescription("Total number of sign-outs, explicit or forced"),
		metric.WithUnit("{signout}"),
	)
	if err != nil {
		s.logger.Warn(context.Background(), "failed to create sign-out counter", zap.Error(err))
	}
}

// restore loads persisted session state. A token without a parseable user
// (or the reverse) violates the store invariant, so the pair is cleared.
func (s *Store) restore() {
	ctx := context.Background()

	token, tokenErr := s.storage.Get(storage.KeyToken)
	userRaw, userErr := s.storage.Get(storage.KeyUser)

	if tokenErr != nil || userErr != nil {
		if tokenErr == nil || userErr == nil {
			// Half a session on disk. Fail closed.
			s.clearPersisted(ctx)
		}
		return
	}

	var user api.User
	if err := json.Unmarshal(userRaw, &user); err != nil || user.ID == "" {
		s.logger.Warn(ctx, "discarding unreadable persisted session")
		s.clearPersisted(ctx)
		return
	}

	state := Session{User: &user, Token: config.Secret(token)}
	if raw, err := s.storage.Get(storage.KeyLastActivity); err == nil {
		if ms, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			state.LastActivity = time.UnixMilli(ms)
		}
	}
	if state.LastActivity.IsZero() {
		state.LastActivity = s.clock()
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.logger.Debug(ctx, "restored persisted session", zap.String("user_id", user.ID))
}

// SignIn exchanges credentials for a session.
//
// On success the token, user and activity timestamp are persisted and the
// in-memory state updated before SignIn returns. On any failure the store
// stays (or becomes) unauthenticated; api.ErrInvalidCredentials and server
// failures pass through distinctly.
func (s *Store) SignIn(ctx context.Context, email string, password config.Secret) (Session, error) {
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn(ctx, "sign-in failed", zap.String("email", email), zap.Error(err))
		return Session{}, err
	}

	now := s.clock()
	if err := s.persist(resp.AccessToken, &resp.User, now); err != nil {
		// Storage and memory must not diverge; drop everything.
		s.clearPersisted(ctx)
		return Session{}, fmt.Errorf("persist session: %w", err)
	}

	state := Session{
		User:         &resp.User,
		Token:        config.Secret(resp.AccessToken),
		LastActivity: now,
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	if s.signInCounter != nil {
		s.signInCounter.Add(ctx, 1)
	}
	s.logger.Info(ctx, "signed in",
		zap.String("user_id", resp.User.ID),
		logging.RedactedString("token", resp.AccessToken),
	)
	return state, nil
}

// Verify re-validates the stored token against the backend. Used on app
// start. Any failure clears all session state and returns
// ErrUnauthenticated wrapping the cause.
func (s *Store) Verify(ctx context.Context) (Session, error) {
	s.mu.RLock()
	token := s.state.Token
	s.mu.RUnlock()

	if !token.IsSet() {
		s.SignOut(ctx)
		return Session{}, ErrUnauthenticated
	}

	user, err := s.auth.Verify(ctx)
	if err != nil {
		s.logger.Warn(ctx, "token verification failed", zap.Error(err))
		s.SignOut(ctx)
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	now := s.clock()
	if err := s.persist(token.Value(), user, now); err != nil {
		s.clearPersisted(ctx)
		s.mu.Lock()
		s.state = Session{}
		s.mu.Unlock()
		return Session{}, fmt.Errorf("persist session: %w", err)
	}

	state := Session{User: user, Token: token, LastActivity: now}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	return state, nil
}

// SignOut unconditionally clears the session and every derived persisted
// key. It is idempotent.
func (s *Store) SignOut(ctx context.Context) {
	s.mu.Lock()
	wasAuthenticated := s.state.Authenticated()
	s.state = Session{}
	s.mu.Unlock()

	s.clearPersisted(ctx)

	if wasAuthenticated {
		if s.signOutCounter != nil {
			s.signOutCounter.Add(ctx, 1)
		}
		s.logger.Info(ctx, "signed out")
	}
}

// TouchActivity records user interaction at now. No-op when
// unauthenticated. The timestamp is persisted before the in-memory
// state moves so the two never diverge: a failed write leaves both at
// the previous activity time.
func (s *Store) TouchActivity(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Authenticated() {
		return
	}
	if err := s.storage.Set(storage.KeyLastActivity, []byte(strconv.FormatInt(now.UnixMilli(), 10))); err != nil {
		s.logger.Warn(context.Background(), "failed to persist activity timestamp", zap.Error(err))
		return
	}
	s.state.LastActivity = now
}

// IsExpired reports whether the idle window has elapsed at now. The
// boundary is strict: exactly idleTimeout of inactivity is not expired.
func (s *Store) IsExpired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.state.Authenticated() || s.state.LastActivity.IsZero() {
		return false
	}
	return now.Sub(s.state.LastActivity) > s.idleTimeout
}

// Current returns a snapshot of the session state.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token implements api.TokenSource.
func (s *Store) Token() config.Secret {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// persist writes the full session to storage.
func (s *Store) persist(token string, user *api.User, lastActivity time.Time) error {
	userRaw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.storage.Set(storage.KeyToken, []byte(token)); err != nil {
		return err
	}
	if err := s.storage.Set(storage.KeyUser, userRaw); err != nil {
		return err
	}
	return s.storage.Set(storage.KeyLastActivity, []byte(strconv.FormatInt(lastActivity.UnixMilli(), 10)))
}

// clearPersisted removes every session-derived key. Errors are logged and
// swallowed; there is nothing the caller can do about a failing delete.
func (s *Store) clearPersisted(ctx context.Context) {
	for _, key := range []string{
		storage.KeyToken,
		storage.KeyUser,
		storage.KeyLastActivity,
		storage.KeyLastChatCategory,
	} {
		if err := s.storage.Delete(key); err != nil {
			s.logger.Warn(ctx, "failed to clear persisted key", zap.String("key", key), zap.Error(err))
		}
	}
}
