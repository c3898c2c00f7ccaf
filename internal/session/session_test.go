package session

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
	"github.com/Ajaypalvai07/ai-help-center/internal/config"
	"github.com/Ajaypalvai07/ai-help-center/internal/logging"
	"github.com/Ajaypalvai07/ai-help-center/internal/storage"
)

type fakeAuth struct {
	loginResp  *api.TokenResponse
	loginErr   error
	verifyUser *api.User
	verifyErr  error
}

func (f *fakeAuth) Login(ctx context.Context, email string, password config.Secret) (*api.TokenResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeAuth) Verify(ctx context.Context) (*api.User, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyUser, nil
}

var testUser = api.User{ID: "u1", Email: "a@b.test", Name: "Ana", Role: api.RoleUser}

func newStore(t *testing.T, auth *fakeAuth, st storage.Store, now time.Time) *Store {
	t.Helper()
	s, err := NewStore(auth, st, 30*time.Minute, logging.NewTestLogger().Logger,
		WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return s
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(nil, storage.NewMemory(), time.Minute, nil)
	require.Error(t, err)

	_, err = NewStore(&fakeAuth{}, nil, time.Minute, nil)
	require.Error(t, err)

	_, err = NewStore(&fakeAuth{}, storage.NewMemory(), 0, nil)
	require.Error(t, err)
}

func TestSignIn_PersistsAndAuthenticates(t *testing.T) {
	st := storage.NewMemory()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s := newStore(t, &fakeAuth{loginResp: &api.TokenResponse{AccessToken: "tok-1", User: testUser}}, st, now)

	sess, err := s.SignIn(context.Background(), "a@b.test", config.Secret("pw"))
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "u1", sess.User.ID)
	assert.Equal(t, now, sess.LastActivity)

	// Persisted storage is consistent with memory within the same call.
	tok, err := st.Get(storage.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", string(tok))

	userRaw, err := st.Get(storage.KeyUser)
	require.NoError(t, err)
	assert.Contains(t, string(userRaw), `"u1"`)

	_, err = st.Get(storage.KeyLastActivity)
	require.NoError(t, err)
}

func TestSignIn_BadCredentialsLeavesUnauthenticated(t *testing.T) {
	st := storage.NewMemory()
	s := newStore(t, &fakeAuth{loginErr: api.ErrInvalidCredentials}, st, time.Now())

	_, err := s.SignIn(context.Background(), "a@b.test", config.Secret("wrong"))
	assert.ErrorIs(t, err, api.ErrInvalidCredentials)
	assert.False(t, s.Current().Authenticated())

	_, err = st.Get(storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestVerify_NoTokenFailsClosed(t *testing.T) {
	s := newStore(t, &fakeAuth{}, storage.NewMemory(), time.Now())

	_, err := s.Verify(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, s.Current().Authenticated())
}

func TestVerify_RejectedTokenClearsEverything(t *testing.T) {
	st := storage.NewMemory()
	now := time.Now()
	auth := &fakeAuth{loginResp: &api.TokenResponse{AccessToken: "tok-1", User: testUser}}
	s := newStore(t, auth, st, now)

	_, err := s.SignIn(context.Background(), "a@b.test", config.Secret("pw"))
	require.NoError(t, err)

	auth.verifyErr = api.ErrUnauthenticated
	_, err = s.Verify(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, s.Current().Authenticated())

	for _, key := range []string{storage.KeyToken, storage.KeyUser, storage.KeyLastActivity} {
		_, err := st.Get(key)
		assert.ErrorIs(t, err, storage.ErrKeyNotFound, key)
	}
}

func TestSignOutThenVerify_Roundtrip(t *testing.T) {
	st := storage.NewMemory()
	auth := &fakeAuth{
		loginResp:  &api.TokenResponse{AccessToken: "tok-1", User: testUser},
		verifyUser: &testUser,
	}
	s := newStore(t, auth, st, time.Now())

	_, err := s.SignIn(context.Background(), "a@b.test", config.Secret("pw"))
	require.NoError(t, err)

	s.SignOut(context.Background())
	s.SignOut(context.Background()) // idempotent

	_, err = s.Verify(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, s.Current().Authenticated())
}

func TestIsExpired_Boundaries(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	st := storage.NewMemory()
	s := newStore(t, &fakeAuth{loginResp: &api.TokenResponse{AccessToken: "t", User: testUser}}, st, now)

	_, err := s.SignIn(context.Background(), "a@b.test", config.Secret("pw"))
	require.NoError(t, err)

	assert.False(t, s.IsExpired(now.Add(29*time.Minute)))
	// Exactly the threshold is not expired: strict >.
	assert.False(t, s.IsExpired(now.Add(30*time.Minute)))
	assert.True(t, s.IsExpired(now.Add(31*time.Minute)))
}

func TestIsExpired_FalseWhenUnauthenticated(t *testing.T) {
	s := newStore(t, &fakeAuth{}, storage.NewMemory(), time.Now())
	assert.False(t, s.IsExpired(time.Now().Add(time.Hour)))
}

func TestTouchActivity_ExtendsSession(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	st := storage.NewMemory()
	s := newStore(t, &fakeAuth{loginResp: &api.TokenResponse{AccessToken: "t", User: testUser}}, st, now)

	_, err := s.SignIn(context.Background(), "a@b.test", config.Secret("pw"))
	require.NoError(t, err)

	later := now.Add(25 * time.Minute)
	s.TouchActivity(later)

	assert.False(t, s.IsExpired(now.Add(45*time.Minute)))
	assert.True(t, s.IsExpired(later.Add(31*time.Minute)))

	raw, err := st.Get(storage.KeyLastActivity)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(later.UnixMilli(), 10), string(raw))
}

// failingStore rejects writes after a cutover, simulating a full or
// locked state database.
type failingStore struct {
	storage.Store
	failWrites bool
}

func (f *failingStore) Set(key string, value []byte) error {
	if f.failWrites {
		return errors.New("disk full")
	}
	return f.Store.Set(key, value)
}

func TestTouchActivity_FailedWriteLeavesStateUnchanged(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	st := &failingStore{Store: storage.NewMemory()}
	s := newStore(t, &fakeAuth{loginResp: &api.TokenResponse{AccessToken: "t", User: testUser}}, st, now)

	_, err := s.SignIn(context.Background(), "a@b.test", config.Secret("pw"))
	require.NoError(t, err)

	st.failWrites = true
	s.TouchActivity(now.Add(25 * time.Minute))

	// Memory and the persisted timestamp still agree on the sign-in time.
	assert.Equal(t, now, s.Current().LastActivity)
	raw, err := st.Get(storage.KeyLastActivity)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(now.UnixMilli(), 10), string(raw))
}

func TestTouchActivity_NoOpWhenUnauthenticated(t *testing.T) {
	st := storage.NewMemory()
	s := newStore(t, &fakeAuth{}, st, time.Now())

	s.TouchActivity(time.Now())
	_, err := st.Get(storage.KeyLastActivity)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestRestore_RecoversPersistedSession(t *testing.T) {
	st := storage.NewMemory()
	now := time.Now()
	auth := &fakeAuth{loginResp: &api.TokenResponse{AccessToken: "tok-1", User: testUser}}

	first := newStore(t, auth, st, now)
	_, err := first.SignIn(context.Background(), "a@b.test", config.Secret("pw"))
	require.NoError(t, err)

	second := newStore(t, auth, st, now)
	sess := second.Current()
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "u1", sess.User.ID)
	assert.Equal(t, "tok-1", sess.Token.Value())
}

func TestRestore_MalformedUserFailsClosed(t *testing.T) {
	st := storage.NewMemory()
	require.NoError(t, st.Set(storage.KeyToken, []byte("tok-1")))
	require.NoError(t, st.Set(storage.KeyUser, []byte("{not json")))

	s := newStore(t, &fakeAuth{}, st, time.Now())
	assert.False(t, s.Current().Authenticated())

	// The orphaned token was removed too: user present iff token present.
	_, err := st.Get(storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestRestore_TokenWithoutUserFailsClosed(t *testing.T) {
	st := storage.NewMemory()
	require.NoError(t, st.Set(storage.KeyToken, []byte("tok-1")))

	s := newStore(t, &fakeAuth{}, st, time.Now())
	assert.False(t, s.Current().Authenticated())

	_, err := st.Get(storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)
}

func TestSignIn_ServerErrorPassesThrough(t *testing.T) {
	serverErr := &api.Error{Status: 500, Detail: "database down"}
	s := newStore(t, &fakeAuth{loginErr: serverErr}, storage.NewMemory(), time.Now())

	_, err := s.SignIn(context.Background(), "a@b.test", config.Secret("pw"))
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
}
