package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/storage/memory"
	"github.com/rryowa/newsapp/internal/util"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.IPChangeEvent
}

func (n *recordingNotifier) NotifyIPChange(_ context.Context, event models.IPChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

type sessionFixture struct {
	svc      *SessionService
	tokens   *TokenService
	clock    *testClock
	users    *memory.UserRepository
	sessions *memory.SessionRepository
	notifier *recordingNotifier
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	log := zap.NewNop().Sugar()
	tokens, clock := newTestTokenService()
	f := &sessionFixture{
		tokens:   tokens,
		clock:    clock,
		users:    memory.NewUserRepository(),
		sessions: memory.NewSessionRepository(log),
		notifier: &recordingNotifier{},
	}
	f.svc = NewSessionService(tokens, f.sessions, f.users, f.notifier, log)
	return f
}

func (f *sessionFixture) createUser(t *testing.T, role models.Role) *models.User {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), models.User{
		Name:  "someone",
		Email: string(role) + "@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return user
}

var meta = models.SessionMeta{UserAgent: "test", IPAddress: "10.0.0.1"}

func TestSessionLifecycle_Editor(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	u := f.createUser(t, models.RoleEditor)

	pair, err := f.svc.Login(ctx, u.ID, models.RoleEditor, meta)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	res, err := f.svc.Refresh(ctx, pair.RefreshToken, meta)
	require.NoError(t, err)
	v := f.tokens.VerifyAccess(res.AccessToken)
	require.Equal(t, Verified, v.Outcome)
	require.NotNil(t, v.Claims.Role)
	assert.Equal(t, models.RoleEditor, *v.Claims.Role)
	assert.Equal(t, models.Identity{UserID: u.ID, Role: models.RoleEditor}, res.Identity)

	n, err := f.svc.Logout(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken, meta)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestRefresh_NotRotated(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	u := f.createUser(t, models.RoleUser)

	pair, err := f.svc.Login(ctx, u.ID, u.Role, meta)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Minute)
		_, err := f.svc.Refresh(ctx, pair.RefreshToken, meta)
		require.NoError(t, err)
	}
}

func TestRefresh_PicksUpRoleChange(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	u := f.createUser(t, models.RoleUser)

	pair, err := f.svc.Login(ctx, u.ID, u.Role, meta)
	require.NoError(t, err)

	_, err = f.users.UpdateUserRole(ctx, u.ID, models.RoleAdmin)
	require.NoError(t, err)

	res, err := f.svc.Refresh(ctx, pair.RefreshToken, meta)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Identity.Role)
}

func TestRefresh_FailuresAreIndistinguishable(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	u := f.createUser(t, models.RoleUser)

	pair, err := f.svc.Login(ctx, u.ID, u.Role, meta)
	require.NoError(t, err)

	unregistered, _, err := f.tokens.IssueRefresh(u.ID)
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"access token": pair.AccessToken,
		"unregistered": unregistered,
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Refresh(ctx, token, meta)
			re, ok := util.AsResponseError(err)
			require.True(t, ok)
			assert.Equal(t, util.KindUnauthorized, re.Kind)
			assert.Equal(t, util.ErrorBody{Message: "Unauthorized", Code: "UNAUTHORIZED"}, re.Body())
		})
	}
}

func TestRefresh_ExpiredRefreshToken(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	u := f.createUser(t, models.RoleUser)

	pair, err := f.svc.Login(ctx, u.ID, u.Role, meta)
	require.NoError(t, err)

	f.clock.Advance(f.tokens.RefreshTTL())

	_, err = f.svc.Refresh(ctx, pair.RefreshToken, meta)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))
	assert.NotErrorIs(t, err, ErrSessionRevoked)
}

func TestRefresh_CrossUserIsolation(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	a := f.createUser(t, models.RoleUser)
	b := f.createUser(t, models.RoleEditor)

	pair, err := f.svc.Login(ctx, a.ID, a.Role, meta)
	require.NoError(t, err)

	_, err = f.sessions.FindSession(ctx, models.HashRefreshToken(pair.RefreshToken), b.ID)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	// logging b out leaves a's session alone
	n, err := f.svc.Logout(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken, meta)
	assert.NoError(t, err)
}

func TestRefresh_DeletedUser(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, "ghost", models.RoleUser, meta)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken, meta)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))
}

func TestRefresh_NotifiesOnIPChange(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	u := f.createUser(t, models.RoleUser)

	pair, err := f.svc.Login(ctx, u.ID, u.Role, meta)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken, meta)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.events)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken, models.SessionMeta{UserAgent: "test", IPAddress: "10.9.9.9"})
	require.NoError(t, err)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, models.IPChangeEvent{UserID: u.ID, OldIP: "10.0.0.1", NewIP: "10.9.9.9", UserAgent: "test"}, f.notifier.events[0])
}

type failingSessions struct {
	storage.SessionRepository
}

func (failingSessions) FindSession(context.Context, string, string) (*models.RefreshSession, error) {
	return nil, util.NewStorageError(errors.New("connection reset"))
}

func TestRefresh_StorageFaultIsNotUnauthorized(t *testing.T) {
	log := zap.NewNop().Sugar()
	tokens, _ := newTestTokenService()
	svc := NewSessionService(tokens, failingSessions{}, memory.NewUserRepository(), nil, log)

	refresh, _, err := tokens.IssueRefresh("u1")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), refresh, meta)
	assert.True(t, util.IsKind(err, util.KindStorage))
}

func TestLogout_WithoutSessions(t *testing.T) {
	f := newSessionFixture(t)

	n, err := f.svc.Logout(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurgeExpired(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	u := f.createUser(t, models.RoleUser)

	_, err := f.svc.Login(ctx, u.ID, u.Role, meta)
	require.NoError(t, err)

	n, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(f.tokens.RefreshTTL())
	n, err = f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestStartJanitor_NonPositiveInterval(t *testing.T) {
	f := newSessionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.NotPanics(t, func() { f.svc.StartJanitor(ctx, 0) })
	assert.NotPanics(t, func() { f.svc.StartJanitor(ctx, -time.Minute) })
}

func TestRefresh_ConcurrentCallsAllSucceed(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	u := f.createUser(t, models.RoleUser)

	pair, err := f.svc.Login(ctx, u.ID, u.Role, meta)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Refresh(ctx, pair.RefreshToken, meta)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
