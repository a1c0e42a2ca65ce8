package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/util"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTokenService() (*TokenService, *testClock) {
	clock := &testClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	ts := NewTokenService(&util.TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     40 * time.Second,
		RefreshTTL:    7 * 24 * time.Hour,
	}).WithClock(clock.Now)
	return ts, clock
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	ts, clock := newTestTokenService()

	for _, role := range []models.Role{models.RoleUser, models.RoleEditor, models.RoleAdmin} {
		token, issued, err := ts.IssueAccess("u1", role)
		require.NoError(t, err)

		v := ts.VerifyAccess(token)
		require.Equal(t, Verified, v.Outcome, v.Err)
		require.NotNil(t, v.Claims.Role)
		assert.Equal(t, role, *v.Claims.Role)
		assert.Equal(t, "u1", v.Claims.UserID)
		assert.Equal(t, AccessToken, v.Claims.Type)
		assert.Equal(t, issued.ID, v.Claims.ID)
		assert.True(t, clock.now.Equal(v.Claims.IssuedAt))
		assert.True(t, clock.now.Add(40*time.Second).Equal(v.Claims.ExpiresAt))
	}
}

func TestIssue_TokensAreUnique(t *testing.T) {
	ts, _ := newTestTokenService()

	a, _, err := ts.IssueAccess("u1", models.RoleUser)
	require.NoError(t, err)
	b, _, err := ts.IssueAccess("u1", models.RoleUser)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRefreshToken_HasNoRole(t *testing.T) {
	ts, _ := newTestTokenService()

	token, _, err := ts.IssueRefresh("u1")
	require.NoError(t, err)

	v := ts.VerifyRefresh(token)
	require.Equal(t, Verified, v.Outcome)
	assert.Nil(t, v.Claims.Role)
	assert.Equal(t, RefreshToken, v.Claims.Type)
}

func TestVerify_SecretIsolation(t *testing.T) {
	ts, _ := newTestTokenService()

	access, _, err := ts.IssueAccess("u1", models.RoleAdmin)
	require.NoError(t, err)
	refresh, _, err := ts.IssueRefresh("u1")
	require.NoError(t, err)

	assert.Equal(t, SignatureInvalid, ts.VerifyRefresh(access).Outcome)
	assert.Equal(t, SignatureInvalid, ts.VerifyAccess(refresh).Outcome)
	assert.Equal(t, SignatureInvalid, ts.Verify(access, ts.refreshSecret, AccessToken).Outcome)
}

func TestVerify_TypeCheckedEvenWithSharedSecret(t *testing.T) {
	ts := NewTokenService(&util.TokenConfig{
		AccessSecret:  []byte("same"),
		RefreshSecret: []byte("same"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})

	refresh, _, err := ts.IssueRefresh("u1")
	require.NoError(t, err)

	v := ts.VerifyAccess(refresh)
	assert.Equal(t, Malformed, v.Outcome)
	assert.ErrorIs(t, v.Err, ErrWrongTokenType)
}

func TestVerify_ExpiryBoundaryIsInclusive(t *testing.T) {
	ts, clock := newTestTokenService()
	start := clock.now

	token, _, err := ts.IssueAccess("u1", models.RoleUser)
	require.NoError(t, err)

	clock.now = start.Add(39 * time.Second)
	assert.Equal(t, Verified, ts.VerifyAccess(token).Outcome)

	clock.now = start.Add(40 * time.Second)
	v := ts.VerifyAccess(token)
	assert.Equal(t, Expired, v.Outcome)
	require.NotNil(t, v.Claims)
	assert.Equal(t, "u1", v.Claims.UserID)

	clock.Advance(time.Hour)
	assert.Equal(t, Expired, ts.VerifyAccess(token).Outcome)
}

func TestVerify_ForgedExpiredTokenIsNotExpired(t *testing.T) {
	ts, clock := newTestTokenService()
	role := models.RoleAdmin

	forged, _, err := ts.Issue(Claims{UserID: "u1", Role: &role, Type: AccessToken}, []byte("attacker"), time.Second)
	require.NoError(t, err)
	clock.Advance(time.Minute)

	v := ts.VerifyAccess(forged)
	assert.Equal(t, SignatureInvalid, v.Outcome)
	assert.Nil(t, v.Claims)
}

func TestVerify_Malformed(t *testing.T) {
	ts, _ := newTestTokenService()

	for _, token := range []string{"", "abc", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30"} {
		v := ts.VerifyAccess(token)
		assert.Equal(t, Malformed, v.Outcome, token)
		assert.False(t, v.OK())
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	ts, clock := newTestTokenService()

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &jwtClaims{
		Type: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(clock.now),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
		},
	})
	signed, err := token.SignedString(ts.accessSecret)
	require.NoError(t, err)

	assert.Equal(t, SignatureInvalid, ts.VerifyAccess(signed).Outcome)
}

func TestVerify_MissingSubject(t *testing.T) {
	ts, _ := newTestTokenService()

	token, _, err := ts.Issue(Claims{Type: AccessToken}, ts.accessSecret, time.Minute)
	require.NoError(t, err)

	v := ts.VerifyAccess(token)
	assert.Equal(t, Malformed, v.Outcome)
	assert.ErrorIs(t, v.Err, ErrMissingSubject)
}
