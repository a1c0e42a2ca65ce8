package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/util"
)

func newTransport(mode util.AuthTransport) *CredentialTransport {
	return NewCredentialTransport(&util.AuthHTTPConfig{
		Transport:    mode,
		TokensInBody: true,
		Cookies: util.CookieConfig{
			AccessName:    "accessToken",
			RefreshName:   "refreshToken",
			AccessMaxAge:  time.Hour,
			RefreshMaxAge: 24 * time.Hour,
			Path:          "/",
			SameSite:      http.SameSiteLaxMode,
		},
	})
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestCredentialTransport_AccessToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(models.AuthorizationHeader, "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "cookie-token"})

	tests := []struct {
		mode util.AuthTransport
		want string
	}{
		{mode: util.TransportBoth, want: "header-token"},
		{mode: util.TransportHeader, want: "header-token"},
		{mode: util.TransportCookie, want: "cookie-token"},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			c, _ := newContext(req)
			assert.Equal(t, tt.want, newTransport(tt.mode).AccessToken(c))
		})
	}
}

func TestCredentialTransport_AccessTokenIgnoresOtherSchemes(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(models.AuthorizationHeader, "Basic dXNlcjpwYXNz")

	c, _ := newContext(req)
	assert.Empty(t, newTransport(util.TransportHeader).AccessToken(c))
}

func TestCredentialTransport_RefreshToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(models.RefreshTokenHeader, "header-refresh")

	c, _ := newContext(req)
	assert.Equal(t, "header-refresh", newTransport(util.TransportBoth).RefreshToken(c))
	assert.Empty(t, newTransport(util.TransportCookie).RefreshToken(c))

	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "cookie-refresh"})
	c, _ = newContext(req)
	assert.Equal(t, "cookie-refresh", newTransport(util.TransportBoth).RefreshToken(c))
}

func TestCredentialTransport_SetSession(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodPost, "/", nil))

	newTransport(util.TransportBoth).SetSession(c, &models.TokenPair{AccessToken: "a", RefreshToken: "r"})

	cookies := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		cookies[ck.Name] = ck
	}
	require.Contains(t, cookies, "accessToken")
	require.Contains(t, cookies, "refreshToken")
	assert.Equal(t, "a", cookies["accessToken"].Value)
	assert.Equal(t, 3600, cookies["accessToken"].MaxAge)
	assert.Equal(t, "r", cookies["refreshToken"].Value)
	assert.Equal(t, 86400, cookies["refreshToken"].MaxAge)
	assert.True(t, cookies["refreshToken"].HttpOnly)
	assert.Equal(t, "a", rec.Header().Get(models.RenewedTokenHeader))
}

func TestCredentialTransport_HeaderModeSetsNoCookies(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodPost, "/", nil))

	tr := newTransport(util.TransportHeader)
	tr.SetSession(c, &models.TokenPair{AccessToken: "a", RefreshToken: "r"})
	tr.Clear(c)

	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, "a", rec.Header().Get(models.RenewedTokenHeader))
}

func TestCredentialTransport_Clear(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodPost, "/", nil))

	newTransport(util.TransportCookie).Clear(c)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, ck := range cookies {
		assert.Empty(t, ck.Value)
		assert.Equal(t, -1, ck.MaxAge)
	}
}
