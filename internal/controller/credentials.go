package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/util"
)

// CredentialTransport moves tokens between the wire and the handlers
// according to the configured transport (cookies, headers or both).
type CredentialTransport struct {
	cfg *util.AuthHTTPConfig
}

func NewCredentialTransport(cfg *util.AuthHTTPConfig) *CredentialTransport {
	return &CredentialTransport{cfg: cfg}
}

func (t *CredentialTransport) TokensInBody() bool { return t.cfg.TokensInBody }

// AccessToken returns the bearer header value first, then the access cookie.
func (t *CredentialTransport) AccessToken(c echo.Context) string {
	if t.cfg.Transport.UsesHeaders() {
		h := c.Request().Header.Get(models.AuthorizationHeader)
		if token, ok := strings.CutPrefix(h, models.BearerPrefix); ok && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token)
		}
	}
	if t.cfg.Transport.UsesCookies() {
		if cookie, err := c.Cookie(t.cfg.Cookies.AccessName); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

func (t *CredentialTransport) RefreshToken(c echo.Context) string {
	if t.cfg.Transport.UsesCookies() {
		if cookie, err := c.Cookie(t.cfg.Cookies.RefreshName); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	if t.cfg.Transport.UsesHeaders() {
		if token := strings.TrimSpace(c.Request().Header.Get(models.RefreshTokenHeader)); token != "" {
			return token
		}
	}
	return ""
}

func (t *CredentialTransport) SetSession(c echo.Context, pair *models.TokenPair) {
	t.SetAccess(c, pair.AccessToken)
	if t.cfg.Transport.UsesCookies() {
		c.SetCookie(t.cookie(t.cfg.Cookies.RefreshName, pair.RefreshToken, t.cfg.Cookies.RefreshMaxAge))
	}
}

// SetAccess writes a freshly minted access token to the response. The gate
// calls it when it renews an expired token.
func (t *CredentialTransport) SetAccess(c echo.Context, token string) {
	if t.cfg.Transport.UsesCookies() {
		c.SetCookie(t.cookie(t.cfg.Cookies.AccessName, token, t.cfg.Cookies.AccessMaxAge))
	}
	if t.cfg.Transport.UsesHeaders() {
		c.Response().Header().Set(models.RenewedTokenHeader, token)
	}
}

func (t *CredentialTransport) Clear(c echo.Context) {
	if !t.cfg.Transport.UsesCookies() {
		return
	}
	for _, name := range []string{t.cfg.Cookies.AccessName, t.cfg.Cookies.RefreshName} {
		cookie := t.cookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.SetCookie(cookie)
	}
}

func (t *CredentialTransport) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     t.cfg.Cookies.Path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   t.cfg.Cookies.Secure,
		SameSite: t.cfg.Cookies.SameSite,
	}
}
