package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/util"
)

// (POST /api/auth/signup).
func (c *Controller) SignUp(ctx echo.Context) error {
	var req models.SignUpRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	user, err := c.services.Auth.SignUp(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, models.AuthResponse{
		Message: "User successfully registered",
		User:    user.Public(),
	})
}

// (POST /api/auth/signin).
func (c *Controller) SignIn(ctx echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	user, pair, err := c.services.Auth.SignIn(ctx.Request().Context(), req, sessionMeta(ctx))
	if err != nil {
		return err
	}

	c.creds.SetSession(ctx, pair)

	resp := models.AuthResponse{
		Message: "User logged in successfully",
		User:    user.Public(),
	}
	if c.creds.TokensInBody() {
		resp.AccessToken = pair.AccessToken
		resp.RefreshToken = pair.RefreshToken
	}
	return ctx.JSON(http.StatusOK, resp)
}

// (POST /api/auth/refresh).
func (c *Controller) RefreshToken(ctx echo.Context) error {
	token := c.creds.RefreshToken(ctx)
	if token == "" {
		var req models.TokenRefreshRequest
		if err := ctx.Bind(&req); err != nil {
			return util.NewBadRequest("Invalid request body")
		}
		token = req.RefreshToken
	}
	if token == "" {
		return util.NewUnauthorized("Unauthorized")
	}

	res, err := c.services.Sessions.Refresh(ctx.Request().Context(), token, sessionMeta(ctx))
	if err != nil {
		return err
	}

	c.creds.SetAccess(ctx, res.AccessToken)

	resp := models.TokenResponse{ExpiresAt: res.ExpiresAt}
	if c.creds.TokensInBody() {
		resp.AccessToken = res.AccessToken
	}
	return ctx.JSON(http.StatusOK, resp)
}

// (POST /api/auth/signout).
func (c *Controller) SignOut(ctx echo.Context) error {
	id, err := identity(ctx)
	if err != nil {
		return err
	}

	if _, err := c.services.Sessions.Logout(ctx.Request().Context(), id.UserID); err != nil {
		return err
	}

	c.creds.Clear(ctx)
	return ctx.JSON(http.StatusOK, models.MessageResponse{Message: "User logged out successfully"})
}

// (GET /api/auth/me).
func (c *Controller) GetMe(ctx echo.Context) error {
	id, err := identity(ctx)
	if err != nil {
		return err
	}

	user, err := c.services.Auth.Me(ctx.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, user.Public())
}
