package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/newsapp/internal/models"
)

// (PATCH /api/users/{id}/role).
func (c *Controller) ChangeUserRole(ctx echo.Context, userID string) error {
	actor, err := identity(ctx)
	if err != nil {
		return err
	}

	var req models.ChangeRoleRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	user, err := c.services.Users.ChangeRole(ctx.Request().Context(), actor, userID, req.Role)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, user.Public())
}
