package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/newsapp/internal/models"
)

type categoriesResponse struct {
	Categories []models.Category `json:"categories"`
}

// (GET /api/categories).
func (c *Controller) ListCategories(ctx echo.Context) error {
	categories, err := c.services.Categories.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, categoriesResponse{Categories: categories})
}

// (POST /api/categories).
func (c *Controller) CreateCategory(ctx echo.Context) error {
	var req models.CreateCategoryRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	category, err := c.services.Categories.Create(ctx.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, category)
}

// (PATCH /api/categories/{id}).
func (c *Controller) UpdateCategory(ctx echo.Context, id string) error {
	var req models.UpdateCategoryRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	category, err := c.services.Categories.Update(ctx.Request().Context(), id, models.CategoryPatch{
		Name:      req.Name,
		Published: req.Published,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, category)
}

// (DELETE /api/categories/{id}).
func (c *Controller) DeleteCategory(ctx echo.Context, id string) error {
	if err := c.services.Categories.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
