package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/util"
)

type CategoryService struct {
	categories storage.CategoryRepository
	log        *zap.SugaredLogger
}

func NewCategoryService(categories storage.CategoryRepository, log *zap.SugaredLogger) *CategoryService {
	return &CategoryService{categories: categories, log: log}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.ListPublishedCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, util.NewNotFound("No categories found")
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	category, err := s.categories.CreateCategory(ctx, models.Category{
		Name:      name,
		Slug:      slug.Make(name),
		Published: true,
	})
	if err != nil {
		return nil, categoryErr(err)
	}
	s.log.Infow("Category created", "id", category.ID, "slug", category.Slug)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, patch models.CategoryPatch) (*models.Category, error) {
	category, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		category.Name = strings.TrimSpace(*patch.Name)
		category.Slug = slug.Make(category.Name)
	}
	if patch.Published != nil {
		category.Published = *patch.Published
	}

	updated, err := s.categories.UpdateCategory(ctx, *category)
	if err != nil {
		return nil, categoryErr(err)
	}
	return updated, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return util.NewNotFound("Category not found")
	}
	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return categoryErr(err)
	}
	s.log.Infow("Category deleted", "id", id)
	return nil
}

func (s *CategoryService) get(ctx context.Context, id string) (*models.Category, error) {
	if err := checkID(id); err != nil {
		return nil, util.NewNotFound("Category not found")
	}
	category, err := s.categories.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, categoryErr(err)
	}
	return category, nil
}

func categoryErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrCategoryNotFound):
		return util.NewNotFound("Category not found")
	case errors.Is(err, storage.ErrDuplicate):
		return util.NewValidationError(util.FieldError{Field: "name", Message: "Category already exists"})
	default:
		return err
	}
}

// checkID rejects ids that cannot exist so they never reach the database.
func checkID(id string) error {
	return uuid.Validate(id)
}
