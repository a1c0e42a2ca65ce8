package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/util"
)

type categoryStore struct {
	storage.CategoryRepository
	byID map[string]models.Category
}

func newCategoryStore() *categoryStore {
	return &categoryStore{byID: map[string]models.Category{}}
}

func (s *categoryStore) CreateCategory(_ context.Context, c models.Category) (*models.Category, error) {
	for _, existing := range s.byID {
		if existing.Slug == c.Slug {
			return nil, storage.ErrDuplicate
		}
	}
	c.ID = uuid.NewString()
	s.byID[c.ID] = c
	return &c, nil
}

func (s *categoryStore) ListPublishedCategories(context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range s.byID {
		if c.Published {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *categoryStore) GetCategoryByID(_ context.Context, id string) (*models.Category, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrCategoryNotFound
	}
	return &c, nil
}

func (s *categoryStore) UpdateCategory(_ context.Context, c models.Category) (*models.Category, error) {
	s.byID[c.ID] = c
	return &c, nil
}

func (s *categoryStore) DeleteCategory(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return storage.ErrCategoryNotFound
	}
	delete(s.byID, id)
	return nil
}

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(newCategoryStore(), zap.NewNop().Sugar())

	_, err := svc.List(ctx)
	require.True(t, util.IsKind(err, util.KindNotFound))

	created, err := svc.Create(ctx, "  Go News ")
	require.NoError(t, err)
	assert.Equal(t, "Go News", created.Name)
	assert.Equal(t, "go-news", created.Slug)
	assert.True(t, created.Published)

	_, err = svc.Create(ctx, "go news")
	re, ok := util.AsResponseError(err)
	require.True(t, ok)
	assert.Equal(t, util.KindValidationFailed, re.Kind)
	assert.Equal(t, []util.FieldError{{Field: "name", Message: "Category already exists"}}, re.Details)

	name, hidden := "Rust News", false
	updated, err := svc.Update(ctx, created.ID, models.CategoryPatch{Name: &name, Published: &hidden})
	require.NoError(t, err)
	assert.Equal(t, "rust-news", updated.Slug)
	assert.False(t, updated.Published)

	_, err = svc.List(ctx)
	assert.True(t, util.IsKind(err, util.KindNotFound))

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.True(t, util.IsKind(svc.Delete(ctx, created.ID), util.KindNotFound))
}

func TestCategoryService_UnknownIDs(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(newCategoryStore(), zap.NewNop().Sugar())

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		_, err := svc.Update(ctx, id, models.CategoryPatch{})
		assert.True(t, util.IsKind(err, util.KindNotFound), id)
	}
	assert.True(t, util.IsKind(svc.Delete(ctx, "42"), util.KindNotFound))
}

func TestCategoryService_StorageErrorPassesThrough(t *testing.T) {
	dbErr := util.NewStorageError(errors.New("connection reset"))
	svc := NewCategoryService(failingCategories{err: dbErr}, zap.NewNop().Sugar())

	_, err := svc.List(context.Background())
	assert.True(t, util.IsKind(err, util.KindStorage))
}

type failingCategories struct {
	storage.CategoryRepository
	err error
}

func (f failingCategories) ListPublishedCategories(context.Context) ([]models.Category, error) {
	return nil, f.err
}
