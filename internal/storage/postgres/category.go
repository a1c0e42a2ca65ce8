package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/util"
)

type CategoryRepository struct {
	db storage.DBTX
}

func NewCategoryRepository(db storage.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category models.Category) (*models.Category, error) {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}

	query := `INSERT INTO categories (id, name, slug, published) VALUES ($1, $2, $3, $4) RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, category.ID, category.Name, category.Slug, category.Published).
		Scan(&category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category %s: %w", category.Name, storage.ErrDuplicate)
		}
		return nil, util.NewStorageError(fmt.Errorf("create category: %w", err))
	}
	return &category, nil
}

func (r *CategoryRepository) ListPublishedCategories(ctx context.Context) ([]models.Category, error) {
	query := `SELECT id, name, slug, published, created_at FROM categories WHERE published = TRUE ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, util.NewStorageError(fmt.Errorf("list categories: %w", err))
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Published, &c.CreatedAt); err != nil {
			return nil, util.NewStorageError(fmt.Errorf("scan category: %w", err))
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, util.NewStorageError(fmt.Errorf("list categories: %w", err))
	}
	return categories, nil
}

func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	query := `SELECT id, name, slug, published, created_at FROM categories WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Slug, &c.Published, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCategoryNotFound
		}
		return nil, util.NewStorageError(fmt.Errorf("get category: %w", err))
	}
	return &c, nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, category models.Category) (*models.Category, error) {
	query := `UPDATE categories SET name = $2, slug = $3, published = $4 WHERE id = $1 RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, category.ID, category.Name, category.Slug, category.Published).
		Scan(&category.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category %s: %w", category.Name, storage.ErrDuplicate)
		}
		return nil, util.NewStorageError(fmt.Errorf("update category: %w", err))
	}
	return &category, nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return util.NewStorageError(fmt.Errorf("delete category: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return util.NewStorageError(fmt.Errorf("delete category: %w", err))
	}
	if n == 0 {
		return storage.ErrCategoryNotFound
	}
	return nil
}

// CountCategories reports how many of ids exist.
func (r *CategoryRepository) CountCategories(ctx context.Context, ids []string) (int, error) {
	var n int
	query := `SELECT count(*) FROM categories WHERE id = ANY($1::uuid[])`
	if err := r.db.QueryRowContext(ctx, query, pq.Array(ids)).Scan(&n); err != nil {
		return 0, util.NewStorageError(fmt.Errorf("count categories: %w", err))
	}
	return n, nil
}
