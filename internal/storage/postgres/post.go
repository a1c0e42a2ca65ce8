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

const selectPost = `SELECT p.id, p.title, p.slug, p.description, p.content, p.author_id,
	p.thumbnail_url, p.thumbnail_key, p.published, p.created_at, p.updated_at,
	COALESCE(array_agg(pc.category_id::text) FILTER (WHERE pc.category_id IS NOT NULL), '{}')
FROM posts p
LEFT JOIN post_categories pc ON pc.post_id = p.id`

// PostRepository writes a post and its category links in one transaction.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) CreatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}

	err := withTx(ctx, r.db, func(ctx context.Context, tx storage.DBTX) error {
		query := `INSERT INTO posts (id, title, slug, description, content, author_id, thumbnail_url, thumbnail_key, published)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at, updated_at`
		err := tx.QueryRowContext(
			ctx,
			query,
			post.ID,
			post.Title,
			post.Slug,
			post.Description,
			post.Content,
			post.AuthorID,
			post.ThumbnailURL,
			post.ThumbnailKey,
			post.Published,
		).Scan(&post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return err
		}
		return linkCategories(ctx, tx, post.ID, post.Categories)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("post %s: %w", post.Slug, storage.ErrDuplicate)
		}
		return nil, util.NewStorageError(fmt.Errorf("create post: %w", err))
	}
	return &post, nil
}

func (r *PostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	query := selectPost + ` WHERE p.id = $1 GROUP BY p.id`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPostNotFound
		}
		return nil, util.NewStorageError(fmt.Errorf("get post: %w", err))
	}
	return post, nil
}

// ListPosts returns newest first. An empty CategorySlug matches every post.
func (r *PostRepository) ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	query := selectPost + `
WHERE ($1 = '' OR EXISTS (
	SELECT 1 FROM post_categories x JOIN categories c ON c.id = x.category_id
	WHERE x.post_id = p.id AND c.slug = $1))
GROUP BY p.id
ORDER BY p.created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, filter.CategorySlug, filter.Limit, filter.Offset)
	if err != nil {
		return nil, util.NewStorageError(fmt.Errorf("list posts: %w", err))
	}
	defer rows.Close()

	posts := make([]models.Post, 0, filter.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, util.NewStorageError(fmt.Errorf("scan post: %w", err))
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, util.NewStorageError(fmt.Errorf("list posts: %w", err))
	}
	return posts, nil
}

func (r *PostRepository) UpdatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	err := withTx(ctx, r.db, func(ctx context.Context, tx storage.DBTX) error {
		query := `UPDATE posts SET title = $2, slug = $3, description = $4, content = $5, published = $6, updated_at = now()
WHERE id = $1 RETURNING created_at, updated_at`
		err := tx.QueryRowContext(
			ctx,
			query,
			post.ID,
			post.Title,
			post.Slug,
			post.Description,
			post.Content,
			post.Published,
		).Scan(&post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM post_categories WHERE post_id = $1`, post.ID); err != nil {
			return err
		}
		return linkCategories(ctx, tx, post.ID, post.Categories)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPostNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("post %s: %w", post.Slug, storage.ErrDuplicate)
		}
		return nil, util.NewStorageError(fmt.Errorf("update post: %w", err))
	}
	return &post, nil
}

func (r *PostRepository) DeletePost(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return util.NewStorageError(fmt.Errorf("delete post: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return util.NewStorageError(fmt.Errorf("delete post: %w", err))
	}
	if n == 0 {
		return storage.ErrPostNotFound
	}
	return nil
}

func linkCategories(ctx context.Context, tx storage.DBTX, postID string, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	query := `INSERT INTO post_categories (post_id, category_id) SELECT $1, unnest($2::uuid[])`
	_, err := tx.ExecContext(ctx, query, postID, pq.Array(categoryIDs))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		post        models.Post
		description sql.NullString
	)
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Slug,
		&description,
		&post.Content,
		&post.AuthorID,
		&post.ThumbnailURL,
		&post.ThumbnailKey,
		&post.Published,
		&post.CreatedAt,
		&post.UpdatedAt,
		pq.Array(&post.Categories),
	)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		post.Description = &description.String
	}
	return &post, nil
}
