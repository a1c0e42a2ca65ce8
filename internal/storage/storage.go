package storage

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/rryowa/newsapp/internal/models"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrDuplicate        = errors.New("duplicate key")
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error)
}

// SessionRepository is the revocation authority for refresh credentials.
// A refresh token is only honoured while a record for (hash, user) exists.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.RefreshSession) (*models.RefreshSession, error)
	FindSession(ctx context.Context, tokenHash, userID string) (*models.RefreshSession, error)
	RevokeAllUserSessions(ctx context.Context, userID string) (int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category models.Category) (*models.Category, error)
	ListPublishedCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
	UpdateCategory(ctx context.Context, category models.Category) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	CountCategories(ctx context.Context, ids []string) (int, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, post models.Post) (*models.Post, error)
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, filter models.PostFilter) ([]models.Post, error)
	UpdatePost(ctx context.Context, post models.Post) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// MediaStore keeps uploaded binaries and hands back a public URL.
type MediaStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// RateLimiter admits or rejects one hit for key. When rejected it reports how
// long the caller should wait before retrying.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
