package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/rryowa/newsapp/internal/storage"
)

const uniqueViolation = "23505"

// Storage bundles every Postgres repository behind one value.
type Storage struct {
	*UserRepository
	*SessionRepository
	*CategoryRepository
	*PostRepository
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		UserRepository:     NewUserRepository(db),
		SessionRepository:  NewSessionRepository(db),
		CategoryRepository: NewCategoryRepository(db),
		PostRepository:     NewPostRepository(db),
	}
}

// withTx runs fn inside a transaction. It commits when fn returns nil and
// rolls back otherwise, rethrowing panics after the rollback.
func withTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx storage.DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}

// isUniqueViolation understands errors from both lib/pq and pgx.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}
