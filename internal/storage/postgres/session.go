package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/util"
)

type SessionRepository struct {
	db storage.DBTX
}

func NewSessionRepository(db storage.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session models.RefreshSession) (*models.RefreshSession, error) {
	query := `INSERT INTO refresh_sessions (token_hash, user_id, user_agent, ip_address, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		session.TokenHash,
		session.UserID,
		session.UserAgent,
		session.IPAddress,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return nil, util.NewStorageError(fmt.Errorf("insert session: %w", err))
	}
	return &session, nil
}

// FindSession matches on both the token digest and the owner.
func (r *SessionRepository) FindSession(ctx context.Context, tokenHash, userID string) (*models.RefreshSession, error) {
	var session models.RefreshSession
	query := `SELECT token_hash, user_id, user_agent, ip_address, created_at, expires_at FROM refresh_sessions WHERE token_hash = $1 AND user_id = $2`
	err := r.db.QueryRowContext(ctx, query, tokenHash, userID).Scan(
		&session.TokenHash,
		&session.UserID,
		&session.UserAgent,
		&session.IPAddress,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, util.NewStorageError(fmt.Errorf("find session: %w", err))
	}
	return &session, nil
}

func (r *SessionRepository) RevokeAllUserSessions(ctx context.Context, userID string) (int64, error) {
	query := `DELETE FROM refresh_sessions WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, util.NewStorageError(fmt.Errorf("delete user sessions: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, util.NewStorageError(fmt.Errorf("delete user sessions: %w", err))
	}
	return n, nil
}

func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM refresh_sessions WHERE expires_at <= $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, util.NewStorageError(fmt.Errorf("delete expired sessions: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, util.NewStorageError(fmt.Errorf("delete expired sessions: %w", err))
	}
	return n, nil
}
