package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
)

// SessionRepository keeps refresh session records in a map keyed by token hash.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.RefreshSession
	log      *zap.SugaredLogger
}

func NewSessionRepository(log *zap.SugaredLogger) *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]models.RefreshSession),
		log:      log,
	}
}

func (m *SessionRepository) CreateSession(_ context.Context, session models.RefreshSession) (*models.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.TokenHash] = session
	m.log.Debugw("Session created", "userID", session.UserID, "expiresAt", session.ExpiresAt)

	return &session, nil
}

func (m *SessionRepository) FindSession(_ context.Context, tokenHash, userID string) (*models.RefreshSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[tokenHash]
	if !ok || session.UserID != userID {
		m.log.Debugw("Session not found", "userID", userID)
		return nil, storage.ErrSessionNotFound
	}

	return &session, nil
}

func (m *SessionRepository) RevokeAllUserSessions(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for hash, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, hash)
			n++
		}
	}

	return n, nil
}

func (m *SessionRepository) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for hash, session := range m.sessions {
		if !session.ExpiresAt.After(now) {
			delete(m.sessions, hash)
			n++
		}
	}

	return n, nil
}
