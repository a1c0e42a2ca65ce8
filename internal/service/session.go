package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/util"
)

const unauthorizedMsg = "Unauthorized"

// ErrSessionRevoked means the refresh token is genuine but its session record
// is gone. It is logged, never shown to the client.
var ErrSessionRevoked = errors.New("session revoked")

type RefreshResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    models.Identity
}

// SessionService issues, renews and revokes sessions. Refresh records are
// not rotated: a refresh token stays usable until it expires or its owner
// logs out.
type SessionService struct {
	tokens   *TokenService
	sessions storage.SessionRepository
	users    storage.UserRepository
	notifier IPChangeNotifier
	log      *zap.SugaredLogger
}

func NewSessionService(
	tokens *TokenService,
	sessions storage.SessionRepository,
	users storage.UserRepository,
	notifier IPChangeNotifier,
	log *zap.SugaredLogger,
) *SessionService {
	return &SessionService{
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		notifier: notifier,
		log:      log,
	}
}

func (s *SessionService) Login(ctx context.Context, userID string, role models.Role, meta models.SessionMeta) (*models.TokenPair, error) {
	access, accessClaims, err := s.tokens.IssueAccess(userID, role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshClaims, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	_, err = s.sessions.CreateSession(ctx, models.RefreshSession{
		TokenHash: models.HashRefreshToken(refresh),
		UserID:    userID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		CreatedAt: refreshClaims.IssuedAt,
		ExpiresAt: refreshClaims.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("Session opened", "userID", userID, "ip", meta.IPAddress)

	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt,
		RefreshExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}

// Refresh mints a new access token from a refresh token. Every credential
// failure is reported as the same Unauthorized error.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string, meta models.SessionMeta) (*RefreshResult, error) {
	v := s.tokens.VerifyRefresh(refreshToken)
	if !v.OK() {
		return nil, s.reject("", fmt.Errorf("refresh token %s: %w", v.Outcome, v.Err))
	}
	userID := v.Claims.UserID

	session, err := s.sessions.FindSession(ctx, models.HashRefreshToken(refreshToken), userID)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, s.reject(userID, ErrSessionRevoked)
		}
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, s.reject(userID, err)
		}
		return nil, err
	}

	access, claims, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	if s.notifier != nil && meta.IPAddress != "" && session.IPAddress != "" && meta.IPAddress != session.IPAddress {
		s.log.Warnw("Refresh from a new IP", "userID", userID, "old", session.IPAddress, "new", meta.IPAddress)
		s.notifier.NotifyIPChange(context.WithoutCancel(ctx), models.IPChangeEvent{
			UserID:    userID,
			OldIP:     session.IPAddress,
			NewIP:     meta.IPAddress,
			UserAgent: meta.UserAgent,
		})
	}

	return &RefreshResult{
		AccessToken: access,
		ExpiresAt:   claims.ExpiresAt,
		Identity:    models.Identity{UserID: user.ID, Role: user.Role},
	}, nil
}

// Logout revokes every session of the user. It succeeds with 0 when there
// are none.
func (s *SessionService) Logout(ctx context.Context, userID string) (int64, error) {
	n, err := s.sessions.RevokeAllUserSessions(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.Infow("Sessions revoked", "userID", userID, "count", n)
	return n, nil
}

func (s *SessionService) VerifyAccess(token string) Verification {
	return s.tokens.VerifyAccess(token)
}

func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpiredSessions(ctx, s.tokens.now())
}

// StartJanitor purges expired session records every interval until ctx is done.
// A non-positive interval leaves the janitor off.
func (s *SessionService) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.log.Errorw("Session janitor not started", "interval", interval)
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.PurgeExpired(ctx)
				if err != nil {
					s.log.Errorw("Failed to purge expired sessions", "error", err)
					continue
				}
				if n > 0 {
					s.log.Infow("Expired sessions purged", "count", n)
				}
			}
		}
	}()
}

func (s *SessionService) reject(userID string, reason error) error {
	s.log.Warnw("Refresh rejected", "userID", userID, "reason", reason)
	return util.WrapUnauthorized(unauthorizedMsg, reason)
}
