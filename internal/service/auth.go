package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/util"
)

const wrongCredentialsMsg = "Wrong credentials"

type AuthService struct {
	users    storage.UserRepository
	sessions *SessionService
	hasher   PasswordHasher
	log      *zap.SugaredLogger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users storage.UserRepository,
	sessions *SessionService,
	hasher PasswordHasher,
	log *zap.SugaredLogger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		log:      log,
	}
}

func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, util.NewValidationError(util.FieldError{Field: "email", Message: "Email already in use"})
		}
		return nil, err
	}

	s.log.Infow("User signed up", "userID", user.ID)
	return user, nil
}

// SignIn checks the password and opens a session. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest, meta models.SessionMeta) (*models.User, *models.TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// keep timing close to a real comparison
			_ = s.hasher.Compare(s.dummy(), req.Password)
			return nil, nil, util.NewUnauthorized(wrongCredentialsMsg)
		}
		return nil, nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			return nil, nil, util.NewUnauthorized(wrongCredentialsMsg)
		}
		return nil, nil, err
	}

	pair, err := s.sessions.Login(ctx, user.ID, user.Role, meta)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, util.NewNotFound("User not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("not-a-real-password")
		if err != nil {
			s.log.Errorw("Failed to build dummy hash", "error", fmt.Errorf("hash: %w", err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
