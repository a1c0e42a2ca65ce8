package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/util"
)

type UserService struct {
	users storage.UserRepository
	log   *zap.SugaredLogger
}

func NewUserService(users storage.UserRepository, log *zap.SugaredLogger) *UserService {
	return &UserService{users: users, log: log}
}

// ChangeRole updates the stored role. Live access tokens keep the old role
// until they are renewed.
func (s *UserService) ChangeRole(ctx context.Context, actor models.Identity, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, util.NewValidationError(util.FieldError{Field: "role", Message: "Invalid role"})
	}
	if err := checkID(userID); err != nil {
		return nil, util.NewNotFound("User not found")
	}

	user, err := s.users.UpdateUserRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, util.NewNotFound("User not found")
		}
		return nil, err
	}

	s.log.Infow("Role changed", "userID", userID, "role", role, "by", actor.UserID)
	return user, nil
}
