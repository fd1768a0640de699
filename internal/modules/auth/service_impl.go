package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/georgemunganga/bikeshop-backend/internal/modules/user"
	"golang.org/x/crypto/bcrypt"
)

// UserFinder is the subset of user.Repository login needs.
type UserFinder interface {
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
}

type service struct {
	users  UserFinder
	logger *slog.Logger
}

// NewService creates a new auth service.
func NewService(users UserFinder, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{users: users, logger: logger}
}

func (s *service) Login(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		s.logger.Info("login failed", "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed", "reason", "password mismatch", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	return u, nil
}
