package auth

import (
	"context"
	"errors"

	"github.com/georgemunganga/bikeshop-backend/internal/modules/user"
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, email, password string) (*user.User, error)
}
