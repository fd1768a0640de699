package user

import "context"

// Service defines the interface for user-related business logic.
type Service interface {
	RegisterUser(ctx context.Context, req RegisterRequest) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	// ListUsers returns all users, or only those with role when it is set.
	ListUsers(ctx context.Context, role Role) ([]*User, error)
	DeleteUser(ctx context.Context, id string) error
}
