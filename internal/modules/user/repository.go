package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/georgemunganga/bikeshop-backend/internal/platform/docstore"
)

const (
	// Collection is the document collection holding users.
	Collection = "users"
	// emailCollection maps a normalised email to its user id.
	emailCollection = "userEmails"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Repository defines user data storage.
type Repository interface {
	// CreateUser inserts u, failing with ErrEmailTaken if the email is in use.
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, role Role) ([]*User, error)
	DeleteUser(ctx context.Context, id string) error
}

type emailIndex struct {
	UserID string `json:"userId"`
}

type docRepository struct{ store docstore.Store }

// NewRepository returns a Repository over the document store.
func NewRepository(store docstore.Store) Repository { return &docRepository{store: store} }

func normaliseEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (r *docRepository) CreateUser(ctx context.Context, u *User) error {
	key := normaliseEmail(u.Email)
	return r.store.RunInTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
		_, err := tx.Get(ctx, emailCollection, key)
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		if err := tx.Put(ctx, emailCollection, key, emailIndex{UserID: u.ID}); err != nil {
			return err
		}
		return tx.Put(ctx, Collection, u.ID, stored{User: *u, PasswordHash: u.PasswordHash})
	})
}

func decode(doc *docstore.Document) (*User, error) {
	var s stored
	if err := doc.Decode(&s); err != nil {
		return nil, err
	}
	u := s.User
	u.ID = doc.ID
	u.PasswordHash = s.PasswordHash
	return &u, nil
}

func (r *docRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func (r *docRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	docs, err := r.store.List(ctx, Collection, docstore.Where("email", normaliseEmail(email)))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return decode(docs[0])
}

func (r *docRepository) ListUsers(ctx context.Context, role Role) ([]*User, error) {
	var q docstore.Query
	if role != "" {
		q = docstore.Where("role", string(role))
	}
	docs, err := r.store.List(ctx, Collection, q)
	if err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(docs))
	for _, d := range docs {
		u, err := decode(d)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *docRepository) DeleteUser(ctx context.Context, id string) error {
	u, err := r.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := r.store.Delete(ctx, emailCollection, normaliseEmail(u.Email)); err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("release email: %w", err)
	}
	return nil
}
