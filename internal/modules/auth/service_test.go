package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/bikeshop-backend/internal/modules/user"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

// Mock user finder
type mockUsers struct {
	users map[string]*user.User
	err   error
}

func (m *mockUsers) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func newMockUsers(t *testing.T) *mockUsers {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &mockUsers{users: map[string]*user.User{
		"sam@shop.test": {ID: "u1", Name: "Sam", Email: "sam@shop.test", PasswordHash: string(hash), Role: user.RoleEmployee},
	}}
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestLogin(t *testing.T) {
	svc := NewService(newMockUsers(t), quietLogger)
	ctx := context.Background()

	u, err := svc.Login(ctx, "sam@shop.test", "s3cret!")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("expected u1, got %s", u.ID)
	}

	if _, err := svc.Login(ctx, "sam@shop.test", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@shop.test", "s3cret!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLogin_StoreFailure(t *testing.T) {
	svc := NewService(&mockUsers{err: errors.New("store down")}, quietLogger)
	_, err := svc.Login(context.Background(), "sam@shop.test", "s3cret!")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected store error to pass through, got %v", err)
	}
}

func TestHandler_Login(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(NewService(newMockUsers(t), quietLogger)).RegisterRoutes(r)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"ok", `{"email":"sam@shop.test","password":"s3cret!"}`, http.StatusOK},
		{"wrong password", `{"email":"sam@shop.test","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"x@shop.test","password":"s3cret!"}`, http.StatusUnauthorized},
		{"missing fields", `{"email":"sam@shop.test"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want == http.StatusOK && strings.Contains(rec.Body.String(), "passwordHash") {
				t.Error("login response must not leak the password hash")
			}
		})
	}
}
