package repair

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalid    = errors.New("invalid repair request")
	ErrTransition = errors.New("cannot transition repair request")
)

// Service defines repair request business logic.
type Service interface {
	CreateRequest(ctx context.Context, req CreateRequest) (*Request, error)
	GetRequest(ctx context.Context, id string) (*Request, error)
	ListRequests(ctx context.Context, status string) ([]*Request, error)
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Request, error)
	DeleteRequest(ctx context.Context, id string) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service { return &service{repo: repo, now: time.Now} }

func (s *service) CreateRequest(ctx context.Context, req CreateRequest) (*Request, error) {
	required := []struct{ field, value string }{
		{"customerName", req.CustomerName},
		{"customerEmail", req.CustomerEmail},
		{"bikeDescription", req.BikeDescription},
		{"issue", req.Issue},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalid, f.field)
		}
	}
	if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
		return nil, fmt.Errorf("%w: customerEmail is not a valid address", ErrInvalid)
	}
	if req.PreferredDate != "" {
		if _, err := time.Parse("2006-01-02", req.PreferredDate); err != nil {
			return nil, fmt.Errorf("%w: preferredDate must be YYYY-MM-DD", ErrInvalid)
		}
	}

	now := s.now().UTC()
	r := &Request{
		ID:              uuid.NewString(),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		BikeDescription: req.BikeDescription,
		Issue:           req.Issue,
		PreferredDate:   req.PreferredDate,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) GetRequest(ctx context.Context, id string) (*Request, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListRequests(ctx context.Context, status string) ([]*Request, error) {
	if status == "" {
		return s.repo.List(ctx, "")
	}
	st, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	return s.repo.List(ctx, st)
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Request, error) {
	if req.Status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalid)
	}
	next, ok := ParseStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, req.Status)
	}

	return s.repo.Update(ctx, id, func(r *Request) error {
		if !CanTransition(r.Status, next) {
			return fmt.Errorf("%w from %s to %s", ErrTransition, r.Status, next)
		}
		r.Status = next
		r.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *service) DeleteRequest(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
