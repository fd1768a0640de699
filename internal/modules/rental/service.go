package rental

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/georgemunganga/bikeshop-backend/internal/modules/inventory"
	"github.com/google/uuid"
)

var (
	// ErrInvalid marks a request rejected by validation.
	ErrInvalid = errors.New("invalid rental")
	// ErrTransition marks a status change the state machine forbids.
	ErrTransition = errors.New("cannot transition rental")
)

// ItemLookup resolves the rented item. inventory.Service satisfies it.
type ItemLookup interface {
	GetItem(ctx context.Context, id string) (*inventory.Item, error)
}

// Service defines rental business logic.
type Service interface {
	CreateRental(ctx context.Context, req CreateRequest) (*Rental, error)
	GetRental(ctx context.Context, id string) (*Rental, error)
	ListRentals(ctx context.Context, itemID string) ([]*Rental, error)
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Rental, error)
	DeleteRental(ctx context.Context, id string) error
}

type service struct {
	repo  Repository
	items ItemLookup
	now   func() time.Time
}

// NewService creates a new rental service. A nil items skips the check
// that the rented item exists.
func NewService(repo Repository, items ItemLookup) Service {
	return &service{repo: repo, items: items, now: time.Now}
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrInvalid, field)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", ErrInvalid, field)
}

func (s *service) CreateRental(ctx context.Context, req CreateRequest) (*Rental, error) {
	if strings.TrimSpace(req.ItemID) == "" {
		return nil, fmt.Errorf("%w: itemId is required", ErrInvalid)
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customerName is required", ErrInvalid)
	}
	if _, err := mail.ParseAddress(req.CustomerEmail); err != nil {
		return nil, fmt.Errorf("%w: customerEmail is not a valid address", ErrInvalid)
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: endDate must not be before startDate", ErrInvalid)
	}

	if s.items != nil {
		if _, err := s.items.GetItem(ctx, req.ItemID); err != nil {
			if errors.Is(err, inventory.ErrNotFound) {
				return nil, fmt.Errorf("%w: item %s does not exist", ErrInvalid, req.ItemID)
			}
			return nil, err
		}
	}

	now := s.now().UTC()
	r := &Rental{
		ID:            uuid.NewString(),
		ItemID:        req.ItemID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		StartDate:     start,
		EndDate:       end,
		Status:        StatusPending,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *service) GetRental(ctx context.Context, id string) (*Rental, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListRentals(ctx context.Context, itemID string) ([]*Rental, error) {
	return s.repo.List(ctx, itemID)
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Rental, error) {
	next, ok := ParseStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, req.Status)
	}

	return s.repo.Update(ctx, id, func(r *Rental) error {
		if !CanTransition(r.Status, next) {
			return fmt.Errorf("%w from %s to %s", ErrTransition, r.Status, next)
		}
		r.Status = next
		r.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *service) DeleteRental(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
