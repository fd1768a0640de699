package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidStatus marks an unknown status name.
	ErrInvalidStatus = errors.New("invalid dispatch status")
	// ErrTransition marks a status change the state machine forbids.
	ErrTransition = errors.New("cannot transition dispatch record")
)

// Service defines dispatch management. Records themselves are only ever
// created by the purchase processor.
type Service interface {
	ListRecords(ctx context.Context) ([]*Record, error)
	GetRecord(ctx context.Context, id string) (*Record, error)
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Record, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new dispatch service.
func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) ListRecords(ctx context.Context) ([]*Record, error) {
	return s.repo.ListNewestFirst(ctx)
}

func (s *service) GetRecord(ctx context.Context, id string) (*Record, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Record, error) {
	next, ok := ParseStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %q (allowed: Pending, InDispatch, Delivered, Cancelled)", ErrInvalidStatus, req.Status)
	}
	return s.repo.Update(ctx, id, func(rec *Record) error {
		if !CanTransition(rec.Status, next) {
			return fmt.Errorf("%w from %s to %s", ErrTransition, rec.Status, next)
		}
		rec.Status = next
		rec.UpdatedAt = s.now().UTC()
		return nil
	})
}
