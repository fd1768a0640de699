package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/georgemunganga/bikeshop-backend/internal/platform/cache"
	"github.com/google/uuid"
)

// ErrInvalid marks a request rejected by validation.
var ErrInvalid = errors.New("invalid item")

// Service defines inventory business logic.
type Service interface {
	CreateItem(ctx context.Context, req ItemRequest) (*Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context, f ListFilter) ([]*Item, error)
	UpdateItem(ctx context.Context, id string, req ItemRequest) (*Item, error)
	DeleteItem(ctx context.Context, id string) error

	// Invalidate drops cached copies after the items changed elsewhere,
	// e.g. a committed purchase.
	Invalidate(ctx context.Context, ids ...string)
}

type service struct {
	repo   Repository
	cache  cache.Cache
	logger *slog.Logger
	now    func() time.Time

	// fill serialises cache writes against invalidation. gen is bumped by
	// every invalidation; a read that started under an older gen may hold
	// pre-commit data and is not cached.
	fill sync.Mutex
	gen  uint64
}

// NewService creates a new inventory service. A nil cache disables caching.
func NewService(repo Repository, c cache.Cache, logger *slog.Logger) Service {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, cache: c, logger: logger, now: time.Now}
}

func validate(req ItemRequest) (Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalid)
	}
	category := Category(req.Category)
	if !category.Valid() {
		return "", fmt.Errorf("%w: category must be one of Bicycle, Part (got %q)", ErrInvalid, req.Category)
	}
	if req.Price < 0 {
		return "", fmt.Errorf("%w: price must be non-negative", ErrInvalid)
	}
	if req.Stock < 0 {
		return "", fmt.Errorf("%w: stock must be non-negative", ErrInvalid)
	}
	return category, nil
}

func (s *service) CreateItem(ctx context.Context, req ItemRequest) (*Item, error) {
	category, err := validate(req)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	item := &Item{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	apply(item, req, category, now)
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to persist item: %w", err)
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id string) (*Item, error) {
	var cached Item
	found, err := s.cache.Get(ctx, id, &cached)
	if err != nil {
		s.logger.Warn("item cache read failed", "item_id", id, "error", err)
	}
	if found {
		return &cached, nil
	}

	s.fill.Lock()
	gen := s.gen
	s.fill.Unlock()

	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.fill.Lock()
	defer s.fill.Unlock()
	if s.gen != gen {
		s.logger.Debug("item cache fill skipped after invalidation", "item_id", id)
		return item, nil
	}
	if err := s.cache.Set(ctx, id, item); err != nil {
		s.logger.Warn("item cache write failed", "item_id", id, "error", err)
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, f ListFilter) ([]*Item, error) {
	return s.repo.List(ctx, f)
}

func (s *service) UpdateItem(ctx context.Context, id string, req ItemRequest) (*Item, error) {
	category, err := validate(req)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(item, req, category, s.now().UTC())
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.Invalidate(ctx, id)
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.Invalidate(ctx, id)
	return nil
}

func (s *service) Invalidate(ctx context.Context, ids ...string) {
	s.fill.Lock()
	defer s.fill.Unlock()
	s.gen++
	if err := s.cache.Delete(ctx, ids...); err != nil {
		s.logger.Warn("item cache invalidation failed", "item_ids", ids, "error", err)
	}
}

func apply(item *Item, req ItemRequest, category Category, now time.Time) {
	item.Name = strings.TrimSpace(req.Name)
	item.Category = category
	item.Price = req.Price
	item.Stock = req.Stock
	item.Brand = req.Brand
	item.Type = req.Type
	item.PartType = req.PartType
	item.Compatibility = req.Compatibility
	item.Image = req.Image
	item.UpdatedAt = now
}
