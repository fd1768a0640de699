package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgemunganga/bikeshop-backend/internal/platform/docstore"
)

// Collection is the document collection holding items.
const Collection = "items"

// ErrNotFound is returned when no item has the requested id.
var ErrNotFound = errors.New("item not found")

// Repository defines item data storage.
type Repository interface {
	Get(ctx context.Context, id string) (*Item, error)
	List(ctx context.Context, f ListFilter) ([]*Item, error)
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
}

// Find loads an item through any session, including a transaction.
func Find(ctx context.Context, s docstore.Session, id string) (*Item, error) {
	doc, err := s.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	item := &Item{}
	if err := doc.Decode(item); err != nil {
		return nil, err
	}
	item.ID = doc.ID
	return item, nil
}

// Save writes an item through any session, including a transaction.
func Save(ctx context.Context, s docstore.Session, item *Item) error {
	if item.ID == "" {
		return fmt.Errorf("save item: empty id")
	}
	return s.Put(ctx, Collection, item.ID, item)
}

type docRepository struct{ store docstore.Store }

// NewRepository returns a Repository over the document store.
func NewRepository(store docstore.Store) Repository { return &docRepository{store: store} }

func (r *docRepository) Get(ctx context.Context, id string) (*Item, error) {
	return Find(ctx, r.store, id)
}

func (r *docRepository) List(ctx context.Context, f ListFilter) ([]*Item, error) {
	var q docstore.Query
	if f.Category != "" {
		q.Filters = append(q.Filters, docstore.Filter{Field: "category", Value: f.Category})
	}
	if f.Brand != "" {
		q.Filters = append(q.Filters, docstore.Filter{Field: "brand", Value: f.Brand})
	}
	if f.Type != "" {
		q.Filters = append(q.Filters, docstore.Filter{Field: "type", Value: f.Type})
	}
	docs, err := r.store.List(ctx, Collection, q)
	if err != nil {
		return nil, err
	}
	items := make([]*Item, 0, len(docs))
	for _, d := range docs {
		item := &Item{}
		if err := d.Decode(item); err != nil {
			return nil, err
		}
		item.ID = d.ID
		items = append(items, item)
	}
	return items, nil
}

func (r *docRepository) Save(ctx context.Context, item *Item) error {
	return Save(ctx, r.store, item)
}

func (r *docRepository) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
