package rental

import (
	"context"
	"errors"

	"github.com/georgemunganga/bikeshop-backend/internal/platform/docstore"
)

// Collection is the document collection holding rentals.
const Collection = "rentals"

// ErrNotFound is returned when no rental has the requested id.
var ErrNotFound = errors.New("rental not found")

// Repository defines rental data storage.
type Repository interface {
	Create(ctx context.Context, r *Rental) error
	GetByID(ctx context.Context, id string) (*Rental, error)
	// List returns rentals newest first, optionally only those for itemID.
	List(ctx context.Context, itemID string) ([]*Rental, error)
	// Update loads the rental, applies fn and saves the result in one
	// transaction. An error from fn aborts without writing.
	Update(ctx context.Context, id string, fn func(*Rental) error) (*Rental, error)
	Delete(ctx context.Context, id string) error
}

type docRepository struct{ store docstore.Store }

// NewRepository returns a Repository over the document store.
func NewRepository(store docstore.Store) Repository { return &docRepository{store: store} }

func (d *docRepository) Create(ctx context.Context, r *Rental) error {
	return d.store.Put(ctx, Collection, r.ID, r)
}

func (d *docRepository) GetByID(ctx context.Context, id string) (*Rental, error) {
	return find(ctx, d.store, id)
}

func find(ctx context.Context, s docstore.Session, id string) (*Rental, error) {
	doc, err := s.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r := &Rental{}
	if err := doc.Decode(r); err != nil {
		return nil, err
	}
	r.ID = doc.ID
	return r, nil
}

func (d *docRepository) List(ctx context.Context, itemID string) ([]*Rental, error) {
	q := docstore.Query{NewestFirst: true}
	if itemID != "" {
		q.Filters = []docstore.Filter{{Field: "itemId", Value: itemID}}
	}
	docs, err := d.store.List(ctx, Collection, q)
	if err != nil {
		return nil, err
	}
	rentals := make([]*Rental, 0, len(docs))
	for _, doc := range docs {
		r := &Rental{}
		if err := doc.Decode(r); err != nil {
			return nil, err
		}
		r.ID = doc.ID
		rentals = append(rentals, r)
	}
	return rentals, nil
}

func (d *docRepository) Update(ctx context.Context, id string, fn func(*Rental) error) (*Rental, error) {
	var updated *Rental
	err := d.store.RunInTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
		r, err := find(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
		if err := tx.Put(ctx, Collection, r.ID, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (d *docRepository) Delete(ctx context.Context, id string) error {
	err := d.store.Delete(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
