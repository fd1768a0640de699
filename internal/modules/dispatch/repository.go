package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgemunganga/bikeshop-backend/internal/platform/docstore"
)

// Collection is the document collection holding dispatch records.
const Collection = "dispatchRecords"

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("dispatch record not found")

// Repository defines data access for dispatch records.
type Repository interface {
	// ListNewestFirst returns every record, newest createdAt first.
	ListNewestFirst(ctx context.Context) ([]*Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	// Update loads the record, applies fn and saves the result in one
	// transaction. An error from fn aborts without writing.
	Update(ctx context.Context, id string, fn func(*Record) error) (*Record, error)
}

// Insert writes a new record through any session, typically the purchase
// transaction.
func Insert(ctx context.Context, s docstore.Session, r *Record) error {
	if r.ID == "" {
		return fmt.Errorf("insert dispatch record: empty id")
	}
	return s.Put(ctx, Collection, r.ID, r)
}

type docRepository struct{ store docstore.Store }

// NewRepository returns a Repository over the document store.
func NewRepository(store docstore.Store) Repository { return &docRepository{store: store} }

func (r *docRepository) ListNewestFirst(ctx context.Context) ([]*Record, error) {
	docs, err := r.store.List(ctx, Collection, docstore.Query{NewestFirst: true})
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(docs))
	for _, d := range docs {
		rec := &Record{}
		if err := d.Decode(rec); err != nil {
			return nil, err
		}
		rec.ID = d.ID
		records = append(records, rec)
	}
	return records, nil
}

func (r *docRepository) Get(ctx context.Context, id string) (*Record, error) {
	return find(ctx, r.store, id)
}

func (r *docRepository) Update(ctx context.Context, id string, fn func(*Record) error) (*Record, error) {
	var updated *Record
	err := r.store.RunInTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
		rec, err := find(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		if err := tx.Put(ctx, Collection, rec.ID, rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func find(ctx context.Context, s docstore.Session, id string) (*Record, error) {
	doc, err := s.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec := &Record{}
	if err := doc.Decode(rec); err != nil {
		return nil, err
	}
	rec.ID = doc.ID
	return rec, nil
}
