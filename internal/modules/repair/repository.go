package repair

import (
	"context"
	"errors"

	"github.com/georgemunganga/bikeshop-backend/internal/platform/docstore"
)

const Collection = "repairs"

var ErrNotFound = errors.New("repair request not found")

// Repository defines repair request data storage.
type Repository interface {
	Save(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id string) (*Request, error)
	// Update loads the request, applies fn and saves the result in one
	// transaction. An error from fn aborts without writing.
	Update(ctx context.Context, id string, fn func(*Request) error) (*Request, error)
	// List returns requests newest first, optionally only those in status.
	List(ctx context.Context, status Status) ([]*Request, error)
	Delete(ctx context.Context, id string) error
}

type docRepository struct{ store docstore.Store }

func NewRepository(store docstore.Store) Repository { return &docRepository{store: store} }

func (d *docRepository) Save(ctx context.Context, r *Request) error {
	return d.store.Put(ctx, Collection, r.ID, r)
}

func (d *docRepository) GetByID(ctx context.Context, id string) (*Request, error) {
	return find(ctx, d.store, id)
}

func (d *docRepository) Update(ctx context.Context, id string, fn func(*Request) error) (*Request, error) {
	var updated *Request
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

func find(ctx context.Context, s docstore.Session, id string) (*Request, error) {
	doc, err := s.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(doc)
}

func (d *docRepository) List(ctx context.Context, status Status) ([]*Request, error) {
	q := docstore.Query{NewestFirst: true}
	if status != "" {
		q.Filters = []docstore.Filter{{Field: "status", Value: string(status)}}
	}
	docs, err := d.store.List(ctx, Collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]*Request, 0, len(docs))
	for _, doc := range docs {
		r, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (d *docRepository) Delete(ctx context.Context, id string) error {
	err := d.store.Delete(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func decode(doc *docstore.Document) (*Request, error) {
	r := &Request{}
	if err := doc.Decode(r); err != nil {
		return nil, err
	}
	r.ID = doc.ID
	return r, nil
}
