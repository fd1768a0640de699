package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"
)

type memDoc struct {
	data      json.RawMessage
	createdAt time.Time
	seq       uint64
}

func (d *memDoc) document(id string) *Document {
	return &Document{ID: id, Data: append(json.RawMessage(nil), d.data...), CreatedAt: d.createdAt}
}

// MemoryStore keeps documents in process. A transaction holds the store
// lock from begin to commit/abort, so transactions are serializable.
// Waiting for the lock gives up when ctx ends.
type MemoryStore struct {
	sem         chan struct{}
	collections map[string]map[string]*memDoc
	seq         uint64
	now         func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sem:         make(chan struct{}, 1),
		collections: make(map[string]map[string]*memDoc),
		now:         time.Now,
	}
}

func (s *MemoryStore) lock(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MemoryStore) unlock() { <-s.sem }

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()
	d, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.document(id), nil
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := encode(value)
	if err != nil {
		return err
	}
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()
	s.put(collection, id, body)
	return nil
}

// put must be called with the store lock held.
func (s *MemoryStore) put(collection, id string, body json.RawMessage) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]*memDoc)
		s.collections[collection] = docs
	}
	if existing, ok := docs[id]; ok {
		existing.data = body
		return
	}
	s.seq++
	docs[id] = &memDoc{data: body, createdAt: s.now().UTC(), seq: s.seq}
}

func (s *MemoryStore) List(ctx context.Context, collection string, q Query) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.unlock()

	type entry struct {
		id  string
		doc *memDoc
	}
	var hits []entry
	for id, d := range s.collections[collection] {
		if matches(d.data, q.Filters) {
			hits = append(hits, entry{id, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if q.NewestFirst {
			return hits[i].doc.seq > hits[j].doc.seq
		}
		return hits[i].doc.seq < hits[j].doc.seq
	})
	out := make([]*Document, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.doc.document(h.id))
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()
	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

// RunInTx must not be re-entered from fn through s itself; use tx instead.
func (s *MemoryStore) RunInTx(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	tx := &memTx{store: s, writes: make(map[string]map[string]json.RawMessage)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	// A deadline that passed while fn ran aborts the commit.
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, collection := range tx.order {
		for _, id := range tx.ids[collection] {
			s.put(collection, id, tx.writes[collection][id])
		}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// memTx buffers writes until commit. Write order is kept so documents
// created in one transaction get creation order matching their Puts.
type memTx struct {
	store  *MemoryStore
	writes map[string]map[string]json.RawMessage
	order  []string
	ids    map[string][]string
}

func (t *memTx) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if body, ok := t.writes[collection][id]; ok {
		createdAt := t.store.now().UTC()
		if d, ok := t.store.collections[collection][id]; ok {
			createdAt = d.createdAt
		}
		return &Document{ID: id, Data: append(json.RawMessage(nil), body...), CreatedAt: createdAt}, nil
	}
	d, ok := t.store.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.document(id), nil
}

func (t *memTx) Put(ctx context.Context, collection, id string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := encode(value)
	if err != nil {
		return err
	}
	if t.ids == nil {
		t.ids = make(map[string][]string)
	}
	docs, ok := t.writes[collection]
	if !ok {
		docs = make(map[string]json.RawMessage)
		t.writes[collection] = docs
		t.order = append(t.order, collection)
	}
	if _, seen := docs[id]; !seen {
		t.ids[collection] = append(t.ids[collection], id)
	}
	docs[id] = body
	return nil
}
