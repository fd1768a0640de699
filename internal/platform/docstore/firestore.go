package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// createdAtField is reserved in every Firestore document.
const createdAtField = "_createdAt"

// FirestoreStore maps each collection onto a Firestore collection.
// Transactions use Client.RunTransaction; Firestore retries the unit of
// work on contention, which is why TxFunc must be free of outside effects.
type FirestoreStore struct {
	client *firestore.Client
	now    func() time.Time
}

var _ Store = (*FirestoreStore)(nil)

// NewFirestoreStore wraps an existing client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client, now: time.Now}
}

// OpenFirestore creates a client. An empty credentialsFile uses ADC.
func OpenFirestore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return NewFirestoreStore(client), nil
}

func (s *FirestoreStore) ref(collection, id string) *firestore.DocumentRef {
	return s.client.Collection(collection).Doc(id)
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	snap, err := s.ref(collection, id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return snapToDocument(snap)
}

func (s *FirestoreStore) Put(ctx context.Context, collection, id string, value any) error {
	return s.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.Put(ctx, collection, id, value)
	})
}

func (s *FirestoreStore) List(ctx context.Context, collection string, q Query) ([]*Document, error) {
	query := s.client.Collection(collection).Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, "==", f.Value)
	}
	if q.NewestFirst {
		query = query.OrderBy(createdAtField, firestore.Desc)
	} else {
		query = query.OrderBy(createdAtField, firestore.Asc)
	}

	it := query.Documents(ctx)
	defer it.Stop()

	var docs []*Document
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		d, err := snapToDocument(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.ref(collection, id).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) RunInTx(ctx context.Context, fn TxFunc) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, ftx *firestore.Transaction) error {
		tx := &fsTx{store: s, tx: ftx, seen: make(map[string]*Document)}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.flush()
	})
}

func (s *FirestoreStore) Close() error { return s.client.Close() }

type fsWrite struct {
	collection, id string
	body           json.RawMessage
}

// fsTx buffers writes. Firestore rejects reads issued after a write in the
// same transaction, so every Put is held back and flushed once fn returns.
// Only the last Put per document is sent.
type fsTx struct {
	store  *FirestoreStore
	tx     *firestore.Transaction
	seen   map[string]*Document // last known state per key, nil when absent
	order  []string
	writes map[string]fsWrite
}

func key(collection, id string) string { return collection + "/" + id }

func (t *fsTx) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d, ok := t.seen[key(collection, id)]; ok {
		if d == nil {
			return nil, ErrNotFound
		}
		return &Document{ID: d.ID, Data: append(json.RawMessage(nil), d.Data...), CreatedAt: d.CreatedAt}, nil
	}
	d, err := t.read(collection, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

// read fetches through the transaction and records the result; a missing
// document is recorded as nil.
func (t *fsTx) read(collection, id string) (*Document, error) {
	snap, err := t.tx.Get(t.store.ref(collection, id))
	if status.Code(err) == codes.NotFound {
		t.seen[key(collection, id)] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	d, err := snapToDocument(snap)
	if err != nil {
		return nil, err
	}
	t.seen[key(collection, id)] = d
	return d, nil
}

func (t *fsTx) Put(ctx context.Context, collection, id string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := encode(value)
	if err != nil {
		return err
	}
	k := key(collection, id)
	var createdAt time.Time
	if prev := t.seen[k]; prev != nil {
		createdAt = prev.CreatedAt
	}
	t.seen[k] = &Document{ID: id, Data: body, CreatedAt: createdAt}
	if t.writes == nil {
		t.writes = make(map[string]fsWrite)
	}
	if _, ok := t.writes[k]; !ok {
		t.order = append(t.order, k)
	}
	t.writes[k] = fsWrite{collection: collection, id: id, body: body}
	return nil
}

func (t *fsTx) flush() error {
	// Resolve creation times first: all reads must precede the first Set.
	created := make(map[string]time.Time, len(t.order))
	for _, k := range t.order {
		w := t.writes[k]
		if d := t.seen[k]; d != nil && !d.CreatedAt.IsZero() {
			created[k] = d.CreatedAt
			continue
		}
		prev, err := t.read(w.collection, w.id)
		if err != nil {
			return err
		}
		created[k] = t.store.now().UTC()
		if prev != nil {
			created[k] = prev.CreatedAt
		}
	}
	for _, k := range t.order {
		w := t.writes[k]
		fields := map[string]any{}
		if err := json.Unmarshal(w.body, &fields); err != nil {
			return fmt.Errorf("encode %s/%s for firestore: %w", w.collection, w.id, err)
		}
		fields[createdAtField] = created[k]
		if err := t.tx.Set(t.store.ref(w.collection, w.id), fields); err != nil {
			return err
		}
	}
	return nil
}

func snapToDocument(snap *firestore.DocumentSnapshot) (*Document, error) {
	fields := snap.Data()
	var createdAt time.Time
	if ts, ok := fields[createdAtField].(time.Time); ok {
		createdAt = ts
	} else {
		createdAt = snap.CreateTime
	}
	delete(fields, createdAtField)
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("decode firestore document %s: %w", snap.Ref.ID, err)
	}
	return &Document{ID: snap.Ref.ID, Data: body, CreatedAt: createdAt}, nil
}
