// Package docstore is a small transactional document store. Documents are
// JSON values addressed by (collection, id). Three backends implement the
// Store interface: an in-process memory store, PostgreSQL (JSONB) and
// Firestore.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Document is a stored JSON value with its identity and creation time.
type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
}

// Decode unmarshals the document body into dst.
func (d *Document) Decode(dst any) error {
	if err := json.Unmarshal(d.Data, dst); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// Filter is an equality predicate on a top-level JSON field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents of a collection. Filters are ANDed. Results are
// ordered by creation time, oldest first unless NewestFirst is set.
type Query struct {
	Filters     []Filter
	NewestFirst bool
}

// Where returns a query with a single equality filter.
func Where(field string, value any) Query {
	return Query{Filters: []Filter{{Field: field, Value: value}}}
}

// Session is the read/write surface shared by a Store and a Tx, so typed
// repositories can run either inside or outside a transaction.
type Session interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Put(ctx context.Context, collection, id string, value any) error
}

// Tx is a transaction-scoped session. Reads observe the transaction's own
// writes; nothing is visible to other sessions until commit.
type Tx interface {
	Session
}

// TxFunc is the unit of work run by RunInTx.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the external transactional document store.
type Store interface {
	Session
	List(ctx context.Context, collection string, q Query) ([]*Document, error)
	Delete(ctx context.Context, collection, id string) error

	// RunInTx commits when fn returns nil and aborts otherwise. The
	// transaction is always released before RunInTx returns. fn may be
	// retried by backends with optimistic concurrency, so it must not have
	// side effects outside tx.
	RunInTx(ctx context.Context, fn TxFunc) error

	Close() error
}

// encode turns value into a JSON object body.
func encode(value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

// matches reports whether body satisfies every filter. Values are compared
// by their string form so the memory backend agrees with postgres `->>`.
func matches(body json.RawMessage, filters []Filter) bool {
	if len(filters) == 0 {
		return true
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok || v == nil {
			return false
		}
		if filterString(v) != filterString(f.Value) {
			return false
		}
	}
	return true
}

func filterString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
