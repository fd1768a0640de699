package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/lib/pq"
)

// Schema creates the single documents table used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    collection TEXT        NOT NULL,
    id         TEXT        NOT NULL,
    body       JSONB       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_collection_created_idx
    ON documents (collection, created_at);`

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore keeps documents as JSONB rows. Transactions lock every row
// they read with SELECT ... FOR UPDATE, so two transactions touching the
// same document are serialised by the database.
type PostgresStore struct{ db *sql.DB }

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// OpenPostgres opens and pings a lib/pq connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

// Migrate creates the documents table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	return pgGet(ctx, s.db, collection, id, false)
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, value any) error {
	return pgPut(ctx, s.db, collection, id, value)
}

func (s *PostgresStore) List(ctx context.Context, collection string, q Query) ([]*Document, error) {
	query := `SELECT id, body, created_at FROM documents WHERE collection=$1`
	args := []any{collection}
	for _, f := range q.Filters {
		if !fieldName.MatchString(f.Field) {
			return nil, fmt.Errorf("invalid filter field %q", f.Field)
		}
		args = append(args, filterString(f.Value))
		query += fmt.Sprintf(` AND body->>'%s' = $%d`, f.Field, len(args))
	}
	if q.NewestFirst {
		query += ` ORDER BY created_at DESC, id DESC`
	} else {
		query += ` ORDER BY created_at ASC, id ASC`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()
	var docs []*Document
	for rows.Next() {
		d := &Document{}
		var body []byte
		if err := rows.Scan(&d.ID, &body, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Data = json.RawMessage(body)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection=$1 AND id=$2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn TxFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

type pgTx struct{ tx *sql.Tx }

func (t *pgTx) Get(ctx context.Context, collection, id string) (*Document, error) {
	return pgGet(ctx, t.tx, collection, id, true)
}

func (t *pgTx) Put(ctx context.Context, collection, id string, value any) error {
	return pgPut(ctx, t.tx, collection, id, value)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func pgGet(ctx context.Context, q queryer, collection, id string, lock bool) (*Document, error) {
	query := `SELECT id, body, created_at FROM documents WHERE collection=$1 AND id=$2`
	if lock {
		query += ` FOR UPDATE`
	}
	d := &Document{}
	var body []byte
	err := q.QueryRowContext(ctx, query, collection, id).Scan(&d.ID, &body, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	d.Data = json.RawMessage(body)
	return d, nil
}

func pgPut(ctx context.Context, q queryer, collection, id string, value any) error {
	body, err := encode(value)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET body=EXCLUDED.body, updated_at=NOW()`,
		collection, id, []byte(body))
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return nil
}
