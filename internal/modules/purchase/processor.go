package purchase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/georgemunganga/bikeshop-backend/internal/modules/dispatch"
	"github.com/georgemunganga/bikeshop-backend/internal/modules/inventory"
	"github.com/georgemunganga/bikeshop-backend/internal/platform/docstore"
	"github.com/google/uuid"
)

// DefaultTxTimeout bounds a purchase transaction when none is configured.
const DefaultTxTimeout = 5 * time.Second

// Recorder receives one observation per purchase attempt.
type Recorder interface {
	ObservePurchase(outcome string, d time.Duration)
}

// Invalidator drops cached item copies after a commit.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...string)
}

// Processor atomically deducts stock and creates the dispatch record for
// a purchase.
type Processor struct {
	store     docstore.Store
	txTimeout time.Duration
	cache     Invalidator
	metrics   Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithTxTimeout overrides DefaultTxTimeout. Non-positive values are ignored.
func WithTxTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.txTimeout = d
		}
	}
}

func WithInvalidator(c Invalidator) Option { return func(p *Processor) { p.cache = c } }

func WithRecorder(r Recorder) Option { return func(p *Processor) { p.metrics = r } }

func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProcessor creates a processor over the transactional store.
func NewProcessor(store docstore.Store, opts ...Option) *Processor {
	p := &Processor{
		store:     store,
		txTimeout: DefaultTxTimeout,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates req, then in one transaction checks and decrements the
// stock of every line in order and inserts the dispatch record. The first
// failing line aborts the whole transaction.
func (p *Processor) Process(ctx context.Context, req Request) (*dispatch.Record, error) {
	start := p.now()
	rec, err := p.process(ctx, req)
	p.observe(err, p.now().Sub(start), rec)
	return rec, err
}

func (p *Processor) process(ctx context.Context, req Request) (*dispatch.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.txTimeout)
	defer cancel()

	var record *dispatch.Record
	touched := make([]string, 0, len(req.CartItems))

	err := p.store.RunInTx(ctx, func(ctx context.Context, tx docstore.Tx) error {
		// fn may be retried by optimistic backends; start from scratch.
		record = nil
		touched = touched[:0]

		lines := make([]dispatch.Line, 0, len(req.CartItems))
		var total float64
		for _, cl := range req.CartItems {
			item, err := inventory.Find(ctx, tx, cl.ItemID)
			if errors.Is(err, inventory.ErrNotFound) {
				return NewNotFoundError(cl.ItemID)
			}
			if err != nil {
				return NewStoreError("read item", err)
			}
			if item.Stock < cl.Quantity {
				return NewInsufficientStockError(item.ID, item.Name, item.Stock, cl.Quantity)
			}
			item.Stock -= cl.Quantity
			item.UpdatedAt = p.now().UTC()
			if err := inventory.Save(ctx, tx, item); err != nil {
				return NewStoreError("write item", err)
			}
			touched = append(touched, item.ID)

			lines = append(lines, dispatch.Line{
				ItemID:          item.ID,
				Name:            item.Name,
				Quantity:        cl.Quantity,
				PriceAtPurchase: cl.Price,
			})
			total += float64(cl.Quantity) * cl.Price
		}

		now := p.now().UTC()
		rec := &dispatch.Record{
			ID:           uuid.NewString(),
			Items:        lines,
			TotalAmount:  round2(total),
			DeliveryDate: strings.TrimSpace(req.DeliveryDate),
			CustomerDetails: dispatch.CustomerDetails{
				Name:    strings.TrimSpace(req.CustomerName),
				Email:   strings.TrimSpace(req.CustomerEmail),
				Address: strings.TrimSpace(req.CustomerAddress),
			},
			Status:    dispatch.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := dispatch.Insert(ctx, tx, rec); err != nil {
			return NewStoreError("insert dispatch record", err)
		}
		record = rec
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if p.cache != nil {
		// The transaction is committed; ctx may be close to its deadline.
		p.cache.Invalidate(context.WithoutCancel(ctx), touched...)
	}
	return record, nil
}

// classify keeps typed errors from fn and wraps everything else, such as a
// failed commit, as a StoreError.
func classify(err error) error {
	if KindOf(err) != KindStore {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		if !se.Retryable && errors.Is(err, context.DeadlineExceeded) {
			se.Retryable = true
		}
		return se
	}
	return NewStoreError("commit", err)
}

func (p *Processor) observe(err error, d time.Duration, rec *dispatch.Record) {
	kind := KindOf(err)
	if p.metrics != nil {
		p.metrics.ObservePurchase(string(kind), d)
	}
	switch kind {
	case KindNone:
		p.logger.Info("purchase committed",
			"dispatch_id", rec.ID, "lines", len(rec.Items), "total", rec.TotalAmount, "duration", d)
	case KindStore:
		p.logger.Error("purchase aborted", "kind", kind, "retryable", IsRetryable(err), "error", err)
	default:
		p.logger.Warn("purchase rejected", "kind", kind, "error", err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
