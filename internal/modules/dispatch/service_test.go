package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/georgemunganga/bikeshop-backend/internal/platform/docstore"
)

func seedRecord(t *testing.T, store docstore.Store, id string, status Status) *Record {
	t.Helper()
	rec := &Record{
		ID:              id,
		Items:           []Line{{ItemID: "a", Name: "Frame", Quantity: 1, PriceAtPurchase: 100}},
		TotalAmount:     100,
		DeliveryDate:    "2026-11-01",
		CustomerDetails: CustomerDetails{Name: "Ada", Email: "ada@example.com"},
		Status:          status,
		CreatedAt:       time.Now().UTC(),
	}
	if err := Insert(context.Background(), store, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return rec
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusInDispatch, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusInDispatch, StatusDelivered, true},
		{StatusInDispatch, StatusCancelled, true},
		{StatusInDispatch, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" indispatch "); !ok || s != StatusInDispatch {
		t.Errorf("expected InDispatch, got %q %v", s, ok)
	}
	if _, ok := ParseStatus("Shipped"); ok {
		t.Error("expected unknown status to be rejected")
	}
}

func TestListRecords_NewestFirst(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := NewService(NewRepository(store))
	seedRecord(t, store, "first", StatusPending)
	seedRecord(t, store, "second", StatusPending)
	seedRecord(t, store, "third", StatusPending)

	records, err := svc.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ID != "third" || records[2].ID != "first" {
		t.Errorf("expected newest first, got %s..%s", records[0].ID, records[2].ID)
	}
}

func TestUpdateStatus(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := NewService(NewRepository(store))
	ctx := context.Background()
	seedRecord(t, store, "r1", StatusPending)

	rec, err := svc.UpdateStatus(ctx, "r1", UpdateStatusRequest{Status: "InDispatch"})
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if rec.Status != StatusInDispatch || rec.UpdatedAt.IsZero() {
		t.Errorf("unexpected record after update: %+v", rec)
	}
	if len(rec.Items) != 1 || rec.Items[0].PriceAtPurchase != 100 {
		t.Errorf("status update must not touch lines: %+v", rec.Items)
	}

	if _, err := svc.UpdateStatus(ctx, "r1", UpdateStatusRequest{Status: "Pending"}); !errors.Is(err, ErrTransition) {
		t.Errorf("expected ErrTransition, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "r1", UpdateStatusRequest{Status: "Lost"}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "nope", UpdateStatusRequest{Status: "Cancelled"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got, _ := svc.GetRecord(ctx, "r1")
	if got.Status != StatusInDispatch {
		t.Errorf("expected persisted InDispatch, got %s", got.Status)
	}
}

func TestUpdateStatus_ConcurrentSameTarget(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := NewService(NewRepository(store))
	seedRecord(t, store, "r1", StatusPending)

	const writers = 20
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.UpdateStatus(context.Background(), "r1", UpdateStatusRequest{Status: "Cancelled"})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case !errors.Is(err, ErrTransition):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if accepted != 1 {
		t.Errorf("expected exactly one accepted cancellation, got %d", accepted)
	}
}

func TestUpdateStatus_CancelledStaysTerminal(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := NewService(NewRepository(store))
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("r%d", i)
		seedRecord(t, store, id, StatusPending)

		var cancelErr, dispatchErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancelErr = svc.UpdateStatus(ctx, id, UpdateStatusRequest{Status: "Cancelled"})
		}()
		go func() {
			defer wg.Done()
			_, dispatchErr = svc.UpdateStatus(ctx, id, UpdateStatusRequest{Status: "InDispatch"})
		}()
		wg.Wait()

		got, err := svc.GetRecord(ctx, id)
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if cancelErr == nil && got.Status != StatusCancelled {
			t.Fatalf("%s: cancellation accepted but final status is %s (dispatch err: %v)", id, got.Status, dispatchErr)
		}
		if cancelErr != nil && dispatchErr != nil {
			t.Fatalf("%s: both updates rejected: %v / %v", id, cancelErr, dispatchErr)
		}
	}
}
