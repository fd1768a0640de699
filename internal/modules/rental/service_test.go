package rental

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/georgemunganga/bikeshop-backend/internal/modules/inventory"
	"github.com/georgemunganga/bikeshop-backend/internal/platform/docstore"
	"github.com/go-chi/chi/v5"
)

// Mock item lookup
type mockItems map[string]*inventory.Item

func (m mockItems) GetItem(ctx context.Context, id string) (*inventory.Item, error) {
	item, ok := m[id]
	if !ok {
		return nil, inventory.ErrNotFound
	}
	return item, nil
}

func newTestService() Service {
	items := mockItems{"bike-1": {ID: "bike-1", Name: "City Cruiser", Category: inventory.CategoryBicycle}}
	return NewService(NewRepository(docstore.NewMemoryStore()), items)
}

func validRequest() CreateRequest {
	return CreateRequest{
		ItemID:        "bike-1",
		CustomerName:  "Lee",
		CustomerEmail: "lee@example.com",
		StartDate:     "2026-11-01",
		EndDate:       "2026-11-03",
	}
}

func TestCreateRental(t *testing.T) {
	svc := newTestService()
	r, err := svc.CreateRental(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("CreateRental failed: %v", err)
	}
	if r.ID == "" || r.Status != StatusPending {
		t.Errorf("unexpected rental: %+v", r)
	}
	if r.EndDate.Sub(r.StartDate).Hours() != 48 {
		t.Errorf("expected a two-day rental, got %v", r.EndDate.Sub(r.StartDate))
	}
}

func TestCreateRental_Validation(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name   string
		mutate func(*CreateRequest)
	}{
		{"no item", func(r *CreateRequest) { r.ItemID = "" }},
		{"unknown item", func(r *CreateRequest) { r.ItemID = "ghost" }},
		{"no name", func(r *CreateRequest) { r.CustomerName = " " }},
		{"bad email", func(r *CreateRequest) { r.CustomerEmail = "lee" }},
		{"no start", func(r *CreateRequest) { r.StartDate = "" }},
		{"bad end", func(r *CreateRequest) { r.EndDate = "03/11/2026" }},
		{"end before start", func(r *CreateRequest) { r.EndDate = "2026-10-30" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			if _, err := svc.CreateRental(context.Background(), req); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}

	same := validRequest()
	same.EndDate = same.StartDate
	if _, err := svc.CreateRental(context.Background(), same); err != nil {
		t.Errorf("same-day rental should be allowed: %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	r, _ := svc.CreateRental(ctx, validRequest())

	if _, err := svc.UpdateStatus(ctx, r.ID, UpdateStatusRequest{Status: "Returned"}); !errors.Is(err, ErrTransition) {
		t.Errorf("expected ErrTransition for Pending->Returned, got %v", err)
	}
	got, err := svc.UpdateStatus(ctx, r.ID, UpdateStatusRequest{Status: "active"})
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if got.Status != StatusActive {
		t.Errorf("expected Active, got %s", got.Status)
	}
	if _, err := svc.UpdateStatus(ctx, r.ID, UpdateStatusRequest{Status: "Cancelled"}); !errors.Is(err, ErrTransition) {
		t.Errorf("expected ErrTransition for Active->Cancelled, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, r.ID, UpdateStatusRequest{Status: "Returned"}); err != nil {
		t.Errorf("expected Active->Returned to succeed: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, r.ID, UpdateStatusRequest{Status: "Lost"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown status, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "missing", UpdateStatusRequest{Status: "Active"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	first, _ := svc.CreateRental(ctx, validRequest())
	second, _ := svc.CreateRental(ctx, validRequest())

	rentals, err := svc.ListRentals(ctx, "")
	if err != nil {
		t.Fatalf("ListRentals failed: %v", err)
	}
	if len(rentals) != 2 || rentals[0].ID != second.ID {
		t.Errorf("expected newest first, got %+v", rentals)
	}
	if byItem, _ := svc.ListRentals(ctx, "other"); len(byItem) != 0 {
		t.Errorf("expected no rentals for other item, got %d", len(byItem))
	}

	if err := svc.DeleteRental(ctx, first.ID); err != nil {
		t.Fatalf("DeleteRental failed: %v", err)
	}
	if err := svc.DeleteRental(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHandler_StatusCodes(t *testing.T) {
	svc := newTestService()
	created, _ := svc.CreateRental(context.Background(), validRequest())
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"create", http.MethodPost, "/api/rentals", `{"itemId":"bike-1","customerName":"Lee","customerEmail":"lee@example.com","startDate":"2026-11-01","endDate":"2026-11-02"}`, http.StatusCreated},
		{"create invalid", http.MethodPost, "/api/rentals", `{"itemId":"bike-1"}`, http.StatusBadRequest},
		{"list", http.MethodGet, "/api/rentals", "", http.StatusOK},
		{"get", http.MethodGet, "/api/rentals/" + created.ID, "", http.StatusOK},
		{"get missing", http.MethodGet, "/api/rentals/nope", "", http.StatusNotFound},
		{"bad transition", http.MethodPut, "/api/rentals/" + created.ID + "/status", `{"status":"Returned"}`, http.StatusUnprocessableEntity},
		{"activate", http.MethodPut, "/api/rentals/" + created.ID + "/status", `{"status":"Active"}`, http.StatusOK},
		{"delete", http.MethodDelete, "/api/rentals/" + created.ID, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateStatus_ConcurrentActivations(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	r, _ := svc.CreateRental(ctx, validRequest())

	const writers = 20
	var mu sync.Mutex
	accepted := 0
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateStatus(ctx, r.ID, UpdateStatusRequest{Status: "Active"})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else if !errors.Is(err, ErrTransition) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if accepted != 1 {
		t.Errorf("expected exactly one activation, got %d", accepted)
	}
}
