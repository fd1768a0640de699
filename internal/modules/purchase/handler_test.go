package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/bikeshop-backend/internal/modules/dispatch"
	"github.com/go-chi/chi/v5"
)

// Mock purchaser
type mockPurchaser struct {
	rec *dispatch.Record
	err error
}

func (m *mockPurchaser) Process(ctx context.Context, req Request) (*dispatch.Record, error) {
	return m.rec, m.err
}

func TestHandler_StatusMapping(t *testing.T) {
	body := `{"cartItems":[{"itemId":"A","quantity":1,"price":10}],"deliveryDate":"2026-11-02","customerName":"J","customerEmail":"j@example.com"}`
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"success", body, nil, http.StatusOK},
		{"malformed body", "{", nil, http.StatusBadRequest},
		{"validation", body, NewValidationError("cartItems", "must not be empty"), http.StatusBadRequest},
		{"not found", body, NewNotFoundError("A"), http.StatusUnprocessableEntity},
		{"insufficient stock", body, NewInsufficientStockError("A", "Frame", 0, 1), http.StatusConflict},
		{"store failure", body, NewStoreError("commit", errors.New("conn reset")), http.StatusInternalServerError},
		{"timeout", body, NewStoreError("commit", context.DeadlineExceeded), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockPurchaser{err: tt.err}
			if tt.err == nil {
				m.rec = &dispatch.Record{ID: "r1", Status: dispatch.StatusPending}
			}
			r := chi.NewRouter()
			NewHandler(m).RegisterRoutes(r)

			req := httptest.NewRequest(http.MethodPost, "/api/purchase", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			var resp map[string]json.RawMessage
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if _, ok := resp["message"]; !ok {
				t.Error("response must carry a message")
			}
			if tt.want == http.StatusOK {
				if _, ok := resp["dispatchRecord"]; !ok {
					t.Error("success response must carry dispatchRecord")
				}
			}
		})
	}
}

func TestHandler_InsufficientStockMessageNamesItem(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(&mockPurchaser{err: NewInsufficientStockError("B", "Brake Pad", 0, 1)}).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodPost, "/api/purchase", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp struct {
		Message string `json:"message"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !strings.Contains(resp.Message, "Brake Pad") || !strings.Contains(resp.Message, "available 0") {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}
