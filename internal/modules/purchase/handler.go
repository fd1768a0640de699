package purchase

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/georgemunganga/bikeshop-backend/internal/modules/dispatch"
	"github.com/go-chi/chi/v5"
)

// Purchaser is the checkout use case consumed by the handler.
type Purchaser interface {
	Process(ctx context.Context, req Request) (*dispatch.Record, error)
}

// Handler exposes the checkout endpoint.
type Handler struct{ purchaser Purchaser }

func NewHandler(p Purchaser) *Handler { return &Handler{purchaser: p} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/purchase", h.purchase) // POST /api/purchase
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": "invalid request body: " + err.Error()})
		return
	}
	rec, err := h.purchaser.Process(r.Context(), req)
	if err != nil {
		respond(w, StatusCode(err), map[string]string{"message": "purchase failed: " + err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message":        "purchase successful",
		"dispatchRecord": rec,
	})
}

// StatusCode maps a purchase failure to its HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindNone:
		return http.StatusOK
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusUnprocessableEntity
	case KindInsufficientStock:
		return http.StatusConflict
	}
	if IsRetryable(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
