package rental

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes rental HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/rentals", func(r chi.Router) {
		r.Post("/", h.createRental)           // POST   /api/rentals
		r.Get("/", h.listRentals)             // GET    /api/rentals?itemId=
		r.Get("/{id}", h.getRental)           // GET    /api/rentals/{id}
		r.Put("/{id}/status", h.updateStatus) // PUT    /api/rentals/{id}/status
		r.Delete("/{id}", h.deleteRental)     // DELETE /api/rentals/{id}
	})
}

func (h *Handler) createRental(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	rental, err := h.service.CreateRental(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, rental)
}

func (h *Handler) listRentals(w http.ResponseWriter, r *http.Request) {
	rentals, err := h.service.ListRentals(r.Context(), r.URL.Query().Get("itemId"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, rentals)
}

func (h *Handler) getRental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.service.GetRental(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, rental)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	rental, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, rental)
}

func (h *Handler) deleteRental(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRental(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "rental deleted"})
}

func respondError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalid):
		code = http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, ErrTransition):
		code = http.StatusUnprocessableEntity
	}
	respond(w, code, map[string]string{"message": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
