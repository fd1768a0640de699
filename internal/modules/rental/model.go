package rental

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of a rental.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusActive    Status = "Active"
	StatusReturned  Status = "Returned"
	StatusCancelled Status = "Cancelled"
)

// validTransitions defines the allowed state machine transitions for rentals.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusActive, StatusCancelled},
	StatusActive:    {StatusReturned},
	StatusReturned:  {},
	StatusCancelled: {},
}

// ParseStatus accepts a status name in any letter case.
func ParseStatus(s string) (Status, bool) {
	for st := range validTransitions {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

// CanTransition returns true if the transition from current to next is valid.
func CanTransition(current, next Status) bool {
	for _, s := range validTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// Rental is a booking of one bicycle for a date range.
type Rental struct {
	ID            string    `json:"_id"`
	ItemID        string    `json:"itemId"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	Status        Status    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateRequest is the payload for booking a rental. Dates are
// YYYY-MM-DD or RFC 3339.
type CreateRequest struct {
	ItemID        string `json:"itemId"`
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone,omitempty"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Notes         string `json:"notes,omitempty"`
}

// UpdateStatusRequest is the payload for advancing a rental's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
