package repair

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of a repair request.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

var validTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

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

// Request is a customer's repair order.
type Request struct {
	ID              string    `json:"_id"`
	CustomerName    string    `json:"customerName"`
	CustomerEmail   string    `json:"customerEmail"`
	CustomerPhone   string    `json:"customerPhone,omitempty"`
	BikeDescription string    `json:"bikeDescription"`
	Issue           string    `json:"issue"`
	PreferredDate   string    `json:"preferredDate,omitempty"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateRequest is the payload for filing a repair request.
type CreateRequest struct {
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone,omitempty"`
	BikeDescription string `json:"bikeDescription"`
	Issue           string `json:"issue"`
	PreferredDate   string `json:"preferredDate,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
