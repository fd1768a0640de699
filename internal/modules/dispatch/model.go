package dispatch

import (
	"strings"
	"time"
)

// Status represents the delivery lifecycle of a dispatch record.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInDispatch Status = "InDispatch"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// validTransitions defines the allowed delivery state machine.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusInDispatch, StatusCancelled},
	StatusInDispatch: {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
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

// Line is an immutable snapshot of one purchased cart line. It keeps the
// item id for traceability only; later catalog edits never touch it.
type Line struct {
	ItemID          string  `json:"itemId"`
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
}

// CustomerDetails identifies who receives the delivery.
type CustomerDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
}

// Record is created once per successful purchase.
type Record struct {
	ID              string          `json:"_id"`
	Items           []Line          `json:"items"`
	TotalAmount     float64         `json:"totalAmount"`
	DeliveryDate    string          `json:"deliveryDate"`
	CustomerDetails CustomerDetails `json:"customerDetails"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// UpdateStatusRequest is the payload for advancing a record's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
