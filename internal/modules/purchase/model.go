package purchase

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"
)

// CartLine is one requested (item, quantity, price) tuple. It lives only
// for the duration of one purchase request.
type CartLine struct {
	ItemID   string  `json:"itemId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// UnmarshalJSON accepts the item reference as either itemId or _id.
func (l *CartLine) UnmarshalJSON(b []byte) error {
	var raw struct {
		ItemID   string  `json:"itemId"`
		DocID    string  `json:"_id"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	l.ItemID = raw.ItemID
	if l.ItemID == "" {
		l.ItemID = raw.DocID
	}
	l.Quantity = raw.Quantity
	l.Price = raw.Price
	return nil
}

// Request is the checkout payload.
type Request struct {
	CartItems       []CartLine `json:"cartItems"`
	DeliveryDate    string     `json:"deliveryDate"`
	CustomerName    string     `json:"customerName"`
	CustomerEmail   string     `json:"customerEmail"`
	CustomerAddress string     `json:"customerAddress,omitempty"`
}

var deliveryDateLayouts = []string{"2006-01-02", time.RFC3339}

// Validate rejects malformed requests. It never touches the store.
func (r *Request) Validate() error {
	if len(r.CartItems) == 0 {
		return NewValidationError("cartItems", "must not be empty")
	}
	var total float64
	for i, l := range r.CartItems {
		field := fmt.Sprintf("cartItems[%d]", i)
		if strings.TrimSpace(l.ItemID) == "" {
			return NewValidationError(field+".itemId", "is required")
		}
		if l.Quantity <= 0 {
			return NewValidationError(field+".quantity", "must be a positive integer")
		}
		if l.Price < 0 || math.IsNaN(l.Price) || math.IsInf(l.Price, 0) {
			return NewValidationError(field+".price", "must be a non-negative number")
		}
		total += float64(l.Quantity) * l.Price
	}
	if math.IsInf(total, 0) {
		return NewValidationError("cartItems", "total amount is too large")
	}
	if strings.TrimSpace(r.DeliveryDate) == "" {
		return NewValidationError("deliveryDate", "is required")
	}
	if !parsesDate(strings.TrimSpace(r.DeliveryDate)) {
		return NewValidationError("deliveryDate", "must be YYYY-MM-DD or RFC 3339")
	}
	if strings.TrimSpace(r.CustomerName) == "" {
		return NewValidationError("customerName", "is required")
	}
	if strings.TrimSpace(r.CustomerEmail) == "" {
		return NewValidationError("customerEmail", "is required")
	}
	if _, err := mail.ParseAddress(r.CustomerEmail); err != nil {
		return NewValidationError("customerEmail", "is not a valid address")
	}
	return nil
}

func parsesDate(s string) bool {
	for _, layout := range deliveryDateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
