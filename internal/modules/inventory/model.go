package inventory

import "time"

// Category is the fixed set of item kinds the shop sells.
type Category string

const (
	CategoryBicycle Category = "Bicycle"
	CategoryPart    Category = "Part"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryBicycle || c == CategoryPart
}

// Item is a sellable bicycle or part. Stock never goes below zero.
type Item struct {
	ID            string    `json:"_id"`
	Name          string    `json:"name"`
	Category      Category  `json:"category"`
	Price         float64   `json:"price"`
	Stock         int       `json:"stock"`
	Brand         string    `json:"brand,omitempty"`
	Type          string    `json:"type,omitempty"`     // bicycle type, e.g. Road, Mountain
	PartType      string    `json:"partType,omitempty"` // part type, e.g. Brake, Chain
	Compatibility string    `json:"compatibility,omitempty"`
	Image         string    `json:"image,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ItemRequest holds the editable fields of an item.
type ItemRequest struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	Stock         int     `json:"stock"`
	Brand         string  `json:"brand"`
	Type          string  `json:"type"`
	PartType      string  `json:"partType"`
	Compatibility string  `json:"compatibility"`
	Image         string  `json:"image"`
}

// ListFilter narrows List by equality on the non-empty fields.
type ListFilter struct {
	Category string
	Brand    string
	Type     string
}
