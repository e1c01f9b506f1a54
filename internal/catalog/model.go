package catalog

import "time"

// Category groups products for reporting.
type Category struct {
	ID          int64     `json:"category_id"`
	Name        string    `json:"category_name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is a sellable item. Cost, when present, feeds profit computation.
type Product struct {
	ID           int64     `json:"product_id"`
	Name         string    `json:"product_name"`
	CategoryID   *int64    `json:"category_id,omitempty"`
	CategoryName *string   `json:"category_name,omitempty"`
	SKU          *string   `json:"sku,omitempty"`
	Price        float64   `json:"price"`
	Cost         *float64  `json:"cost,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID *int64
	Search     string
	Limit      int
	Offset     int
}
