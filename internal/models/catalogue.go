package models

import "time"

// Vendor supplies items and receives forwarded purchase summaries.
type Vendor struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Category groups a vendor's food items.
type Category struct {
	ID        string    `db:"id" json:"id"`
	VendorID  string    `db:"vendor_id" json:"vendorId"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// FoodItem is a stock-keeping unit tracked by the stock ledger.
type FoodItem struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Unit       string    `db:"unit" json:"unit"`
	Stock      int       `db:"stock" json:"stock"`
	Vendor     string    `db:"vendor" json:"vendor"`
	CategoryID *string   `db:"category_id" json:"categoryId,omitempty"`
	Archived   bool      `db:"archived" json:"archived"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// FoodItemFilter narrows food item listings.
type FoodItemFilter struct {
	Vendor          string
	CategoryID      string
	IncludeArchived bool
}

// FoodItemUpdate is a partial write of the editable columns.
type FoodItemUpdate struct {
	Name       *string
	Unit       *string
	Vendor     *string
	CategoryID *string
	Archived   *bool
}
