package dto

// VendorRequest creates or renames a vendor.
type VendorRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// CategoryRequest creates a category under a vendor.
type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// FoodItemRequest creates a food item.
type FoodItemRequest struct {
	Name       string  `json:"name" validate:"required"`
	Unit       string  `json:"unit"`
	Stock      int     `json:"stock" validate:"gte=0"`
	Vendor     string  `json:"vendor" validate:"required"`
	CategoryID *string `json:"categoryId"`
}

// FoodItemPatch edits a food item. Nil fields are kept.
type FoodItemPatch struct {
	Name       *string `json:"name" validate:"omitempty,min=1"`
	Unit       *string `json:"unit"`
	Vendor     *string `json:"vendor" validate:"omitempty,min=1"`
	CategoryID *string `json:"categoryId"`
	Archived   *bool   `json:"archived"`
}

// MarketListResult counts what a market-list upload created.
type MarketListResult struct {
	Vendors    int      `json:"vendors"`
	Items      int      `json:"items"`
	Skipped    int      `json:"skipped"`
	SheetNames []string `json:"sheets"`
}
