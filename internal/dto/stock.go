package dto

import "github.com/noah-isme/procurement-api/internal/models"

// SetStockRequest carries the raw text typed into the stock field.
type SetStockRequest struct {
	Value string `json:"value" validate:"required"`
}

// StepStockRequest nudges stock by one unit in either direction.
type StepStockRequest struct {
	Delta int `json:"delta" validate:"oneof=-1 1"`
}

// BulkStockRequest applies many adjustment lines in one call.
type BulkStockRequest struct {
	Mode  models.StockAdjustMode `json:"mode" form:"mode" validate:"required,oneof=add subtract"`
	Lines []models.StockLine     `json:"lines" validate:"required,min=1,dive"`
}

// StockResponse is the post-write stock of one item.
type StockResponse struct {
	ID    string `json:"id"`
	Stock int    `json:"stock"`
}
