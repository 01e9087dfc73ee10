package models

// StockAdjustMode selects the direction of a bulk adjustment.
type StockAdjustMode string

const (
	StockAdd      StockAdjustMode = "add"
	StockSubtract StockAdjustMode = "subtract"
)

// MaxStockQuantity bounds a single adjustment so the rounded delta fits an int.
const MaxStockQuantity = 1000000

// StockLine is one incoming adjustment matched to a food item by exact name,
// whitespace included.
type StockLine struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gte=0,lte=1000000"`
}

// StockAdjustResult reports the outcome for one adjustment line.
type StockAdjustResult struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Matched     bool    `json:"matched"`
	ItemID      string  `json:"itemId,omitempty"`
	Stock       int     `json:"stock,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// NoMatchMessage is reported for adjustment lines with no item of the same name.
const NoMatchMessage = "no match found"
