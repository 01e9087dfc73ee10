package dto

import "github.com/noah-isme/procurement-api/internal/models"

// EmailItem is one summary line. The header context is read from the first item only.
type EmailItem struct {
	Description string           `json:"description" validate:"required"`
	Quantity    float64          `json:"quantity" validate:"gte=0"`
	SectionA    *models.SectionA `json:"sectionA"`
}

// SendEmailRequest renders items into a summary PDF and mails it.
type SendEmailRequest struct {
	Recipient string      `json:"recipient" validate:"required,email"`
	Subject   string      `json:"subject"`
	Items     []EmailItem `json:"items" validate:"required,min=1,dive"`
}

// StatusRow is one line of the HTML status table. No is assigned on render.
type StatusRow struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity"`
}

// SendNotificationsRequest mails an inline status summary.
type SendNotificationsRequest struct {
	Recipient   string      `json:"recipient" validate:"required,email"`
	Status      string      `json:"status" validate:"required"`
	RequestInfo []StatusRow `json:"requestInfo" validate:"dive"`
}

// UpdateEnvRequest is accepted for compatibility and never applied.
type UpdateEnvRequest struct {
	Email       string `json:"email"`
	AppPassword string `json:"appPassword"`
}

// ForwardRequest selects the vendor that receives the aggregated summary.
type ForwardRequest struct {
	VendorID string `json:"vendorId" validate:"required"`
}

// ForwardResult summarises a forwarding run.
type ForwardResult struct {
	VendorID  string  `json:"vendorId"`
	Recipient string  `json:"recipient"`
	Requests  int     `json:"requests"`
	Items     int     `json:"items"`
	Total     float64 `json:"total"`
}
