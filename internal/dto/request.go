package dto

import "github.com/noah-isme/procurement-api/internal/models"

// RejectRequest carries the admin's reason for disapproving a request.
type RejectRequest struct {
	Remark string `json:"remark" validate:"required"`
}

// ResubmitRequest is a lecturer's edit of a reviewed request. Nil fields are kept.
type ResubmitRequest struct {
	SectionA  *models.SectionA  `json:"sectionA"`
	LineItems *models.LineItems `json:"lineItems"`
}

// SubmitResult reports the outcome of one uploaded request file.
type SubmitResult struct {
	File         string `json:"file"`
	RequestID    string `json:"requestId,omitempty"`
	DownloadLink string `json:"downloadLink,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RequestListQuery captures list query parameters.
type RequestListQuery struct {
	Status          []models.RequestStatus `form:"status"`
	IncludeArchived bool                   `form:"includeArchived"`
	Limit           int                    `form:"limit"`
	Offset          int                    `form:"offset"`
}
