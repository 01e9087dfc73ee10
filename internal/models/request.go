package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/noah-isme/procurement-api/pkg/spreadsheet"
)

// RequestStatus captures workflow states for item requests.
type RequestStatus string

const (
	StatusPending          RequestStatus = "Pending"
	StatusAdminApproved    RequestStatus = "AdminApproved"
	StatusAdminDisapproved RequestStatus = "AdminDisapproved"

	// Display-only states. No operation writes them.
	StatusSentToVendor      RequestStatus = "SentToVendor"
	StatusQuotationReceived RequestStatus = "QuotationReceived"
	StatusRequestSuccessful RequestStatus = "RequestSuccessful"
)

// SectionA is the named header metadata of a request.
type SectionA struct {
	DeliveryDate string `json:"deliveryDate"`
	Project      string `json:"project"`
	Requester    string `json:"requester"`
	PICContact   string `json:"picContact"`
	Department   string `json:"department"`
	Entity       string `json:"entity"`
}

// Scan implements sql.Scanner.
func (s *SectionA) Scan(src interface{}) error { return scanJSON(src, s) }

// Value implements driver.Valuer.
func (s SectionA) Value() (driver.Value, error) { return valueJSON(s) }

// HeaderField is one raw label/value row of the uploaded header block.
type HeaderField struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

// HeaderFields keeps the header block in sheet order.
type HeaderFields []HeaderField

// Scan implements sql.Scanner.
func (h *HeaderFields) Scan(src interface{}) error { return scanJSON(src, h) }

// Value implements driver.Valuer.
func (h HeaderFields) Value() (driver.Value, error) {
	if h == nil {
		h = HeaderFields{}
	}
	return valueJSON(h)
}

// Column aliases accepted in uploaded templates.
var (
	descriptionColumns = []string{"Item Description", "Description", "Item", "Items"}
	quantityColumns    = []string{"Quantity", "Qty", "Stocks"}
	unitColumns        = []string{"Unit", "UOM"}
	vendorColumns      = []string{spreadsheet.SuggestedVendorColumn, "Vendor"}
	deliveryColumns    = []string{"Delivery Date"}
)

// LineItem is one row of the requested item table keyed by column header.
type LineItem map[string]interface{}

func (l LineItem) first(keys []string) interface{} {
	for _, k := range keys {
		if v, ok := l[k]; ok && !spreadsheet.IsEmpty(v) {
			return v
		}
	}
	return nil
}

// Description returns the trimmed item name.
func (l LineItem) Description() string {
	return strings.TrimSpace(spreadsheet.Text(l.first(descriptionColumns)))
}

// Quantity returns the numeric quantity when present.
func (l LineItem) Quantity() (float64, bool) {
	return spreadsheet.Number(l.first(quantityColumns))
}

// Unit returns the unit of measure.
func (l LineItem) Unit() string {
	return strings.TrimSpace(spreadsheet.Text(l.first(unitColumns)))
}

// Vendor returns the suggested vendor.
func (l LineItem) Vendor() string {
	return strings.TrimSpace(spreadsheet.Text(l.first(vendorColumns)))
}

// DeliveryDate returns the per-item delivery date cell, if the item carries one.
func (l LineItem) DeliveryDate() (interface{}, string, bool) {
	for _, k := range deliveryColumns {
		if v, ok := l[k]; ok {
			return v, k, true
		}
	}
	return nil, "", false
}

// LineItems is the ordered item table.
type LineItems []LineItem

// Scan implements sql.Scanner.
func (l *LineItems) Scan(src interface{}) error { return scanJSON(src, l) }

// Value implements driver.Valuer.
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		l = LineItems{}
	}
	return valueJSON(l)
}

// Request is a lecturer's submitted item request.
type Request struct {
	ID           string        `db:"id" json:"id"`
	CreatedBy    string        `db:"created_by" json:"createdBy"`
	SectionA     SectionA      `db:"section_a" json:"sectionA"`
	HeaderFields HeaderFields  `db:"header_fields" json:"headerFields"`
	LineItems    LineItems     `db:"line_items" json:"lineItems"`
	Status       RequestStatus `db:"status" json:"status"`
	Remark       *string       `db:"remark" json:"remark,omitempty"`
	DownloadLink *string       `db:"download_link" json:"downloadLink,omitempty"`
	Archived     bool          `db:"archived" json:"archived"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updatedAt"`
}

// RequestFilter constrains listing queries.
type RequestFilter struct {
	Status          []RequestStatus
	CreatedBy       string
	IncludeArchived bool
	Limit           int
	Offset          int
}

// RequestUpdate is a partial write. Nil fields are left untouched; ClearRemark nulls the remark.
type RequestUpdate struct {
	SectionA     *SectionA
	HeaderFields *HeaderFields
	LineItems    *LineItems
	Status       *RequestStatus
	Remark       *string
	ClearRemark  bool
	DownloadLink *string
	Archived     *bool
}

// Empty reports whether the update writes nothing.
func (u RequestUpdate) Empty() bool {
	return u.SectionA == nil && u.HeaderFields == nil && u.LineItems == nil && u.Status == nil &&
		u.Remark == nil && !u.ClearRemark && u.DownloadLink == nil && u.Archived == nil
}
