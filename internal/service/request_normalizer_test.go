package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/pkg/spreadsheet"
)

func TestNormalizeRequestBuildsSectionA(t *testing.T) {
	sheet := &spreadsheet.RequestSheet{
		Fields: []spreadsheet.HeaderField{
			{Label: "Delivery Date", Value: "16/07/2023"},
			{Label: "Project", Value: "Open Day"},
			{Label: "Requester", Value: "Dr. Lim"},
			{Label: "PIC Contact", Value: float64(60123456)},
			{Label: "Department", Value: nil},
			{Label: "Entity", Value: "Campus"},
		},
		Items: []spreadsheet.Row{
			{"Item": "Pencil", "Quantity": float64(3), "Suggested Vendor": nil},
		},
	}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	req := NormalizeRequest(sheet, "u1", "https://files/x", now)

	assert.Equal(t, models.SectionA{
		DeliveryDate: "16/07/2023",
		Project:      "Open Day",
		Requester:    "Dr. Lim",
		PICContact:   "60123456",
		Department:   "",
		Entity:       "Campus",
	}, req.SectionA)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, "u1", req.CreatedBy)
	assert.Equal(t, now, req.CreatedAt)
	require.NotNil(t, req.DownloadLink)
	assert.Equal(t, "", req.LineItems[0]["Suggested Vendor"])
	assert.Equal(t, "", req.HeaderFields[4].Value)
}

func TestSectionAFromShortHeaderBlock(t *testing.T) {
	section := SectionAFromFields(models.HeaderFields{{Label: "Delivery Date", Value: "01/01/2024"}})
	assert.Equal(t, "01/01/2024", section.DeliveryDate)
	assert.Empty(t, section.Entity)
}

func TestSanitizeLineItemsIsIdempotent(t *testing.T) {
	items := models.LineItems{
		{"Item": "Paper", "Quantity": nil, "Unit": "ream"},
		{"Item": nil, "Quantity": float64(2)},
	}
	once := SanitizeLineItems(items)
	twice := SanitizeLineItems(once)

	assert.Equal(t, once, twice)
	assert.Equal(t, "", once[0]["Quantity"])
	assert.Nil(t, items[0]["Quantity"], "input is not mutated")
}
