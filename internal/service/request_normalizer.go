package service

import (
	"strings"
	"time"

	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/pkg/spreadsheet"
)

// Header block positions of the Section A fields.
const (
	sectionDeliveryDate = iota
	sectionProject
	sectionRequester
	sectionPICContact
	sectionDepartment
	sectionEntity
)

// sectionLabels names header rows that were missing from the uploaded block.
var sectionLabels = [...]string{"Delivery Date", "Project", "Requester", "PIC Contact", "Department", "Entity"}

// NormalizeRequest turns a parsed template into a new Pending request.
func NormalizeRequest(sheet *spreadsheet.RequestSheet, createdBy, downloadLink string, now time.Time) *models.Request {
	fields := make(models.HeaderFields, 0, len(sheet.Fields))
	for _, f := range sheet.Fields {
		fields = append(fields, models.HeaderField{Label: f.Label, Value: sanitizeCell(f.Value)})
	}

	items := make(models.LineItems, 0, len(sheet.Items))
	for _, row := range sheet.Items {
		items = append(items, models.LineItem(row))
	}

	req := &models.Request{
		CreatedBy:    createdBy,
		SectionA:     SectionAFromFields(fields),
		HeaderFields: fields,
		LineItems:    SanitizeLineItems(items),
		Status:       models.StatusPending,
		CreatedAt:    now.UTC(),
	}
	if downloadLink != "" {
		req.DownloadLink = &downloadLink
	}
	return req
}

// SectionAFromFields reads the named header record from its fixed positions. Missing
// positions yield empty strings.
func SectionAFromFields(fields models.HeaderFields) models.SectionA {
	at := func(i int) string {
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(spreadsheet.Text(fields[i].Value))
	}
	return models.SectionA{
		DeliveryDate: at(sectionDeliveryDate),
		Project:      at(sectionProject),
		Requester:    at(sectionRequester),
		PICContact:   at(sectionPICContact),
		Department:   at(sectionDepartment),
		Entity:       at(sectionEntity),
	}
}

// FieldsWithSectionA returns a copy of fields whose Section A positions carry the values of a.
// Labels are kept; positions absent from fields get their default label.
func FieldsWithSectionA(fields models.HeaderFields, a models.SectionA) models.HeaderFields {
	values := [...]string{a.DeliveryDate, a.Project, a.Requester, a.PICContact, a.Department, a.Entity}
	out := make(models.HeaderFields, len(fields), max(len(fields), len(values)))
	copy(out, fields)
	for i, v := range values {
		if i < len(out) {
			out[i].Value = v
			continue
		}
		out = append(out, models.HeaderField{Label: sectionLabels[i], Value: v})
	}
	return out
}

// SanitizeLineItems returns a copy with every missing cell replaced by "". Applying it twice
// gives the same result as applying it once.
func SanitizeLineItems(items models.LineItems) models.LineItems {
	out := make(models.LineItems, 0, len(items))
	for _, item := range items {
		clean := make(models.LineItem, len(item))
		for k, v := range item {
			clean[k] = sanitizeCell(v)
		}
		out = append(out, clean)
	}
	return out
}

func sanitizeCell(v interface{}) interface{} {
	if v == nil {
		return ""
	}
	return v
}
