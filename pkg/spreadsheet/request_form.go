package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Fixed template coordinates, 0-indexed.
const (
	headerBlockStart = 5
	headerBlockEnd   = 10
	itemHeaderRow    = 13

	// HeaderBlockSize is the number of header block rows, one per Section A field.
	HeaderBlockSize = headerBlockEnd - headerBlockStart + 1
)

// Column names with special handling in the request template.
const (
	DeliveryDateLabel     = "Delivery Date"
	SuggestedVendorColumn = "Suggested Vendor"
)

// ErrMalformed wraps every failure to read a workbook.
var ErrMalformed = errors.New("malformed workbook")

// HeaderField is one label/value pair of the header block.
type HeaderField struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// RequestSheet is the parsed request template.
type RequestSheet struct {
	HeaderRows [][]any       `json:"headerRows"`
	Header     []string      `json:"header"`
	Items      []Row         `json:"items"`
	Fields     []HeaderField `json:"fields"`
}

// ParseRequestForm reads the first sheet of a request template workbook.
func ParseRequestForm(r io.Reader) (*RequestSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformed)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return parseRequestRows(rows, storedAsText(f, sheets[0])), nil
}

func parseRequestRows(rows [][]string, text textCells) *RequestSheet {
	sheet := &RequestSheet{
		HeaderRows: make([][]any, 0, HeaderBlockSize),
		Fields:     make([]HeaderField, 0, HeaderBlockSize),
		Items:      make([]Row, 0),
	}

	for i := headerBlockStart; i <= headerBlockEnd; i++ {
		var raw []string
		if i < len(rows) {
			raw = rows[i]
		}
		cells := make([]any, len(raw))
		for j, c := range raw {
			cells[j] = cellValue(c, text.at(i, j))
		}
		sheet.HeaderRows = append(sheet.HeaderRows, cells)
		sheet.Fields = append(sheet.Fields, headerField(cells))
	}

	if itemHeaderRow >= len(rows) {
		return sheet
	}
	header := rows[itemHeaderRow]
	columns := make([]int, 0, len(header))
	for j, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		columns = append(columns, j)
		sheet.Header = append(sheet.Header, h)
	}

	for r, raw := range rows[itemHeaderRow+1:] {
		item := make(Row, len(columns))
		blank := true
		for k, j := range columns {
			var v any
			if j < len(raw) {
				v = cellValue(raw[j], text.at(itemHeaderRow+1+r, j))
			}
			if !IsEmpty(v) {
				blank = false
			}
			item[sheet.Header[k]] = v
		}
		if blank {
			continue
		}
		sheet.Items = append(sheet.Items, item)
	}

	FillDown(sheet.Items, SuggestedVendorColumn)
	return sheet
}

// headerField reads label from the first cell and value from the last.
func headerField(cells []any) HeaderField {
	if len(cells) == 0 {
		return HeaderField{Value: ""}
	}
	label := strings.TrimSuffix(strings.TrimSpace(Text(cells[0])), ":")
	label = strings.TrimSpace(label)

	var value any = ""
	if len(cells) > 1 {
		value = cells[len(cells)-1]
	}
	if label == DeliveryDateLabel {
		value = ConvertSerialDate(value)
	}
	return HeaderField{Label: label, Value: value}
}

// FillDown copies the last non-empty value of column into the empty cells below it.
func FillDown(items []Row, column string) {
	var last any
	for _, item := range items {
		v, ok := item[column]
		if !ok {
			continue
		}
		if IsEmpty(v) {
			if last != nil {
				item[column] = last
			}
			continue
		}
		last = v
	}
}
