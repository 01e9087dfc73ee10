package spreadsheet

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// serialEpochOffset is the number of days between the spreadsheet epoch and 1970-01-01.
const serialEpochOffset = 25569

const dateLayout = "02/01/2006"

// Row is one record keyed by column header. Missing cells hold nil.
type Row map[string]any

// SerialToDate converts a spreadsheet serial day count to DD/MM/YYYY (UTC).
func SerialToDate(serial float64) string {
	secs := math.Round((serial - serialEpochOffset) * 86400)
	return time.Unix(int64(secs), 0).UTC().Format(dateLayout)
}

// ConvertSerialDate returns the formatted date for numeric values and v unchanged otherwise.
func ConvertSerialDate(v any) any {
	switch n := v.(type) {
	case float64:
		return SerialToDate(n)
	case float32:
		return SerialToDate(float64(n))
	case int:
		return SerialToDate(float64(n))
	case int64:
		return SerialToDate(float64(n))
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return SerialToDate(f)
		}
	}
	return v
}

// textCells reports whether the cell at 0-indexed (row, col) is stored as text.
type textCells func(row, col int) bool

// storedAsText reads cell types from sheet. Text, inline text and string formula results stay
// strings even when they look numeric.
func storedAsText(f *excelize.File, sheet string) textCells {
	return func(row, col int) bool {
		name, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return false
		}
		kind, err := f.GetCellType(sheet, name)
		if err != nil {
			return false
		}
		switch kind {
		case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
			return true
		}
		return false
	}
}

func (t textCells) at(row, col int) bool {
	return t != nil && t(row, col)
}

// cellValue turns raw cell text into a number when the cell is not stored as text and the text
// is exactly a number's canonical form.
func cellValue(raw string, text bool) any {
	if raw == "" || text {
		return raw
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return raw
	}
	if strconv.FormatFloat(f, 'f', -1, 64) != raw {
		return raw
	}
	return f
}

// IsEmpty reports whether a cell holds nothing meaningful.
func IsEmpty(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Text renders a cell for display, printing numbers without trailing zeros.
func Text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

// Number reads a quantity-like cell. Text cells are parsed after trimming.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
