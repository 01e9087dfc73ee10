package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Canonical market list columns.
const (
	ColumnVendor = "Vendor"
	ColumnNo     = "No"
	ColumnItems  = "Items"
	ColumnUnit   = "Unit"
	ColumnStocks = "Stocks"
)

var marketHeaderMap = map[string]string{
	"vendor":       ColumnVendor,
	"no":           ColumnNo,
	"items":        ColumnItems,
	"unit":         ColumnUnit,
	"qty_to_order": ColumnStocks,
}

// MarketSheet is one vendor sheet of a market list.
type MarketSheet struct {
	Name   string   `json:"-"`
	Header []string `json:"header"`
	Data   []Row    `json:"data"`
}

// ParseMarketList reads every sheet of a multi-vendor market list, in workbook order.
func ParseMarketList(r io.Reader) ([]MarketSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close() //nolint:errcheck

	names := f.GetSheetList()
	sheets := make([]MarketSheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrMalformed, name, err)
		}
		sheets = append(sheets, parseMarketRows(name, rows, storedAsText(f, name)))
	}
	return sheets, nil
}

// NormalizeMarketHeader lowercases, trims and underscores a header cell, then maps it to its canonical name.
func NormalizeMarketHeader(raw string) string {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	if mapped, ok := marketHeaderMap[key]; ok {
		return mapped
	}
	return key
}

func parseMarketRows(name string, rows [][]string, text textCells) MarketSheet {
	sheet := MarketSheet{Name: name, Header: []string{}, Data: []Row{}}
	if len(rows) == 0 {
		return sheet
	}
	columns := make([]int, 0, len(rows[0]))
	for j, h := range rows[0] {
		key := NormalizeMarketHeader(h)
		if key == "" {
			continue
		}
		columns = append(columns, j)
		sheet.Header = append(sheet.Header, key)
	}

	for r, raw := range rows[1:] {
		record := make(Row, len(columns))
		blank := true
		for k, j := range columns {
			var v any
			if j < len(raw) {
				v = cellValue(raw[j], text.at(r+1, j))
			}
			if !IsEmpty(v) {
				blank = false
			}
			record[sheet.Header[k]] = v
		}
		if !blank {
			sheet.Data = append(sheet.Data, record)
		}
	}
	return sheet
}
