package spreadsheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, sheets map[string][][]interface{}, order ...string) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			if row == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func requestTemplate(rows map[int][]interface{}) [][]interface{} {
	out := make([][]interface{}, 16)
	for i, row := range rows {
		for len(out) <= i {
			out = append(out, nil)
		}
		out[i] = row
	}
	return out
}

func TestSerialToDate(t *testing.T) {
	assert.Equal(t, "16/07/2023", SerialToDate(45123))
	assert.Equal(t, "01/01/1970", SerialToDate(25569))
	assert.Equal(t, "02/01/1970", SerialToDate(25570))
}

func TestConvertSerialDatePassesThroughText(t *testing.T) {
	assert.Equal(t, "next week", ConvertSerialDate("next week"))
	assert.Equal(t, "16/07/2023", ConvertSerialDate(float64(45123)))
	assert.Equal(t, "16/07/2023", ConvertSerialDate(json.Number("45123")))
	assert.Nil(t, ConvertSerialDate(nil))
}

func TestCellValueRoundTrip(t *testing.T) {
	assert.Equal(t, float64(10), cellValue("10", false))
	assert.Equal(t, 2.5, cellValue("2.5", false))
	assert.Equal(t, "010", cellValue("010", false))
	assert.Equal(t, "1e3", cellValue("1e3", false))
	assert.Equal(t, "Pencil", cellValue("Pencil", false))
	assert.Equal(t, "", cellValue("", false))
	assert.Equal(t, "45123", cellValue("45123", true))
}

func TestParseRequestFormEndToEnd(t *testing.T) {
	rows := requestTemplate(map[int][]interface{}{
		5:  {"Delivery Date", "", "", "", "", 45123},
		6:  {"Project:", "Open Day"},
		7:  {"Requester :", "Dr. Lim"},
		13: {"Item", "Quantity"},
		14: {"Pencil", 10},
	})
	r := workbook(t, map[string][][]interface{}{"Form": rows}, "Form")

	sheet, err := ParseRequestForm(r)
	require.NoError(t, err)

	require.Len(t, sheet.Fields, HeaderBlockSize)
	assert.Equal(t, HeaderField{Label: "Delivery Date", Value: "16/07/2023"}, sheet.Fields[0])
	assert.Equal(t, HeaderField{Label: "Project", Value: "Open Day"}, sheet.Fields[1])
	assert.Equal(t, HeaderField{Label: "Requester", Value: "Dr. Lim"}, sheet.Fields[2])
	assert.Equal(t, HeaderField{Label: "", Value: ""}, sheet.Fields[5])

	assert.Equal(t, []string{"Item", "Quantity"}, sheet.Header)
	require.Len(t, sheet.Items, 1)
	assert.Equal(t, Row{"Item": "Pencil", "Quantity": float64(10)}, sheet.Items[0])
}

func TestParseRequestFormKeepsTextCellsAsText(t *testing.T) {
	rows := requestTemplate(map[int][]interface{}{
		5:  {"Delivery Date", "45123"},
		13: {"Item", "Quantity", "Code"},
		14: {"Pencil", 10, "007"},
		15: {"Ruler", "12", "12"},
	})
	r := workbook(t, map[string][][]interface{}{"Form": rows}, "Form")

	sheet, err := ParseRequestForm(r)
	require.NoError(t, err)
	assert.Equal(t, HeaderField{Label: "Delivery Date", Value: "45123"}, sheet.Fields[0])
	require.Len(t, sheet.Items, 2)
	assert.Equal(t, float64(10), sheet.Items[0]["Quantity"])
	assert.Equal(t, "12", sheet.Items[1]["Quantity"])
}

func TestParseRequestFormDropsBlankRows(t *testing.T) {
	rows := requestTemplate(map[int][]interface{}{
		13: {"Item", "Quantity", "Unit"},
		14: {"Pencil", 10, "box"},
		15: {"", "", ""},
		16: {"", "", "pcs"},
	})
	rows = append(rows, []interface{}{"Eraser"})
	r := workbook(t, map[string][][]interface{}{"Form": rows}, "Form")

	sheet, err := ParseRequestForm(r)
	require.NoError(t, err)
	require.Len(t, sheet.Items, 3)
	assert.Equal(t, "pcs", sheet.Items[1]["Unit"])
	assert.Equal(t, "Eraser", sheet.Items[2]["Item"])
	assert.Nil(t, sheet.Items[2]["Quantity"])
}

func TestParseRequestFormSkipsBlankHeaderColumns(t *testing.T) {
	got := parseRequestRows([][]string{
		{}, {}, {}, {}, {}, {}, {}, {}, {}, {}, {}, {}, {},
		{"Item", "", "Quantity"},
		{"Pencil", "ignored", "3"},
	}, nil)
	assert.Equal(t, []string{"Item", "Quantity"}, got.Header)
	assert.Equal(t, Row{"Item": "Pencil", "Quantity": float64(3)}, got.Items[0])
}

func TestFillDownSuggestedVendor(t *testing.T) {
	items := []Row{
		{"Item": "A", SuggestedVendorColumn: "V"},
		{"Item": "B", SuggestedVendorColumn: ""},
		{"Item": "C", SuggestedVendorColumn: nil},
		{"Item": "D", SuggestedVendorColumn: "W"},
		{"Item": "E", SuggestedVendorColumn: ""},
	}
	FillDown(items, SuggestedVendorColumn)

	got := make([]any, 0, len(items))
	for _, it := range items {
		got = append(got, it[SuggestedVendorColumn])
	}
	assert.Equal(t, []any{"V", "V", "V", "W", "W"}, got)
}

func TestFillDownLeavesLeadingEmpties(t *testing.T) {
	items := []Row{
		{SuggestedVendorColumn: ""},
		{SuggestedVendorColumn: "V"},
	}
	FillDown(items, SuggestedVendorColumn)
	assert.Equal(t, "", items[0][SuggestedVendorColumn])
}

func TestParseRequestFormMalformed(t *testing.T) {
	_, err := ParseRequestForm(strings.NewReader("not a workbook"))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestParseMarketList(t *testing.T) {
	r := workbook(t, map[string][][]interface{}{
		"Acme": {
			{"No", " Items ", "Unit", "Qty To Order", "Remarks"},
			{1, "Paper", "ream", 4, ""},
			{"", "", "", "", ""},
			{2, "Ink", "", 1},
		},
		"Beta": {
			{"Vendor", "Items"},
		},
	}, "Acme", "Beta")

	sheets, err := ParseMarketList(r)
	require.NoError(t, err)
	require.Len(t, sheets, 2)

	acme := sheets[0]
	assert.Equal(t, "Acme", acme.Name)
	assert.Equal(t, []string{"No", "Items", "Unit", "Stocks", "remarks"}, acme.Header)
	require.Len(t, acme.Data, 2)
	assert.Equal(t, "Paper", acme.Data[0]["Items"])
	assert.Equal(t, float64(4), acme.Data[0]["Stocks"])
	assert.Nil(t, acme.Data[1]["remarks"])

	assert.Equal(t, "Beta", sheets[1].Name)
	assert.Empty(t, sheets[1].Data)
}

func TestNormalizeMarketHeader(t *testing.T) {
	for raw, want := range map[string]string{
		"VENDOR":         "Vendor",
		" qty to order ": "Stocks",
		"Unit Price":     "unit_price",
	} {
		assert.Equal(t, want, NormalizeMarketHeader(raw), fmt.Sprintf("header %q", raw))
	}
}

func TestNumberAndText(t *testing.T) {
	n, ok := Number(" 4 ")
	require.True(t, ok)
	assert.Equal(t, float64(4), n)
	_, ok = Number("four")
	assert.False(t, ok)
	assert.Equal(t, "8", Text(float64(8)))
	assert.Equal(t, "", Text(nil))
}
