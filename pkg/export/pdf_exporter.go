package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// SummaryHeader is the request context printed above the item table.
type SummaryHeader struct {
	DeliveryDate string
	Project      string
	PICContact   string
	Entity       string
}

// SummaryItem is one row of the item table.
type SummaryItem struct {
	Description string
	Quantity    float64
}

// Summary is everything the purchase summary document shows.
type Summary struct {
	Title  string
	Header SummaryHeader
	Items  []SummaryItem
}

// Total sums every item quantity.
func (s Summary) Total() float64 {
	var total float64
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

// PDFExporter renders purchase summaries with a fixed-coordinate layout and plain tabular datasets.
type PDFExporter struct {
	policy OverflowPolicy
	title  string
}

// NewPDFExporter constructs a PDF exporter. title is used when a summary carries none.
func NewPDFExporter(policy OverflowPolicy, title string) *PDFExporter {
	if policy == "" {
		policy = OverflowPaginate
	}
	return &PDFExporter{policy: policy, title: title}
}

// RenderSummary lays out the title, the 4-row info table, the No/Item/Quantity table and the boxed total.
func (e *PDFExporter) RenderSummary(s Summary) ([]byte, error) {
	pages, err := Layout(len(s.Items), e.policy)
	if err != nil {
		return nil, err
	}
	title := s.Title
	if title == "" {
		title = e.title
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(leftMargin, topMargin, leftMargin)
	pdf.SetAutoPageBreak(false, bottomMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, page := range pages {
		pdf.AddPage()
		y := topMargin
		if i == 0 {
			drawTitle(pdf, tr(title))
			drawInfoTable(pdf, tr, s.Header)
			y = itemsTableY
		}
		if page.End > page.Start || i == 0 {
			drawItemsHeader(pdf, y)
			y += rowHeight
		}
		for idx := page.Start; idx < page.End; idx++ {
			item := s.Items[idx]
			pdf.SetXY(leftMargin, y)
			pdf.CellFormat(noColWidth, rowHeight, strconv.Itoa(idx+1), "1", 0, "C", false, 0, "")
			pdf.CellFormat(itemColWidth, rowHeight, tr(fitText(pdf, item.Description, itemColWidth-6)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(qtyColWidth, rowHeight, FormatQuantity(item.Quantity), "1", 0, "C", false, 0, "")
			y += rowHeight
		}
		if page.Total {
			drawTotal(pdf, y, s.Total())
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Render creates a flowing table PDF for a dataset, used for stock list exports.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(leftMargin, topMargin, leftMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	colWidth := tableWidth / float64(len(data.Headers))

	header := func() {
		pdf.SetFont("Arial", "B", 10)
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, rowHeight, tr(h), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}

	pdf.AddPage()
	if title != "" {
		drawTitle(pdf, tr(title))
		pdf.SetXY(leftMargin, infoTableY)
	}
	header()
	for _, row := range data.Rows {
		if pdf.GetY()+rowHeight > pageBottom {
			pdf.AddPage()
			header()
		}
		for _, h := range data.Headers {
			pdf.CellFormat(colWidth, rowHeight, tr(fitText(pdf, row[h], colWidth-6)), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatQuantity prints whole quantities without a decimal part.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func drawTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 16)
	pdf.SetXY(leftMargin, titleY)
	pdf.CellFormat(tableWidth, titleHeight, title, "", 0, "C", false, 0, "")
}

func drawInfoTable(pdf *gofpdf.Fpdf, tr func(string) string, h SummaryHeader) {
	rows := [infoRows][2]string{
		{"Delivery Date", h.DeliveryDate},
		{"Project/Services", h.Project},
		{"PIC Contact", h.PICContact},
		{"Entity", h.Entity},
	}
	for i, row := range rows {
		y := infoTableY + float64(i)*rowHeight
		pdf.SetXY(leftMargin, y)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(labelWidth, rowHeight, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(tableWidth-labelWidth, rowHeight, tr(fitText(pdf, row[1], tableWidth-labelWidth-6)), "1", 0, "L", false, 0, "")
	}
}

func drawItemsHeader(pdf *gofpdf.Fpdf, y float64) {
	pdf.SetXY(leftMargin, y)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(noColWidth, rowHeight, "No", "1", 0, "C", false, 0, "")
	pdf.CellFormat(itemColWidth, rowHeight, "Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(qtyColWidth, rowHeight, "Quantity", "1", 0, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
}

func drawTotal(pdf *gofpdf.Fpdf, y, total float64) {
	pdf.SetXY(leftMargin, y)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(noColWidth+itemColWidth, rowHeight, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(qtyColWidth, rowHeight, FormatQuantity(total), "1", 0, "C", false, 0, "")
	pdf.SetLineWidth(1.5)
	pdf.Rect(leftMargin, y, tableWidth, rowHeight, "D")
	pdf.SetLineWidth(0.57)
}

// fitText trims s with an ellipsis so it stays inside a fixed-width cell.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	s = strings.TrimSpace(s)
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
