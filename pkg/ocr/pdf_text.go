package ocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFText extracts lines from text-based PDF delivery notes.
type PDFText struct{}

// NewPDFText returns a PDF text extractor.
func NewPDFText() *PDFText {
	return &PDFText{}
}

// Extract reads every page row by row and keeps rows that end with a quantity.
func (p *PDFText) Extract(ctx context.Context, data []byte, _ string) ([]Line, error) {
	rows, err := readRows(ctx, data)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		if line, ok := ParseLine(row); ok {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func readRows(ctx context.Context, data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	out := make([]string, 0)
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}
		for _, row := range rows {
			var sb strings.Builder
			for _, word := range row.Content {
				sb.WriteString(word.S)
				sb.WriteString(" ")
			}
			if text := strings.TrimSpace(sb.String()); text != "" {
				out = append(out, text)
			}
		}
	}
	return out, nil
}
