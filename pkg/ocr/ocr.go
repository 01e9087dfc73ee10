package ocr

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrUnsupported is returned for document types no extractor handles.
var ErrUnsupported = errors.New("unsupported delivery note type")

// Line is one delivery note entry.
type Line struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
}

// Extractor turns a delivery note into adjustment lines.
type Extractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) ([]Line, error)
}

// Router picks an extractor by MIME type. Vision may be nil when OCR is disabled.
type Router struct {
	PDF    Extractor
	Vision Extractor
}

// Extract dispatches to the PDF text reader or the vision model.
func (r Router) Extract(ctx context.Context, data []byte, mimeType string) ([]Line, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case mimeType == "application/pdf":
		if r.PDF == nil {
			return nil, ErrUnsupported
		}
		return r.PDF.Extract(ctx, data, mimeType)
	case strings.HasPrefix(mimeType, "image/"):
		if r.Vision == nil {
			return nil, ErrUnsupported
		}
		return r.Vision.Extract(ctx, data, mimeType)
	default:
		return nil, ErrUnsupported
	}
}

// ParseResponse reads "description | quantity" lines, skipping chatter and lines without a quantity.
func ParseResponse(raw string) []Line {
	lines := make([]Line, 0)
	for _, text := range strings.Split(raw, "\n") {
		if line, ok := ParseLine(text); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

// ParseLine parses "description | quantity" or a free text row ending with a number.
func ParseLine(text string) (Line, bool) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return Line{}, false
	}

	if strings.Contains(text, "|") {
		parts := strings.Split(text, "|")
		desc := strings.TrimSpace(parts[0])
		if desc == "" || len(parts) < 2 {
			return Line{}, false
		}
		qty, ok := parseQuantity(parts[1])
		if !ok {
			return Line{}, false
		}
		return Line{Description: desc, Quantity: qty}, true
	}

	tokens := strings.Split(text, " ")
	if len(tokens) < 2 {
		return Line{}, false
	}
	qty, ok := parseQuantity(tokens[len(tokens)-1])
	if !ok {
		return Line{}, false
	}
	rest := tokens[:len(tokens)-1]
	if len(rest) > 1 {
		if _, err := strconv.Atoi(rest[0]); err == nil {
			rest = rest[1:]
		}
	}
	return Line{Description: strings.Join(rest, " "), Quantity: qty}, true
}

func parseQuantity(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if fields := strings.Fields(raw); len(fields) > 0 {
		raw = fields[0]
	}
	raw = strings.ReplaceAll(raw, ",", "")
	q, err := strconv.ParseFloat(raw, 64)
	if err != nil || q < 0 {
		return 0, false
	}
	return q, true
}
