package export

import (
	"errors"
	"fmt"
	"strings"
)

// OverflowPolicy decides what happens when the item table does not fit on one page.
type OverflowPolicy string

const (
	OverflowPaginate OverflowPolicy = "paginate"
	OverflowReject   OverflowPolicy = "reject"
)

// ErrOverflow is returned under OverflowReject when the items need more than one page.
var ErrOverflow = errors.New("item list does not fit on a single page")

// ParseOverflowPolicy maps configuration text to a policy, defaulting to paginate.
func ParseOverflowPolicy(raw string) (OverflowPolicy, error) {
	switch OverflowPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", OverflowPaginate:
		return OverflowPaginate, nil
	case OverflowReject:
		return OverflowReject, nil
	default:
		return "", fmt.Errorf("unknown pdf overflow policy %q", raw)
	}
}

// Fixed page geometry in points on A4 portrait.
const (
	pageWidth    = 595.28
	pageHeight   = 841.89
	tableWidth   = 500.0
	rowHeight    = 20.0
	topMargin    = 50.0
	bottomMargin = 50.0
	leftMargin   = (pageWidth - tableWidth) / 2

	titleY       = topMargin
	titleHeight  = 24.0
	infoTableY   = 90.0
	infoRows     = 4
	itemsTableY  = infoTableY + infoRows*rowHeight + rowHeight
	pageBottom   = pageHeight - bottomMargin
	noColWidth   = 50.0
	qtyColWidth  = 100.0
	itemColWidth = tableWidth - noColWidth - qtyColWidth
	labelWidth   = 150.0
)

// Page is one rendered page holding item rows [Start, End). Total marks the page carrying the footer.
type Page struct {
	Start int
	End   int
	Total bool
}

// rowsPerPage returns how many body rows fit below a table header starting at y.
func rowsPerPage(y float64) int {
	return int((pageBottom - y - rowHeight) / rowHeight)
}

// Layout splits n item rows across pages. The total row needs one row of space after the last item.
func Layout(n int, policy OverflowPolicy) ([]Page, error) {
	if n < 0 {
		n = 0
	}
	pages := make([]Page, 0, 1)
	start := 0
	capacity := rowsPerPage(itemsTableY)
	for {
		remaining := n - start
		if remaining+1 <= capacity {
			pages = append(pages, Page{Start: start, End: n, Total: true})
			break
		}
		if remaining <= capacity {
			pages = append(pages, Page{Start: start, End: n}, Page{Start: n, End: n, Total: true})
			break
		}
		pages = append(pages, Page{Start: start, End: start + capacity})
		start += capacity
		capacity = rowsPerPage(topMargin)
	}

	if policy == OverflowReject && len(pages) > 1 {
		return nil, ErrOverflow
	}
	return pages, nil
}
