// Package window computes the bounded set of page controls shown in a
// pagination widget: a contiguous run around the current page, the first
// and last page as edge anchors, and ellipsis placeholders over the gaps.
package window

import (
	"strconv"
	"strings"
)

// DefaultSize is the number of contiguous pages shown around the current page.
const DefaultSize = 8

// Entry is one slot of a plan. Ellipsis entries carry the first hidden page
// of the gap they cover in Page.
type Entry struct {
	Page     int
	Ellipsis bool
}

// PageEntry returns a plan slot for a regular page control.
func PageEntry(page int) Entry {
	return Entry{Page: page}
}

// EllipsisEntry returns a plan slot for an ellipsis jumping to target.
func EllipsisEntry(target int) Entry {
	return Entry{Page: target, Ellipsis: true}
}

// String renders the entry for logs and test failures: "5" or "...(9)".
func (e Entry) String() string {
	if e.Ellipsis {
		return "...(" + strconv.Itoa(e.Page) + ")"
	}
	return strconv.Itoa(e.Page)
}

// Plan is the ordered, left-to-right list of controls to render.
type Plan []Entry

// String joins entries with commas.
func (p Plan) String() string {
	parts := make([]string, len(p))
	for i, e := range p {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}

// Pages returns the page numbers of non-ellipsis entries in plan order.
func (p Plan) Pages() []int {
	pages := make([]int, 0, len(p))
	for _, e := range p {
		if !e.Ellipsis {
			pages = append(pages, e.Page)
		}
	}
	return pages
}

// Range returns the contiguous run [start, end] for the given inputs.
// Callers must pass total >= 1 and size >= 1.
func Range(current, total, size int) (int, int) {
	half := size / 2

	start := max(1, current-half)
	end := min(total, start+size-1)

	// Near the last page the run is short: slide it back down.
	if end-start+1 < size {
		start = max(1, end-size+1)
	}
	return start, end
}

// Compute plans the visible controls for current out of total pages with a
// contiguous run of at most size pages. Out-of-range inputs are clamped:
// size below 1 becomes 1 and current is forced into [1, total]. A total
// below 1 yields an empty plan.
func Compute(current, total, size int) Plan {
	if total < 1 {
		return Plan{}
	}
	if size < 1 {
		size = 1
	}
	current = min(max(current, 1), total)

	start, end := Range(current, total, size)

	kept := make([]int, 0, size+2)
	if start > 1 {
		kept = append(kept, 1)
	}
	for page := start; page <= end; page++ {
		kept = append(kept, page)
	}
	if end < total {
		kept = append(kept, total)
	}

	plan := make(Plan, 0, len(kept)+2)
	prev := 0
	for _, page := range kept {
		if prev > 0 && page > prev+1 {
			plan = append(plan, EllipsisEntry(prev+1))
		}
		plan = append(plan, PageEntry(page))
		prev = page
	}
	return plan
}
