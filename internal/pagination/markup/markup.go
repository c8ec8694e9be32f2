// Package markup names the classes and attributes of the Jupiter theme's
// pagination widget and provides compiled selectors over them.
package markup

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Classes
const (
	ClassPagination      = "mk-pagination"
	ClassPaginationInner = "mk-pagination-inner"
	ClassTotalPages      = "mk-total-pages"
	ClassPageNumber      = "page-number"
	ClassCurrentPage     = "current-page"
	ClassDots            = "dots"

	// Script hooks the theme's client-side pager binds to.
	ClassScriptPage = "js-pagination-page"
	ClassScriptPrev = "js-pagination-prev"
	ClassScriptNext = "js-pagination-next"

	ClassArrowPrev = "mk-pagination-previous"
	ClassArrowNext = "mk-pagination-next"
)

// Attributes
const (
	AttrInitPage     = "data-init-pagination"
	AttrMaxPages     = "data-max-pages"
	AttrPageID       = "data-page-id"
	AttrEllipsisPage = "data-ellipsis-page"
)

// EllipsisText is the visible label of an ellipsis control.
const EllipsisText = "..."

var (
	// Container is the outer widget element carrying the page attributes.
	Container = cascadia.MustCompile(`[class*="mk-pagination"][data-init-pagination], [class*="mk-pagination"][data-max-pages]`)

	// Widget is the outer widget element, with or without page attributes.
	// It matches the exact class token, not mk-pagination-* variants.
	Widget = cascadia.MustCompile(`.mk-pagination`)

	// Inner holds the page controls.
	Inner = cascadia.MustCompile(`.mk-pagination-inner`)

	// CurrentPageDisplay is the "page X of Y" counter's current-page span.
	CurrentPageDisplay = cascadia.MustCompile(`.mk-total-pages .pagination-current-page, .mk-total-pages .js-current-page`)

	// MaxPagesDisplay is the counter's total-pages span.
	MaxPagesDisplay = cascadia.MustCompile(`.pagination-max-pages`)

	// PageLink matches every anchor that carries a page id.
	PageLink = cascadia.MustCompile(`a[data-page-id]`)

	// CurrentMarker matches current-page indicators.
	CurrentMarker = cascadia.MustCompile(`.current-page`)

	// Ellipsis matches ellipsis controls.
	Ellipsis = cascadia.MustCompile(`.dots, a[data-page-id="..."], a[data-ellipsis-page]`)

	// PrevArrow and NextArrow match the step controls next to the page list.
	PrevArrow = cascadia.MustCompile(`.js-pagination-prev, .mk-pagination-previous`)
	NextArrow = cascadia.MustCompile(`.js-pagination-next, .mk-pagination-next`)
)

// detectionMarkers are substrings whose presence means a fragment may hold
// a pagination widget worth parsing.
var detectionMarkers = []string{
	ClassPaginationInner,
	ClassScriptPage,
}

// Detect is a cheap pre-parse check for pagination markup.
func Detect(src string) bool {
	for _, marker := range detectionMarkers {
		if strings.Contains(src, marker) {
			return true
		}
	}
	return false
}

// QueryAll returns the descendants of root matching sel in document order.
func QueryAll(root *html.Node, sel cascadia.Selector) []*html.Node {
	if root == nil {
		return nil
	}
	return cascadia.QueryAll(root, sel)
}

// Query returns the first descendant of root matching sel, or nil.
func Query(root *html.Node, sel cascadia.Selector) *html.Node {
	if root == nil {
		return nil
	}
	return cascadia.Query(root, sel)
}
