package rewrite

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/edgecomet/pagination/internal/common/htmlprocessor"
	"github.com/edgecomet/pagination/internal/pagination/markup"
	"github.com/edgecomet/pagination/internal/pagination/signal"
	"github.com/edgecomet/pagination/internal/pagination/window"
)

// Kind tells page controls apart.
type Kind int

const (
	// KindLink is an anchor navigating to a page.
	KindLink Kind = iota
	// KindCurrent is the non-interactive marker of the active page.
	KindCurrent
	// KindEllipsis is an anchor standing in for a hidden run of pages.
	KindEllipsis
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindCurrent:
		return "current"
	case KindEllipsis:
		return "ellipsis"
	default:
		return "unknown"
	}
}

// Control is a page control found in, or planned for, the widget.
// Page is the page number, or the target page for an ellipsis; 0 when the
// markup gave no usable number.
type Control struct {
	Kind Kind
	Page int
	Node *html.Node
}

// isEllipsisNode reports ellipsis controls in either the theme's or our own form.
func isEllipsisNode(n *html.Node) bool {
	if htmlprocessor.HasClass(n, markup.ClassDots) || htmlprocessor.HasAttr(n, markup.AttrEllipsisPage) {
		return true
	}
	if htmlprocessor.Attr(n, markup.AttrPageID) == markup.EllipsisText {
		return true
	}
	text := strings.TrimSpace(htmlprocessor.TextContent(n))
	return htmlprocessor.IsElement(n, "a") && (text == markup.EllipsisText || text == "…")
}

// pageOf reads the page number from data-page-id, falling back to the text.
func pageOf(n *html.Node) int {
	if id := htmlprocessor.Attr(n, markup.AttrPageID); id != "" && id != markup.EllipsisText {
		if page, ok := signal.ParsePositive(id); ok {
			return page
		}
	}
	page, _ := signal.ParsePositive(htmlprocessor.TextContent(n))
	return page
}

// classify turns an element into a Control. Elements that are not page
// controls report false.
func classify(n *html.Node) (Control, bool) {
	if n.Type != html.ElementNode {
		return Control{}, false
	}

	switch {
	case isEllipsisNode(n):
		target, _ := signal.ParsePositive(htmlprocessor.Attr(n, markup.AttrEllipsisPage))
		return Control{Kind: KindEllipsis, Page: target, Node: n}, true
	case htmlprocessor.HasClass(n, markup.ClassCurrentPage):
		return Control{Kind: KindCurrent, Page: pageOf(n), Node: n}, true
	case htmlprocessor.IsElement(n, "a") &&
		(htmlprocessor.HasAttr(n, markup.AttrPageID) || htmlprocessor.HasClass(n, markup.ClassPageNumber)):
		return Control{Kind: KindLink, Page: pageOf(n), Node: n}, true
	case htmlprocessor.HasClass(n, markup.ClassPageNumber):
		return Control{Kind: KindCurrent, Page: pageOf(n), Node: n}, true
	}
	return Control{}, false
}

// collectControls lists the outermost page controls under inner in document order.
func collectControls(inner *html.Node) []Control {
	var controls []Control

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if ctl, ok := classify(c); ok {
				controls = append(controls, ctl)
				continue
			}
			walk(c)
		}
	}
	walk(inner)
	return controls
}

// Inventory maps page numbers to the existing controls claiming them.
// A current marker is preferred over a link for the same page; otherwise the
// first control in document order wins.
type Inventory map[int]Control

// buildInventory indexes link and marker controls by page.
func buildInventory(controls []Control) Inventory {
	inv := make(Inventory, len(controls))
	for _, ctl := range controls {
		if ctl.Kind == KindEllipsis || ctl.Page <= 0 {
			continue
		}
		existing, seen := inv[ctl.Page]
		if !seen || (ctl.Kind == KindCurrent && existing.Kind != KindCurrent) {
			inv[ctl.Page] = ctl
		}
	}
	return inv
}

// newCurrentMarker builds the active-page marker.
func newCurrentMarker(text string) *html.Node {
	span := htmlprocessor.NewElement("span", "class", markup.ClassPageNumber+" "+markup.ClassCurrentPage)
	htmlprocessor.SetText(span, text)
	return span
}

// newLink builds a page link with a placeholder href, resolved by the href pass.
func newLink(page int, text string) *html.Node {
	a := htmlprocessor.NewElement("a",
		"class", markup.ClassPageNumber,
		"href", "#",
		markup.AttrPageID, strconv.Itoa(page),
	)
	htmlprocessor.SetText(a, text)
	return a
}

// newEllipsis builds an ellipsis jumping to target.
func newEllipsis(target int) *html.Node {
	a := htmlprocessor.NewElement("a",
		"class", markup.ClassPageNumber+" "+markup.ClassDots,
		"href", "#",
		markup.AttrEllipsisPage, strconv.Itoa(target),
	)
	htmlprocessor.SetText(a, markup.EllipsisText)
	return a
}

// materialize turns a plan into detached nodes, reusing inventoried links
// where possible. Reused nodes are cloned so the originals can be discarded.
func materialize(plan window.Plan, current int, inv Inventory) []*html.Node {
	nodes := make([]*html.Node, 0, len(plan))

	for _, entry := range plan {
		if entry.Ellipsis {
			nodes = append(nodes, newEllipsis(entry.Page))
			continue
		}

		label := strconv.Itoa(entry.Page)
		if entry.Page == current {
			nodes = append(nodes, newCurrentMarker(label))
			continue
		}

		existing, ok := inv[entry.Page]
		switch {
		case !ok:
			nodes = append(nodes, newLink(entry.Page, label))
		case htmlprocessor.IsElement(existing.Node, "a"):
			link := htmlprocessor.Clone(existing.Node)
			htmlprocessor.RemoveClass(link, markup.ClassCurrentPage, markup.ClassScriptPage)
			nodes = append(nodes, link)
		default:
			text := strings.TrimSpace(htmlprocessor.TextContent(existing.Node))
			if text == "" {
				text = label
			}
			nodes = append(nodes, newLink(entry.Page, text))
		}
	}
	return nodes
}
