package rewrite

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/edgecomet/pagination/internal/common/htmlprocessor"
	"github.com/edgecomet/pagination/internal/pagination/markup"
)

// CorrectCurrent fixes the active-page indicator of a widget that shows every
// page. The theme may mark the wrong page active, so every current-page class
// under inner is dropped first. The link for current is then replaced in place
// by a current marker. Stale markers for other pages become links again so
// each page keeps exactly one control.
//
// When no control for current exists the widget is left without a marker;
// CorrectCurrent reports false in that case.
func CorrectCurrent(inner *html.Node, current int) bool {
	controls := collectControls(inner)

	var markers []Control
	for _, ctl := range controls {
		if ctl.Kind == KindCurrent {
			markers = append(markers, ctl)
		}
	}
	for _, n := range htmlprocessor.FindAll(inner, func(n *html.Node) bool {
		return htmlprocessor.HasClass(n, markup.ClassCurrentPage)
	}) {
		htmlprocessor.RemoveClass(n, markup.ClassCurrentPage)
	}

	var target *html.Node
	for _, ctl := range controls {
		if ctl.Kind != KindEllipsis && ctl.Page == current && htmlprocessor.IsElement(ctl.Node, "a") {
			target = ctl.Node
			break
		}
	}

	found := false
	if target != nil {
		htmlprocessor.Replace(target, newCurrentMarker(strings.TrimSpace(htmlprocessor.TextContent(target))))
		found = true
	}

	for _, m := range markers {
		switch {
		case htmlprocessor.IsElement(m.Node, "a"):
			// Anchors that only carried the class are already plain links now.
		case m.Page == current && !found:
			htmlprocessor.AddClass(m.Node, markup.ClassCurrentPage)
			found = true
		case m.Page == current:
			htmlprocessor.Detach(m.Node)
		case m.Page > 0:
			text := strings.TrimSpace(htmlprocessor.TextContent(m.Node))
			if text == "" {
				text = strconv.Itoa(m.Page)
			}
			htmlprocessor.Replace(m.Node, newLink(m.Page, text))
		}
	}

	return found
}
