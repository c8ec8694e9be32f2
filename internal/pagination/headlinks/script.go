package headlinks

import (
	"golang.org/x/net/html"

	"github.com/edgecomet/pagination/internal/common/htmlprocessor"
)

// ScriptID identifies the inline script element added by AppendScript.
const ScriptID = "mk-pagination-crawlable"

// DisableAjaxScript detaches the theme's client-side pager from rewritten
// widgets so links navigate normally. Clicks are only swallowed on controls
// that have no real href.
const DisableAjaxScript = `jQuery(document).ready(function($) {
	$(document).off('click', '.js-pagination-page');
	$(document).off('click', '.mk-pagination-inner a');
	$(document).off('click', '.js-pagination-prev');
	$(document).off('click', '.js-pagination-next');

	$('.mk-pagination-inner').off('click');
	$('.mk-pagination-previous').off('click');
	$('.mk-pagination-next').off('click');

	$('.js-pagination-page').removeClass('js-pagination-page');
	$('.js-pagination-prev').removeClass('js-pagination-prev');
	$('.js-pagination-next').removeClass('js-pagination-next');

	$('.mk-pagination-inner a, .mk-pagination-previous, .mk-pagination-next').off('click').on('click', function(e) {
		var href = $(this).attr('href');
		if (href && href !== '#') {
			return true;
		}
		e.preventDefault();
		return false;
	});
});
`

// ScriptTag wraps DisableAjaxScript in an inline script element.
func ScriptTag() string {
	return `<script id="` + ScriptID + `">` + "\n" + DisableAjaxScript + "</script>\n"
}

// AppendScript adds the inline script at the end of the document body unless
// it is already there. It reports whether the tree changed.
func AppendScript(root *html.Node) bool {
	body := htmlprocessor.FindElement(root, "body")
	if body == nil {
		return false
	}

	existing := htmlprocessor.FindAll(root, func(n *html.Node) bool {
		return htmlprocessor.IsElement(n, "script") && htmlprocessor.Attr(n, "id") == ScriptID
	})
	if len(existing) > 0 {
		return false
	}

	script := htmlprocessor.NewElement("script", "id", ScriptID)
	script.AppendChild(&html.Node{Type: html.TextNode, Data: "\n" + DisableAjaxScript})
	body.AppendChild(script)
	return true
}
