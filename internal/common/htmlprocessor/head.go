package htmlprocessor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// InjectHeadMarkup inserts markup into the <head> of a full document, right
// after the canonical link when one exists, otherwise at the end of head.
// Existing elements matching replaceSelector (if non-empty) are removed first
// so repeated injection does not duplicate tags.
func InjectHeadMarkup(document, markup, replaceSelector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	head := doc.Find("head").First()
	if head.Length() == 0 {
		return "", fmt.Errorf("document has no head element")
	}

	if replaceSelector != "" {
		head.Find(replaceSelector).Remove()
	}

	if markup != "" {
		canonical := head.Find(`link[rel="canonical"]`).First()
		if canonical.Length() > 0 {
			canonical.AfterHtml(markup)
		} else {
			head.AppendHtml(markup)
		}
	}

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return out, nil
}
