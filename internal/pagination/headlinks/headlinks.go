// Package headlinks emits rel=prev/next hints for paginated listings.
package headlinks

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/edgecomet/pagination/internal/common/htmlprocessor"
	"github.com/edgecomet/pagination/internal/pagination/pageurl"
	"github.com/edgecomet/pagination/internal/pagination/signal"
)

const (
	RelPrev = "prev"
	RelNext = "next"
)

// ReplaceSelector matches head links that Inject replaces.
const ReplaceSelector = `link[rel="prev"], link[rel="next"]`

// DefaultSignatures are content substrings of page-builder listings that
// render the theme's blog widget.
var DefaultSignatures = []string{"mk_blog", "vc_row", "[blog"}

// HeadLink is a single <link> element for the document head.
type HeadLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// SignaturePredicate guesses from raw content whether a first page whose
// total is still unknown will turn out to be paginated.
type SignaturePredicate interface {
	MayPaginate(signature string) bool
}

// SubstringPredicate matches when the signature contains any of its substrings.
type SubstringPredicate []string

func (p SubstringPredicate) MayPaginate(signature string) bool {
	if signature == "" {
		return false
	}
	for _, s := range p {
		if s != "" && strings.Contains(signature, s) {
			return true
		}
	}
	return false
}

// Emitter decides which head links a render gets.
type Emitter struct {
	predicate SignaturePredicate
}

// NewEmitter creates an Emitter. A nil predicate uses DefaultSignatures.
func NewEmitter(predicate SignaturePredicate) *Emitter {
	if predicate == nil {
		predicate = SubstringPredicate(DefaultSignatures)
	}
	return &Emitter{predicate: predicate}
}

// Emit returns prev when a previous page exists and next when a later page
// exists. On the first page of a listing with an unknown total, next is
// emitted only if the content signature suggests pagination.
func (e *Emitter) Emit(sig signal.Signal, base, signature string) []HeadLink {
	current := max(sig.CurrentPage, 1)

	if current == 1 && sig.TotalPages <= 1 && !e.predicate.MayPaginate(signature) {
		return nil
	}

	var links []HeadLink
	if current > 1 {
		links = append(links, HeadLink{Rel: RelPrev, Href: pageurl.Build(base, current-1)})
	}
	if current < sig.TotalPages || (current == 1 && sig.TotalPages <= 1) {
		links = append(links, HeadLink{Rel: RelNext, Href: pageurl.Build(base, current+1)})
	}
	return links
}

// Render formats links as head markup, one element per line.
func Render(links []HeadLink) string {
	var b strings.Builder
	for _, l := range links {
		b.WriteString(`<link rel="`)
		b.WriteString(html.EscapeString(l.Rel))
		b.WriteString(`" href="`)
		b.WriteString(html.EscapeString(l.Href))
		b.WriteString("\" />\n")
	}
	return b.String()
}

// Inject writes links into the head of document, replacing any existing
// prev/next links.
func Inject(document string, links []HeadLink) (string, error) {
	return htmlprocessor.InjectHeadMarkup(document, Render(links), ReplaceSelector)
}
