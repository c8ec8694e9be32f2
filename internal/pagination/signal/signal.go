// Package signal derives the current page and total page count of a listing
// from several fallback sources of varying reliability.
package signal

import (
	"context"
	"errors"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/edgecomet/pagination/internal/common/htmlprocessor"
	"github.com/edgecomet/pagination/internal/pagination/markup"
)

// Source names reported in Signal.
const (
	SourceInitAttr     = "init_attr"
	SourceCurrentText  = "current_text"
	SourceRoutePaged   = "route_paged"
	SourceRoutePage    = "route_page"
	SourceMaxAttr      = "max_attr"
	SourceMaxLink      = "max_link"
	SourceMaxText      = "max_text"
	SourceQuery        = "query"
	SourceCache        = "cache"
	SourceCurrentFloor = "current_floor"
	SourceDefault      = "default"
)

// ErrAmbiguous marks a signal whose total page count is only a default.
// Callers leave the widget's structure alone for such signals.
var ErrAmbiguous = errors.New("pagination signal is ambiguous")

// Signal is the resolved pagination position. TotalPages 0 means unknown.
type Signal struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`

	CurrentSource string `json:"-"`
	TotalSource   string `json:"-"`
}

// Ambiguous reports that no markup or query source provided the total and
// the value is a default.
func (s Signal) Ambiguous() bool {
	return s.TotalSource == SourceDefault || s.TotalPages == 0
}

// RequestContext is what the host knows about the current render.
type RequestContext struct {
	BaseURL   string
	ContentID string

	// Paged is the listing's route page variable; Page is the fallback used
	// by static front pages. Non-positive values mean absent.
	Paged int
	Page  int

	// ContentSignature is the raw source of the rendered content, used by
	// first-page heuristics that guess whether pagination will appear.
	ContentSignature string
}

// RoutePage returns the page requested by the route, defaulting to 1.
func (rc RequestContext) RoutePage() (int, string) {
	if v, ok := positive(rc.Paged); ok {
		return v, SourceRoutePaged
	}
	if v, ok := positive(rc.Page); ok {
		return v, SourceRoutePage
	}
	return 1, SourceDefault
}

// TotalsCache remembers a listing's total page count across requests.
// Implementations are best-effort: failures read as a miss and are not reported.
type TotalsCache interface {
	GetTotal(ctx context.Context, contentID string) (int, bool)
	SetTotal(ctx context.Context, contentID string, total int)
}

// Resolver resolves pagination signals. A nil cache disables caching.
type Resolver struct {
	cache  TotalsCache
	logger *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(cache TotalsCache, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{cache: cache, logger: logger}
}

// Resolve derives the signal from a parsed fragment and the request context.
// When a total above one is found it is stored for later head-link renders.
func (r *Resolver) Resolve(ctx context.Context, root *html.Node, rc RequestContext) Signal {
	container := root
	if !markup.Container.Match(root) {
		container = markup.Query(root, markup.Container)
	}

	current, currentSource, ok := First(
		NamedProbe{SourceInitAttr, attrProbe(container, markup.AttrInitPage)},
		NamedProbe{SourceCurrentText, textProbe(root, markup.CurrentPageDisplay)},
	)
	if !ok {
		current, currentSource = rc.RoutePage()
	}

	total, totalSource, ok := First(
		NamedProbe{SourceMaxAttr, attrProbe(container, markup.AttrMaxPages)},
		NamedProbe{SourceMaxLink, maxLinkProbe(root)},
		NamedProbe{SourceMaxText, textProbe(root, markup.MaxPagesDisplay)},
	)
	if !ok {
		total, totalSource = 1, SourceDefault
	}

	sig := Signal{
		CurrentPage:   current,
		TotalPages:    total,
		CurrentSource: currentSource,
		TotalSource:   totalSource,
	}

	r.logger.Debug("Resolved pagination signal",
		zap.Int("current_page", sig.CurrentPage),
		zap.String("current_source", sig.CurrentSource),
		zap.Int("total_pages", sig.TotalPages),
		zap.String("total_source", sig.TotalSource))

	if sig.TotalPages > 1 && rc.ContentID != "" && r.cache != nil {
		r.cache.SetTotal(ctx, rc.ContentID, sig.TotalPages)
	}

	return sig
}

// ResolveHead derives the signal for head-link rendering, where no markup is
// available yet. queryTotal is the host's own page count for the listing
// (0 when its query has no pagination awareness); a larger cached total wins.
// On pages past the first, an unknown total is raised to the current page so
// that at least rel=prev can be emitted.
func (r *Resolver) ResolveHead(ctx context.Context, rc RequestContext, queryTotal int) Signal {
	current, currentSource := rc.RoutePage()

	total, totalSource := 0, SourceDefault
	if queryTotal > 0 {
		total, totalSource = queryTotal, SourceQuery
	}

	if r.cache != nil && rc.ContentID != "" {
		if cached, ok := r.cache.GetTotal(ctx, rc.ContentID); ok && cached > total {
			total, totalSource = cached, SourceCache
		}
	}

	if current > 1 && total < current {
		total, totalSource = current, SourceCurrentFloor
	}

	return Signal{
		CurrentPage:   current,
		TotalPages:    total,
		CurrentSource: currentSource,
		TotalSource:   totalSource,
	}
}

func attrProbe(node *html.Node, attr string) Probe {
	return func() (int, bool) {
		if node == nil {
			return 0, false
		}
		return ParsePositive(htmlprocessor.Attr(node, attr))
	}
}

func textProbe(root *html.Node, sel cascadia.Selector) Probe {
	return func() (int, bool) {
		node := markup.Query(root, sel)
		if node == nil {
			return 0, false
		}
		return ParsePositive(htmlprocessor.TextContent(node))
	}
}

func maxLinkProbe(root *html.Node) Probe {
	return func() (int, bool) {
		highest := 0
		for _, link := range markup.QueryAll(root, markup.PageLink) {
			if n, ok := ParsePositive(htmlprocessor.Attr(link, markup.AttrPageID)); ok && n > highest {
				highest = n
			}
		}
		return positive(highest)
	}
}
