// Package rewrite turns the theme's script-driven pagination widget into
// crawlable markup: real hrefs, an accurate current-page marker and a
// bounded sliding window of visible pages.
package rewrite

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/edgecomet/pagination/internal/common/htmlprocessor"
	"github.com/edgecomet/pagination/internal/pagination/markup"
	"github.com/edgecomet/pagination/internal/pagination/pageurl"
	"github.com/edgecomet/pagination/internal/pagination/signal"
	"github.com/edgecomet/pagination/internal/pagination/window"
)

var (
	// ErrParseFailure means the markup could not be parsed or serialized.
	ErrParseFailure = errors.New("pagination markup could not be processed")
	// ErrMissingContainer means page links were found outside any
	// .mk-pagination-inner element, so neither the window nor the
	// current-page correction could be applied.
	ErrMissingContainer = errors.New("pagination container not found")
	// ErrMissingBaseURL means the request carried no listing URL to link to.
	ErrMissingBaseURL = errors.New("base url is required")
)

// WidgetResult describes what happened to one pagination widget.
type WidgetResult struct {
	Signal    signal.Signal
	Windowed  bool
	Corrected bool
	Err       error
}

// Result of a fragment rewrite. HTML is always usable: on failure it is the
// input, unchanged.
type Result struct {
	HTML    string
	Widgets []WidgetResult
	Changed bool
}

// Signal returns the first widget's signal.
func (r *Result) Signal() (signal.Signal, bool) {
	if r == nil || len(r.Widgets) == 0 {
		return signal.Signal{}, false
	}
	return r.Widgets[0].Signal, true
}

// Windowed reports whether any widget was cut down to a sliding window.
func (r *Result) Windowed() bool {
	if r == nil {
		return false
	}
	for _, w := range r.Widgets {
		if w.Windowed {
			return true
		}
	}
	return false
}

// Rewriter rewrites pagination widgets. It keeps no per-request state and is
// safe for concurrent use when its resolver's cache is.
type Rewriter struct {
	resolver   *signal.Resolver
	windowSize int
	logger     *zap.Logger
}

// NewRewriter creates a Rewriter. A non-positive windowSize selects window.DefaultSize.
func NewRewriter(resolver *signal.Resolver, windowSize int, logger *zap.Logger) *Rewriter {
	if windowSize <= 0 {
		windowSize = window.DefaultSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = signal.NewResolver(nil, logger)
	}
	return &Rewriter{
		resolver:   resolver,
		windowSize: windowSize,
		logger:     logger,
	}
}

// WindowSize returns the configured number of contiguous pages.
func (r *Rewriter) WindowSize() int {
	return r.windowSize
}

// Rewrite processes a markup fragment. Fragments without pagination markup
// are returned unchanged without being parsed. The returned error is
// informational: Result.HTML always holds markup safe to emit.
func (r *Rewriter) Rewrite(ctx context.Context, src string, rc signal.RequestContext) (*Result, error) {
	result := &Result{HTML: src}

	if !markup.Detect(src) {
		return result, nil
	}
	if rc.BaseURL == "" {
		return result, ErrMissingBaseURL
	}

	frag, err := htmlprocessor.ParseFragment(src)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	widgets := r.RewriteTree(ctx, frag.Root(), rc)
	if len(widgets) == 0 {
		return result, nil
	}

	out, err := frag.HTML()
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	result.HTML = out
	result.Widgets = widgets
	result.Changed = out != src
	return result, nil
}

// RewriteString is Rewrite without diagnostics: it returns the rewritten
// fragment, or src when anything went wrong.
func (r *Rewriter) RewriteString(ctx context.Context, src string, rc signal.RequestContext) string {
	result, err := r.Rewrite(ctx, src, rc)
	if err != nil {
		r.logger.Warn("Pagination rewrite skipped", zap.Error(err))
	}
	return result.HTML
}

// RewriteTree rewrites every pagination widget under root in place.
// rc.BaseURL must be set. Widgets are returned in document order; an empty
// slice means root holds no pagination.
func (r *Rewriter) RewriteTree(ctx context.Context, root *html.Node, rc signal.RequestContext) []WidgetResult {
	base := pageurl.NormalizeBase(rc.BaseURL)

	var results []WidgetResult
	for _, w := range findWidgets(root) {
		res := r.rewriteWidget(ctx, w, base, rc)
		if res.Err != nil {
			r.logger.Debug("Pagination widget partially rewritten",
				zap.String("content_id", rc.ContentID),
				zap.Error(res.Err))
		}
		results = append(results, res)
	}
	return results
}

// widget is one pagination instance: scope holds the counters, arrows and
// attributes; inner holds the page controls and may be nil.
type widget struct {
	scope *html.Node
	inner *html.Node
}

// findWidgets locates pagination widgets. Each .mk-pagination-inner is scoped
// to its closest .mk-pagination ancestor. Page links with no inner element at
// all form a single container-less widget.
func findWidgets(root *html.Node) []widget {
	var widgets []widget
	for _, inner := range markup.QueryAll(root, markup.Inner) {
		if hasInnerAncestor(inner, root) {
			continue
		}
		widgets = append(widgets, widget{scope: scopeOf(inner, root), inner: inner})
	}

	if len(widgets) == 0 && markup.Query(root, markup.PageLink) != nil {
		widgets = append(widgets, widget{scope: root})
	}
	return widgets
}

func hasInnerAncestor(n, root *html.Node) bool {
	for p := n.Parent; p != nil && p != root; p = p.Parent {
		if markup.Inner.Match(p) {
			return true
		}
	}
	return false
}

// scopeOf returns the closest .mk-pagination ancestor of inner. Without one
// the scope is inner's parent, or inner itself when that parent also holds
// another widget's controls.
func scopeOf(inner, root *html.Node) *html.Node {
	for p := inner.Parent; p != nil && p != root; p = p.Parent {
		if markup.Widget.Match(p) {
			return p
		}
	}

	parent := inner.Parent
	if parent == nil {
		return inner
	}
	for _, other := range markup.QueryAll(parent, markup.Inner) {
		if other != inner && !htmlprocessor.IsAncestor(inner, other) {
			return inner
		}
	}
	return parent
}

func (r *Rewriter) rewriteWidget(ctx context.Context, w widget, base string, rc signal.RequestContext) WidgetResult {
	sig := r.resolver.Resolve(ctx, w.scope, rc)
	res := WidgetResult{Signal: sig}

	switch {
	case w.inner == nil:
		res.Err = ErrMissingContainer
	case sig.Ambiguous():
		res.Err = signal.ErrAmbiguous
	case sig.TotalPages > r.windowSize:
		r.applyWindow(w.inner, sig)
		res.Windowed = true
	default:
		res.Corrected = CorrectCurrent(w.inner, sig.CurrentPage)
	}

	if w.inner != nil {
		normalizeMarkers(w.inner)
	}
	relinkArrows(w.scope, sig, base)
	relinkControls(w, base)
	stripScriptHooks(w.scope)

	r.logger.Debug("Rewrote pagination widget",
		zap.String("content_id", rc.ContentID),
		zap.Int("current_page", sig.CurrentPage),
		zap.Int("total_pages", sig.TotalPages),
		zap.Bool("windowed", res.Windowed))

	return res
}

// applyWindow replaces the widget's controls with the planned ones, in plan order.
func (r *Rewriter) applyWindow(inner *html.Node, sig signal.Signal) {
	controls := collectControls(inner)
	inv := buildInventory(controls)

	plan := window.Compute(sig.CurrentPage, sig.TotalPages, r.windowSize)
	nodes := materialize(plan, sig.CurrentPage, inv)

	for _, ctl := range controls {
		htmlprocessor.Detach(ctl.Node)
	}
	for _, n := range nodes {
		inner.AppendChild(n)
	}
}

// normalizeMarkers gives every current marker its styling classes and strips
// the page id the theme's script keys on.
func normalizeMarkers(inner *html.Node) {
	for _, ctl := range collectControls(inner) {
		if ctl.Kind != KindCurrent || !htmlprocessor.HasClass(ctl.Node, markup.ClassCurrentPage) {
			continue
		}
		htmlprocessor.RemoveClass(ctl.Node, markup.ClassScriptPage)
		htmlprocessor.AddClass(ctl.Node, markup.ClassCurrentPage, markup.ClassPageNumber)
		htmlprocessor.RemoveAttr(ctl.Node, markup.AttrPageID)
	}
}

// relinkArrows points prev/next arrows at the neighbouring pages when they exist.
func relinkArrows(scope *html.Node, sig signal.Signal, base string) {
	if sig.CurrentPage > 1 {
		for _, arrow := range markup.QueryAll(scope, markup.PrevArrow) {
			htmlprocessor.SetAttr(arrow, "href", pageurl.Build(base, sig.CurrentPage-1))
		}
	}
	if sig.CurrentPage < sig.TotalPages {
		for _, arrow := range markup.QueryAll(scope, markup.NextArrow) {
			htmlprocessor.SetAttr(arrow, "href", pageurl.Build(base, sig.CurrentPage+1))
		}
	}
}

// relinkControls writes canonical hrefs on every link and ellipsis of the widget.
func relinkControls(w widget, base string) {
	seen := make(map[*html.Node]bool)
	var targets []Control

	if w.inner != nil {
		for _, ctl := range collectControls(w.inner) {
			if htmlprocessor.IsElement(ctl.Node, "a") && ctl.Kind != KindCurrent {
				seen[ctl.Node] = true
				targets = append(targets, ctl)
			}
		}
	}
	for _, link := range markup.QueryAll(w.scope, markup.PageLink) {
		if seen[link] {
			continue
		}
		if ctl, ok := classify(link); ok && ctl.Kind != KindCurrent {
			targets = append(targets, ctl)
		}
	}

	for _, ctl := range targets {
		if ctl.Page > 0 {
			htmlprocessor.SetAttr(ctl.Node, "href", pageurl.Build(base, ctl.Page))
		}
		if ctl.Kind == KindEllipsis {
			htmlprocessor.RemoveAttr(ctl.Node, markup.AttrEllipsisPage)
		}
	}
}

var scriptHookClasses = []string{markup.ClassScriptPage, markup.ClassScriptPrev, markup.ClassScriptNext}

// stripScriptHooks removes the classes and attributes the theme's client-side
// pager binds to from scope and every element under it.
func stripScriptHooks(scope *html.Node) {
	strip := func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		for _, class := range scriptHookClasses {
			if htmlprocessor.HasClass(n, class) {
				htmlprocessor.RemoveClass(n, scriptHookClasses...)
				break
			}
		}
		if htmlprocessor.HasAttr(n, markup.AttrPageID) {
			htmlprocessor.RemoveAttr(n, markup.AttrPageID)
		}
	}

	strip(scope)
	htmlprocessor.FindAll(scope, func(n *html.Node) bool {
		strip(n)
		return false
	})
}
