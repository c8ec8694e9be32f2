package service

import (
	"context"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/edgecomet/pagination/internal/common/htmlprocessor"
	"github.com/edgecomet/pagination/internal/common/httputil"
	"github.com/edgecomet/pagination/internal/pagination/headlinks"
	"github.com/edgecomet/pagination/internal/pagination/rewrite"
	"github.com/edgecomet/pagination/internal/pagination/signal"
	"github.com/edgecomet/pagination/internal/service/metrics"
	"github.com/edgecomet/pagination/pkg/types"
)

func (s *Service) requestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.requestTimeout)
}

// handleRewrite rewrites a pagination fragment. Processing failures are not
// errors for the caller: the input comes back unchanged.
func (s *Service) handleRewrite(ctx *fasthttp.RequestCtx, logger *zap.Logger) {
	var req types.RewriteRequest
	if err := httputil.DecodeJSON(ctx, &req); err != nil {
		httputil.JSONError(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	rc, err := requestContext(req.BaseURL, req.ContentID, req.Paged, req.Page, "")
	if err != nil {
		httputil.JSONError(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	reqCtx, cancel := s.requestCtx()
	defer cancel()

	result, err := s.rewriter.Rewrite(reqCtx, req.HTML, rc)
	if err != nil {
		logger.Warn("Pagination rewrite failed, returning input unchanged",
			zap.String("content_id", rc.ContentID),
			zap.Error(err))
		s.metrics.RecordRewrite(metrics.OutcomeError, 0)
	} else {
		s.recordWidgets(result.Widgets)
	}

	sig, _ := result.Signal()
	httputil.JSONData(ctx, types.RewriteResponse{
		HTML:        result.HTML,
		CurrentPage: sig.CurrentPage,
		TotalPages:  sig.TotalPages,
		Changed:     result.Changed,
		Windowed:    result.Windowed(),
		Widgets:     len(result.Widgets),
	}, fasthttp.StatusOK)
}

// handleHeadLinks computes rel=prev/next links before the listing markup exists.
func (s *Service) handleHeadLinks(ctx *fasthttp.RequestCtx, logger *zap.Logger) {
	var req types.HeadLinksRequest
	if err := httputil.DecodeJSON(ctx, &req); err != nil {
		httputil.JSONError(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	rc, err := requestContext(req.BaseURL, req.ContentID, req.Paged, req.Page, req.ContentSignature)
	if err != nil {
		httputil.JSONError(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	reqCtx, cancel := s.requestCtx()
	defer cancel()

	sig := s.resolver.ResolveHead(reqCtx, rc, req.QueryTotal)
	links := s.emitLinks(sig, rc)

	logger.Debug("Head links resolved",
		zap.String("content_id", rc.ContentID),
		zap.Int("current_page", sig.CurrentPage),
		zap.Int("total_pages", sig.TotalPages),
		zap.String("total_source", sig.TotalSource),
		zap.Int("links", len(links)))

	httputil.JSONData(ctx, types.HeadLinksResponse{
		Links:       toAPILinks(links),
		HTML:        headlinks.Render(links),
		CurrentPage: sig.CurrentPage,
		TotalPages:  sig.TotalPages,
	}, fasthttp.StatusOK)
}

// handleDocument processes a full page: every widget in the body is
// rewritten, head links are injected and, when enabled, the script that
// detaches the client-side pager is appended to the body.
func (s *Service) handleDocument(ctx *fasthttp.RequestCtx, logger *zap.Logger) {
	var req types.DocumentRequest
	if err := httputil.DecodeJSON(ctx, &req); err != nil {
		httputil.JSONError(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}
	if req.HTML == "" {
		httputil.JSONError(ctx, "html is required", fasthttp.StatusBadRequest)
		return
	}

	doc, err := htmlprocessor.ParseDocument(req.HTML)
	if err != nil {
		httputil.JSONError(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = doc.CanonicalURL()
	}

	signature := req.ContentSignature
	if signature == "" {
		signature = req.HTML
	}

	rc, err := requestContext(baseURL, req.ContentID, req.Paged, req.Page, signature)
	if err != nil {
		httputil.JSONError(ctx, err.Error(), fasthttp.StatusBadRequest)
		return
	}

	reqCtx, cancel := s.requestCtx()
	defer cancel()

	widgets := s.rewriter.RewriteTree(reqCtx, doc.Root(), rc)
	s.recordWidgets(widgets)

	sig := s.documentSignal(reqCtx, widgets, rc, req.QueryTotal)
	links := s.emitLinks(sig, rc)

	// Nothing to rewrite or announce: the host's own head is left alone.
	if len(widgets) == 0 && len(links) == 0 {
		httputil.JSONData(ctx, types.DocumentResponse{
			HTML:        req.HTML,
			Links:       toAPILinks(nil),
			CurrentPage: sig.CurrentPage,
			TotalPages:  sig.TotalPages,
		}, fasthttp.StatusOK)
		return
	}

	injectScript := s.injectScript
	if req.InjectScript != nil {
		injectScript = *req.InjectScript
	}
	if injectScript && len(widgets) > 0 {
		headlinks.AppendScript(doc.Root())
	}

	out, err := doc.HTML()
	if err != nil {
		logger.Warn("Failed to render document, returning input unchanged", zap.Error(err))
		s.metrics.RecordRewrite(metrics.OutcomeError, 0)
		out = req.HTML
	} else if injected, err := headlinks.Inject(out, links); err != nil {
		logger.Warn("Failed to inject head links", zap.Error(err))
	} else {
		out = injected
	}

	httputil.JSONData(ctx, types.DocumentResponse{
		HTML:        out,
		Links:       toAPILinks(links),
		CurrentPage: sig.CurrentPage,
		TotalPages:  sig.TotalPages,
		Changed:     out != req.HTML,
	}, fasthttp.StatusOK)
}

// documentSignal prefers the first widget whose markup settled the total;
// otherwise it falls back to the head resolution used before markup exists.
func (s *Service) documentSignal(ctx context.Context, widgets []rewrite.WidgetResult, rc signal.RequestContext, queryTotal int) signal.Signal {
	for _, w := range widgets {
		if !w.Signal.Ambiguous() {
			return w.Signal
		}
	}
	return s.resolver.ResolveHead(ctx, rc, queryTotal)
}

func (s *Service) emitLinks(sig signal.Signal, rc signal.RequestContext) []headlinks.HeadLink {
	links := s.emitter.Emit(sig, rc.BaseURL, rc.ContentSignature)
	for _, l := range links {
		s.metrics.RecordHeadLink(l.Rel)
	}
	return links
}

func (s *Service) handleScript(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/javascript; charset=utf-8")
	ctx.Response.Header.Set("Cache-Control", "public, max-age=3600")
	ctx.SetBodyString(headlinks.DisableAjaxScript)
}

// handleHealth always answers 200; the totals cache is best-effort, so an
// unreachable backend only degrades the reported status.
func (s *Service) handleHealth(ctx *fasthttp.RequestCtx, logger *zap.Logger) {
	status := map[string]string{
		"status": "ok",
		"cache":  "disabled",
	}

	if s.cache != nil {
		reqCtx, cancel := s.requestCtx()
		defer cancel()

		if err := s.cache.HealthCheck(reqCtx); err != nil {
			logger.Warn("Totals cache health check failed", zap.Error(err))
			status["status"] = "degraded"
			status["cache"] = "unavailable"
		} else {
			status["cache"] = "ok"
		}
	}

	httputil.JSONData(ctx, status, fasthttp.StatusOK)
}

func toAPILinks(links []headlinks.HeadLink) []types.HeadLink {
	out := make([]types.HeadLink, 0, len(links))
	for _, l := range links {
		out = append(out, types.HeadLink{Rel: l.Rel, Href: l.Href})
	}
	return out
}
