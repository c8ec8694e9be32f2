// Package service exposes the pagination rewriter over HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/edgecomet/pagination/internal/common/httputil"
	"github.com/edgecomet/pagination/internal/common/requestid"
	"github.com/edgecomet/pagination/internal/common/urlutil"
	"github.com/edgecomet/pagination/internal/pagination/headlinks"
	"github.com/edgecomet/pagination/internal/pagination/pageurl"
	"github.com/edgecomet/pagination/internal/pagination/rewrite"
	"github.com/edgecomet/pagination/internal/pagination/signal"
	"github.com/edgecomet/pagination/internal/service/metrics"
)

// Endpoint paths
const (
	PathRewrite   = "/pagination/rewrite"
	PathHeadLinks = "/pagination/head-links"
	PathDocument  = "/pagination/document"
	PathScript    = "/pagination/disable-ajax.js"
	PathHealth    = "/health"
)

const defaultRequestTimeout = 5 * time.Second

var errInvalidBaseURL = errors.New("base_url must be an absolute http(s) URL")

// Recorder receives per-request measurements. PrometheusMetrics implements it.
type Recorder interface {
	RecordRequest(endpoint string, status int, duration time.Duration)
	RecordRewrite(outcome string, totalPages int)
	RecordHeadLink(rel string)
}

// HealthChecker reports the health of the totals cache backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options wires the service. Rewriter and Resolver are required.
type Options struct {
	Rewriter       *rewrite.Rewriter
	Resolver       *signal.Resolver
	Emitter        *headlinks.Emitter
	Metrics        Recorder
	Cache          HealthChecker
	InjectScript   bool
	RequestTimeout time.Duration
}

// Service handles the pagination API.
type Service struct {
	rewriter       *rewrite.Rewriter
	resolver       *signal.Resolver
	emitter        *headlinks.Emitter
	metrics        Recorder
	cache          HealthChecker
	injectScript   bool
	requestTimeout time.Duration
	logger         *zap.Logger
}

// New creates a Service.
func New(opts Options, logger *zap.Logger) (*Service, error) {
	if opts.Rewriter == nil {
		return nil, fmt.Errorf("rewriter is required")
	}
	if opts.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		rewriter:       opts.Rewriter,
		resolver:       opts.Resolver,
		emitter:        opts.Emitter,
		metrics:        opts.Metrics,
		cache:          opts.Cache,
		injectScript:   opts.InjectScript,
		requestTimeout: opts.RequestTimeout,
		logger:         logger,
	}
	if s.emitter == nil {
		s.emitter = headlinks.NewEmitter(nil)
	}
	if s.metrics == nil {
		s.metrics = noopRecorder{}
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = defaultRequestTimeout
	}
	return s, nil
}

// ServeHTTP routes API requests.
func (s *Service) ServeHTTP(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	id := requestid.FromRequest(ctx)
	logger := s.logger.With(zap.String("request_id", id))

	path := string(ctx.Path())
	method := string(ctx.Method())

	var endpoint string
	switch {
	case method == "POST" && path == PathRewrite:
		endpoint = "rewrite"
		s.handleRewrite(ctx, logger)
	case method == "POST" && path == PathHeadLinks:
		endpoint = "head_links"
		s.handleHeadLinks(ctx, logger)
	case method == "POST" && path == PathDocument:
		endpoint = "document"
		s.handleDocument(ctx, logger)
	case method == "GET" && path == PathScript:
		endpoint = "script"
		s.handleScript(ctx)
	case method == "GET" && path == PathHealth:
		endpoint = "health"
		s.handleHealth(ctx, logger)
	default:
		endpoint = "unknown"
		httputil.JSONError(ctx, "Not found", fasthttp.StatusNotFound)
	}

	status := ctx.Response.StatusCode()
	s.metrics.RecordRequest(endpoint, status, time.Since(start))

	logger.Debug("Request handled",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)))
}

// requestContext validates the caller's route information. The content id
// defaults to a hash of the canonical listing URL.
func requestContext(baseURL, contentID string, paged, page int, signature string) (signal.RequestContext, error) {
	if baseURL == "" {
		return signal.RequestContext{}, rewrite.ErrMissingBaseURL
	}

	base := pageurl.NormalizeBase(baseURL)
	canonical, err := urlutil.Canonicalize(base)
	if err != nil {
		return signal.RequestContext{}, fmt.Errorf("%w: %v", errInvalidBaseURL, err)
	}
	if contentID == "" {
		contentID = urlutil.Hash(canonical)
	}

	return signal.RequestContext{
		BaseURL:          base,
		ContentID:        contentID,
		Paged:            paged,
		Page:             page,
		ContentSignature: signature,
	}, nil
}

// recordWidgets records one rewrite outcome per widget.
func (s *Service) recordWidgets(widgets []rewrite.WidgetResult) {
	for _, w := range widgets {
		s.metrics.RecordRewrite(outcomeOf(w), w.Signal.TotalPages)
	}
}

func outcomeOf(w rewrite.WidgetResult) string {
	switch {
	case w.Windowed:
		return metrics.OutcomeWindowed
	case w.Corrected:
		return metrics.OutcomeCorrected
	case w.Err != nil:
		return metrics.OutcomePassthrough
	default:
		return metrics.OutcomeUnchanged
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordRequest(string, int, time.Duration) {}
func (noopRecorder) RecordRewrite(string, int)                {}
func (noopRecorder) RecordHeadLink(string)                    {}
