package metricsserver

import (
	"fmt"
	"net"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/edgecomet/pagination/internal/common/configtypes"
)

// MetricsHandler serves the metrics exposition.
type MetricsHandler interface {
	ServeHTTP(ctx *fasthttp.RequestCtx)
}

// Start binds the metrics listener and serves it in the background.
// It returns nil, nil when metrics are disabled. Bind errors are returned
// synchronously.
func Start(cfg configtypes.MetricsConfig, handler MetricsHandler, logger *zap.Logger) (*fasthttp.Server, error) {
	if !cfg.Enabled {
		logger.Info("Metrics collection disabled")
		return nil, nil
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}

	server := &fasthttp.Server{
		Handler:            newHandler(cfg.Path, handler),
		Name:               "Pagination-Metrics",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxRequestBodySize: 1 * 1024,
		TCPKeepalive:       true,
		TCPKeepalivePeriod: 30 * time.Second,
		MaxConnsPerIP:      100,
		Concurrency:        100,
	}

	go func() {
		logger.Info("Metrics server listening",
			zap.String("listen", ln.Addr().String()),
			zap.String("path", cfg.Path))

		if err := server.Serve(ln); err != nil {
			logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	return server, nil
}

func newHandler(path string, metrics MetricsHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == path {
			metrics.ServeHTTP(ctx)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("Not Found")
	}
}
