package service

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/edgecomet/pagination/internal/common/configtypes"
)

// Server runs the API on fasthttp.
type Server struct {
	server   *fasthttp.Server
	listener net.Listener
	logger   *zap.Logger
}

// NewServer creates a server for handler using the timeouts and body limit of cfg.
func NewServer(cfg configtypes.ServerConfig, handler fasthttp.RequestHandler, logger *zap.Logger) *Server {
	timeout := time.Duration(cfg.Timeout)

	return &Server{
		server: &fasthttp.Server{
			Handler:                      handler,
			Name:                         "PaginationService/1.0",
			ReadTimeout:                  timeout,
			WriteTimeout:                 timeout,
			IdleTimeout:                  60 * time.Second,
			MaxRequestBodySize:           cfg.MaxBodySize,
			DisablePreParseMultipartForm: true,
			NoDefaultServerHeader:        true,
			NoDefaultDate:                true,
		},
		logger: logger,
	}
}

// Start binds addr and serves in the background. Bind errors are returned
// synchronously.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener in the background.
func (s *Server) Serve(ln net.Listener) error {
	s.listener = ln

	go func() {
		s.logger.Info("HTTP API server listening", zap.String("addr", ln.Addr().String()))
		if err := s.server.Serve(ln); err != nil {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or empty string before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.ShutdownWithContext(ctx)
}
