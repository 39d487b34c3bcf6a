package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Serve listens on cfg.Address and serves handler until ctx is cancelled.
func Serve(ctx context.Context, cfg *Config, handler http.Handler, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Address, err)
	}
	return ServeListener(ctx, ln, cfg, handler, logger)
}

// ServeListener serves handler on ln with the configured transport, then
// shuts down gracefully once ctx is cancelled. The listener is closed on
// return.
func ServeListener(ctx context.Context, ln net.Listener, cfg *Config, handler http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		serve    func() error
		shutdown func(context.Context) error
	)
	switch cfg.Transport {
	case "", constants.TransportNetHTTP:
		srv := &http.Server{
			Handler:      handler,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		}
		serve = func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		shutdown = srv.Shutdown
	case constants.TransportFastHTTP:
		srv := &fasthttp.Server{
			Handler:      fasthttpadaptor.NewFastHTTPHandler(handler),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		}
		// Leave headroom for multipart framing around the largest upload.
		if limit := cfg.UploadSizeBytes() + 64*1024; limit > fasthttp.DefaultMaxRequestBodySize {
			srv.MaxRequestBodySize = int(limit)
		}
		serve = func() error { return srv.Serve(ln) }
		shutdown = srv.ShutdownWithContext
	default:
		_ = ln.Close()
		return fmt.Errorf("unsupported transport %q", cfg.Transport)
	}

	logger.Info("server listening",
		zap.String("op", "server.Serve"),
		zap.String("address", ln.Addr().String()),
		zap.String("transport", cfg.Transport),
	)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- serve()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server",
		zap.String("op", "server.Serve"),
	)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-serveErr
}
