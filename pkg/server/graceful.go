// Package server runs the HTTP API with signal-driven graceful shutdown and
// configuration reload.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/agrorisk/pkg/logging"
)

// Defaults for Options.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

// ConfigReloadFunc reloads configuration on SIGHUP.
type ConfigReloadFunc func() error

// Options configures a GracefulServer. Zero durations take the defaults.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Logger          logging.Logger
}

// GracefulServer wraps an HTTP server with graceful shutdown capabilities.
type GracefulServer struct {
	server          *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration
	shutdownCh      chan struct{}
	shutdownOnce    sync.Once
	shutdownErr     error
	configReloadFn  ConfigReloadFunc
	configMu        sync.RWMutex
}

// NewGracefulServer creates a server for handler.
func NewGracefulServer(handler http.Handler, opts Options) *GracefulServer {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &GracefulServer{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           handler,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
			MaxHeaderBytes:    1 << 20,
		},
		logger:          logging.OrDefault(opts.Logger).With(logging.Component("server")),
		shutdownTimeout: opts.ShutdownTimeout,
		shutdownCh:      make(chan struct{}),
	}
}

// Run listens on the configured address and serves until ctx is done or a
// SIGINT/SIGTERM arrives, then shuts down gracefully.
func (gs *GracefulServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", gs.server.Addr, err)
	}
	return gs.Serve(ctx, ln)
}

// Serve is Run on an existing listener. SIGHUP triggers ReloadConfig.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	serveErr := make(chan error, 1)
	go func() {
		gs.logger.Info("starting HTTP server", logging.String("addr", ln.Addr().String()))
		serveErr <- gs.server.Serve(ln)
	}()

	for {
		select {
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				<-gs.shutdownCh
				return gs.shutdownErr
			}
			return fmt.Errorf("serve: %w", err)

		case <-ctx.Done():
			gs.logger.Info("context done, starting graceful shutdown")
			return gs.Shutdown(gs.shutdownTimeout)

		case <-gs.shutdownCh:
			<-serveErr
			return gs.shutdownErr

		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				gs.logger.Info("received SIGHUP, reloading configuration")
				_ = gs.ReloadConfig()
				continue
			}
			gs.logger.Info("received signal, starting graceful shutdown", logging.String("signal", sig.String()))
			return gs.Shutdown(gs.shutdownTimeout)
		}
	}
}

// Shutdown stops accepting connections and waits up to timeout for
// in-flight requests. Only the first call has an effect.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	gs.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))
		if err := gs.server.Shutdown(ctx); err != nil {
			gs.shutdownErr = fmt.Errorf("shutdown: %w", err)
			gs.logger.Error("error during shutdown", logging.Error(err))
		} else {
			gs.logger.Info("server shutdown complete")
		}
		close(gs.shutdownCh)
	})
	<-gs.shutdownCh
	return gs.shutdownErr
}

// IsShuttingDown reports whether shutdown has completed.
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// SetConfigReloadFunc sets the function called on SIGHUP.
func (gs *GracefulServer) SetConfigReloadFunc(fn ConfigReloadFunc) {
	gs.configMu.Lock()
	defer gs.configMu.Unlock()
	gs.configReloadFn = fn
}

// ReloadConfig runs the reload function, if any.
func (gs *GracefulServer) ReloadConfig() error {
	gs.configMu.RLock()
	reloadFn := gs.configReloadFn
	gs.configMu.RUnlock()

	if reloadFn == nil {
		gs.logger.Warn("configuration reload requested, but no reload function configured")
		return nil
	}
	if err := reloadFn(); err != nil {
		gs.logger.Error("configuration reload failed", logging.Error(err))
		return err
	}
	gs.logger.Info("configuration reload complete")
	return nil
}
