package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sales-dashboard/internal/config"
)

const hookTimeout = 10 * time.Second

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

type GracefulServer struct {
	server *http.Server
	logger *slog.Logger
	config *config.Config
	hooks  []shutdownHook
	mu     sync.RWMutex
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, config *config.Config) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		config: config,
	}
}

// RegisterShutdownHook adds fn to the work done after a shutdown signal.
// Hooks run concurrently with the HTTP server drain.
func (gs *GracefulServer) RegisterShutdownHook(name string, fn func(ctx context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, shutdownHook{name: name, fn: fn})
}

// ListenAndServe serves until SIGINT or SIGTERM and then shuts down.
func (gs *GracefulServer) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", gs.server.Addr, err)
	}
	return gs.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is done, then runs the shutdown hooks and
// drains in-flight requests within the configured shutdown timeout.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	serverErrors := make(chan error, 1)

	go func() {
		gs.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"read_timeout", gs.config.Server.ReadTimeout,
			"write_timeout", gs.config.Server.WriteTimeout,
		)
		serverErrors <- gs.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		gs.logger.Info("shutdown requested", "cause", context.Cause(ctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.config.Server.ShutdownTimeout)
		defer cancel()

		return gs.shutdown(shutdownCtx)
	}
}

func (gs *GracefulServer) shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown",
		"timeout", gs.config.Server.ShutdownTimeout,
	)

	gs.mu.RLock()
	hooks := make([]shutdownHook, len(gs.hooks))
	copy(hooks, gs.hooks)
	gs.mu.RUnlock()

	var wg sync.WaitGroup
	errChan := make(chan error, len(hooks)+1)

	for _, hook := range hooks {
		wg.Add(1)
		go func(h shutdownHook) {
			defer wg.Done()

			hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
			defer cancel()

			gs.logger.Debug("executing shutdown hook", "hook", h.name)
			if err := h.fn(hookCtx); err != nil {
				gs.logger.Error("shutdown hook failed",
					"hook", h.name,
					"error", err,
				)
				errChan <- fmt.Errorf("shutdown hook %s failed: %w", h.name, err)
			} else {
				gs.logger.Debug("shutdown hook completed", "hook", h.name)
			}
		}(hook)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		gs.logger.Info("stopping HTTP server")
		if err := gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("HTTP server shutdown failed", "error", err)
			errChan <- fmt.Errorf("HTTP server shutdown failed: %w", err)
		} else {
			gs.logger.Info("HTTP server stopped gracefully")
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		gs.logger.Info("graceful shutdown completed")

		select {
		case err := <-errChan:
			return err
		default:
			return nil
		}

	case <-ctx.Done():
		gs.logger.Warn("shutdown timeout exceeded, forcing exit")
		return ctx.Err()
	}
}
