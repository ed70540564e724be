// Package daemon runs the board server until it is signalled to stop.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ficboard/internal/server"
	"ficboard/internal/source"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Options configures Run.
type Options struct {
	Listen         string
	ReloadInterval time.Duration
}

// Run loads the board, starts the HTTP server and an optional reload loop,
// and blocks until SIGINT/SIGTERM.
func Run(srv *server.Server, opts Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Listen, err)
	}
	return Serve(ctx, srv, ln, opts.ReloadInterval)
}

// Serve is Run with a caller-supplied context and listener. It returns when
// ctx is done and the server has shut down.
func Serve(ctx context.Context, srv *server.Server, ln net.Listener, reloadInterval time.Duration) error {
	if err := srv.Reload(ctx); err != nil && !errors.Is(err, source.ErrNoData) {
		ln.Close()
		return fmt.Errorf("initial load: %w", err)
	}

	ctx, cancelLoops := context.WithCancel(ctx)
	defer cancelLoops()

	httpSrv := &http.Server{
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("daemon: board server starting", "addr", ln.Addr().String())
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if reloadInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv.RunReloadLoop(ctx, reloadInterval)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("daemon: shutdown signal received, stopping")
	case runErr = <-serveErr:
		slog.Error("daemon: board server error", "err", runErr)
	}
	cancelLoops()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("daemon: shutdown", "err", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("daemon: stopped")
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown timed out after %s", shutdownTimeout)
	}
	return runErr
}
