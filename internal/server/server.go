package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"

	"github.com/izzyreal/stitch/internal/config"
	"github.com/izzyreal/stitch/internal/logging"
	"github.com/izzyreal/stitch/internal/server/carousel"
)

const shutdownTimeout = 5 * time.Second

// Run loads configuration from the environment and serves until ctx ends.
func Run(ctx context.Context) error {
	settings, err := config.Resolve()
	if err != nil {
		return err
	}
	logger, closeLog := logging.Setup(logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		File:   settings.LogFile,
	})
	defer func() { _ = closeLog() }()
	return Serve(ctx, settings, logger)
}

// Serve runs the HTTP API, the gRPC bridge, mDNS advertising, the catalog
// watcher and the idle-session reaper.
func Serve(ctx context.Context, settings config.Settings, logger *slog.Logger) error {
	cat, err := LoadCatalog(settings.CatalogSource)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	front := newStorefront(cat, carousel.Options{
		Cadence:        settings.Cadence,
		CooldownFactor: settings.CooldownFactor,
		IdleTimeout:    settings.IdleTimeout,
		Logger:         logger,
	})
	logger.Info("catalog loaded", "source", cat.Source(), "games", cat.Len(), "featured", len(cat.Featured()))

	httpLis, err := net.Listen("tcp", settings.ServerAddr)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	var grpcLis net.Listener
	if settings.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", settings.GRPCAddr)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("listen grpc: %w", err)
		}
	}
	return serveListeners(ctx, settings, logger, front, httpLis, grpcLis)
}

// serveListeners owns both listeners and every background loop until ctx
// ends. A nil grpcLis disables the gRPC bridge.
func serveListeners(ctx context.Context, settings config.Settings, logger *slog.Logger, front *storefront, httpLis, grpcLis net.Listener) error {
	router := buildRouter(front)
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("stitch server started", "addr", httpLis.Addr().String())
		err := srv.Serve(httpLis)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve http: %w", err)
		}
	}()

	stopping := make(chan struct{})
	var grpcSrv *grpc.Server
	if grpcLis != nil {
		grpcSrv = grpc.NewServer()
		registerStorefrontGRPCService(grpcSrv, newStorefrontGRPCServer(router, front, stopping))
		go func() {
			logger.Info("stitch grpc started", "addr", grpcLis.Addr().String())
			if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("serve grpc: %w", err)
			}
		}()
	}

	grpcAddr := ""
	if grpcLis != nil {
		grpcAddr = grpcLis.Addr().String()
	}
	stopMDNS := startMDNSAdvertiser(settings.MDNSEnable, settings.MDNSInstance, httpLis.Addr().String(), grpcAddr)
	defer stopMDNS()

	if settings.WatchCatalog {
		watcher, err := startCatalogWatcher(settings.CatalogSource, front, config.DefaultReloadDebounce, logger)
		if err != nil {
			logger.Warn("catalog watch disabled", "error", err)
		} else {
			defer func() { _ = watcher.Close() }()
		}
	}

	reapCtx, stopReap := context.WithCancel(ctx)
	reapDone := make(chan struct{})
	go func() {
		defer close(reapDone)
		reapLoop(reapCtx, front.carousels, reapInterval(settings.IdleTimeout))
	}()
	defer func() { <-reapDone }()
	defer stopReap()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Closing sessions ends open event streams; stopping ends watch streams.
	front.carousels.CloseAll()
	close(stopping)
	if grpcSrv != nil {
		stopGRPC(grpcSrv, shutdownTimeout)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown server: %w", err)
	}
	logger.Info("stitch server stopped")
	return runErr
}

// stopGRPC drains in-flight calls for at most timeout, then closes whatever
// is left.
func stopGRPC(srv *grpc.Server, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		srv.Stop()
		<-done
	}
}

func reapInterval(idle time.Duration) time.Duration {
	if idle <= 0 {
		return config.DefaultIdleTimeout / 4
	}
	if d := idle / 4; d > time.Second {
		return d
	}
	return time.Second
}

func reapLoop(ctx context.Context, mgr *carousel.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			mgr.Reap(now)
		}
	}
}
