package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/movitransit/movi/internal/api"
	"github.com/movitransit/movi/internal/app"
	"github.com/movitransit/movi/internal/config"
	"github.com/movitransit/movi/internal/web"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // SSE streaming needs longer timeout
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// runServe initializes and starts the admin console and REST API.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.ValidateAgent(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	var args []string
	if len(os.Args) > 2 {
		args = os.Args[2:]
	}
	addr, err := parseServeAddr(cfg.Addr(), args)
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			a.Logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	logger := a.Logger
	logger.Info("starting Movi", "version", Version)

	apiServer, err := api.NewServer(api.Config{
		Logger:       logger,
		Flow:         a.Flow,
		Agent:        a.Agent,
		Sessions:     a.Sessions,
		Store:        a.Store,
		Fleet:        a.Fleet,
		Speech:       a.Speech,
		DB:           a.DB,
		CORSOrigins:  cfg.CORSOrigins,
		TrustProxy:   cfg.TrustProxy,
		SpeakReplies: cfg.SpeakReplies,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	webServer, err := web.NewServer(web.Config{
		Logger: logger,
		Store:  a.Store,
		API:    apiServer.Handler(),
	})
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", addr,
		"pages", "/dashboard, /routes",
		"api", "/api/v1/*",
		"health", "/healthz, /readyz",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
