package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"genie-dashboard/internal/app"
	"genie-dashboard/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, app.Deps{Cfg: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer application.Close()

	go application.RateLimiter.Sweep(ctx, 5*time.Minute)

	srv := newHTTPServer(cfg.ListenAddr, application.Handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			"addr", cfg.ListenAddr,
			"dashboard", "http://"+curlHostForListenAddr(cfg.ListenAddr)+"/ui")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newHTTPServer builds the server. Request contexts derive from a base
// context that Shutdown cancels, so open event streams end instead of
// holding Shutdown until its deadline.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	baseCtx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: the widget event stream is long-lived.
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}

// newLogger builds a JSON logger for LOG_FORMAT=json and a tinted console
// logger otherwise.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      cfg.SlogLevel(),
		TimeFormat: time.TimeOnly,
		NoColor:    cfg.IsProduction(),
	}))
}

// curlHostForListenAddr turns a listen address into a host:port that a
// local browser or curl can reach.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
