package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/legphel-eats/fnb-dashboard/internal/auth"
	"github.com/legphel-eats/fnb-dashboard/internal/config"
	"github.com/legphel-eats/fnb-dashboard/internal/dashboard"
	"github.com/legphel-eats/fnb-dashboard/internal/enum"
	"github.com/legphel-eats/fnb-dashboard/internal/gateway"
	"github.com/legphel-eats/fnb-dashboard/internal/logging"
	"github.com/legphel-eats/fnb-dashboard/internal/metrics"
	"github.com/legphel-eats/fnb-dashboard/internal/router"
	"github.com/legphel-eats/fnb-dashboard/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logging.Setup()
	cfg := config.Load()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gw := gateway.New(gateway.Options{
		BaseURL:     cfg.APIBaseURL,
		BillsPath:   cfg.BillsEndpoint,
		DetailsPath: cfg.DetailsEndpoint,
		Timeout:     cfg.RequestTimeout,
		RPS:         cfg.UpstreamRPS,
		Metrics:     m,
	})

	hub := ws.NewHub()
	go hub.Run()

	dash := dashboard.New(gw, dashboard.Options{
		Concurrency:      cfg.FetchConcurrency,
		RecentWindowDays: cfg.RecentWindowDays,
		Location:         cfg.Location(),
		Notifier:         hub,
		Publisher:        hub,
		Metrics:          m,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The bill list is best effort at startup; the UI can reload it.
	loadCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	if bills, err := dash.LoadBills(loadCtx); err != nil {
		slog.Warn("Initial bill load failed", "error", err)
	} else {
		slog.Info("Bills loaded", "count", len(bills))
	}
	cancel()

	operators := operatorsFromConfig(cfg)
	if len(operators) == 0 {
		slog.Warn("No operator credentials configured; set ADMIN_PASSWORD_HASH (see cmd/admin hash-password)")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(cfg, dash, hub, operators, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.Port, "upstream", cfg.APIBaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	dash.Close()
	hub.Stop()
	slog.Info("Server stopped")
}

// operatorsFromConfig returns the operators that may sign in. An operator
// without a password hash cannot sign in and is skipped.
func operatorsFromConfig(cfg *config.Config) []auth.Operator {
	var ops []auth.Operator
	if cfg.AdminPasswordHash != "" {
		ops = append(ops, auth.Operator{Email: cfg.AdminEmail, PasswordHash: cfg.AdminPasswordHash, Role: enum.RoleOwner})
	}
	if cfg.ManagerEmail != "" && cfg.ManagerPasswordHash != "" {
		ops = append(ops, auth.Operator{Email: cfg.ManagerEmail, PasswordHash: cfg.ManagerPasswordHash, Role: enum.RoleManager})
	}
	return ops
}
