package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paralleldialer/paralleldialer/internal/api"
	"github.com/paralleldialer/paralleldialer/internal/api/middleware"
	"github.com/paralleldialer/paralleldialer/internal/config"
	"github.com/paralleldialer/paralleldialer/internal/database"
	"github.com/paralleldialer/paralleldialer/internal/events"
	"github.com/paralleldialer/paralleldialer/internal/metrics"
	"github.com/paralleldialer/paralleldialer/internal/operator"
	"github.com/paralleldialer/paralleldialer/internal/orchestrator"
	"github.com/paralleldialer/paralleldialer/internal/telephony"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(cfg.SlogHandler(os.Stdout))
	slog.SetDefault(logger)

	slog.Info("starting paralleldialer",
		"http_port", cfg.HTTPPort,
		"data_dir", cfg.DataDir,
		"mock_telephony", cfg.UseMockTelephony,
	)

	db, err := database.Open(cfg.DataDir)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	campaigns := database.NewCampaignRepository(db)
	leads := database.NewLeadRepository(db)
	users := database.NewUserRepository(db)

	if err := database.SeedUsers(context.Background(), users); err != nil {
		slog.Error("failed to seed users", "error", err)
		os.Exit(1)
	}

	secret, err := cfg.SecretKeyBytes()
	if err != nil {
		slog.Error("failed to load secret key", "error", err)
		os.Exit(1)
	}

	operators := operator.NewManager(cfg.MaxIdle())
	hub := events.NewHub(operators, nil, logger)

	tel, mock := newTelephony(cfg)

	engCfg := orchestrator.DefaultEngineConfig()
	engCfg.Control.BaseDialRatio = cfg.DefaultDialRatio
	engCfg.Control.TargetAbandonRate = cfg.MaxAbandonRate
	engCfg.AMDTimeout = cfg.AMDTimeout()
	engine := orchestrator.NewEngine(engCfg, campaigns, leads, tel, operators, hub, logger)
	defer engine.Shutdown()

	// Stats flow back out through the hub; the mock feeds callbacks straight
	// into the engine the way Twilio webhooks would.
	hub.SetStatsProvider(engine)
	hub.SetCallController(engine)
	if mock != nil {
		mock.OnStatusChange(func(callSID string, status telephony.CallStatus) {
			if err := engine.HandleCallStatus(context.Background(), callSID, status); err != nil {
				slog.Debug("mock status callback dropped", "call_sid", callSID, "error", err)
			}
		})
		mock.OnAMDResult(func(callSID string, result telephony.AMDResult) {
			if err := engine.HandleAMDResult(context.Background(), callSID, result); err != nil {
				slog.Debug("mock amd callback dropped", "call_sid", callSID, "error", err)
			}
		})
	}

	apiCfg := api.Config{
		Secret:             secret,
		AccessTokenTTL:     cfg.AccessTokenTTL(),
		RefreshTokenTTL:    cfg.RefreshTokenTTL(),
		TwilioAccountSID:   cfg.TwilioAccountSID,
		TwilioAuthToken:    cfg.TwilioAuthToken,
		TwilioAppSID:       cfg.TwilioAppSID,
		TwilioAPIKeySID:    cfg.TwilioAPIKeySID,
		TwilioAPIKeySecret: cfg.TwilioAPIKeySecret,
		PublicBaseURL:      cfg.PublicBaseURL,
		ValidateSignature:  cfg.ValidateWebhookSignature,
		CORSOrigins:        middleware.ParseCORSOrigins(cfg.CORSOrigins),
	}
	server := api.NewServer(apiCfg, campaigns, leads, users, engine, hub, logger)
	router := server.Routes()

	// Prometheus scrape endpoint.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(metrics.NewCollector(
		engine,
		&operatorStatsAdapter{operators: operators},
		hub,
		time.Now(),
	))
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		slog.Error("http server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutting down")
	engine.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("paralleldialer stopped")
}

// newTelephony picks the provider. The mock is returned separately so its
// callback hooks can be wired; with real Twilio the callbacks arrive as
// webhooks instead.
func newTelephony(cfg *config.Config) (telephony.Service, *telephony.MockService) {
	if cfg.UseMockTelephony {
		mock := telephony.NewMockService()
		return mock, mock
	}
	return telephony.NewTwilioService(telephony.TwilioConfig{
		AccountSID:    cfg.TwilioAccountSID,
		AuthToken:     cfg.TwilioAuthToken,
		FromNumber:    cfg.TwilioPhoneNumber,
		AppSID:        cfg.TwilioAppSID,
		PublicBaseURL: cfg.PublicBaseURL,
	}), nil
}

// operatorStatsAdapter bridges the operator manager to the metrics
// collector's provider interface.
type operatorStatsAdapter struct {
	operators *operator.Manager
}

func (a *operatorStatsAdapter) MetricsStats() metrics.OperatorStats {
	s := a.operators.GetStats()
	return metrics.OperatorStats{
		Total:       s.Total,
		Available:   s.Available,
		OnCall:      s.OnCall,
		OnBreak:     s.OnBreak,
		Offline:     s.Offline,
		Utilization: s.Utilization,
	}
}
