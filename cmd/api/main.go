// Package main provides the CLI entrypoint for the landing backend.
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

	"github.com/spf13/cobra"

	"github.com/airshopworks/landing-backend/internal/api"
	"github.com/airshopworks/landing-backend/internal/config"
	"github.com/airshopworks/landing-backend/internal/email"
	"github.com/airshopworks/landing-backend/internal/intake"
	"github.com/airshopworks/landing-backend/internal/metrics"
	"github.com/airshopworks/landing-backend/internal/webhook"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// newRootCmd builds the CLI: serve (also the default) and check-config.
func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "landing",
		Short:         "Form handlers for the AirShop marketing site",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger := newLogger(cfg)
			slog.SetDefault(logger)
			return run(cmd.Context(), cfg, logger)
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check-config",
		Short: "Report whether the email provider is configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			webhookState := "disabled"
			if cfg.WebhookURL != "" {
				webhookState = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: provider %s, webhook %s\n", cfg.ResendBaseURL, webhookState)
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, checkCmd)

	// Bare `landing` behaves like `landing serve`.
	rootCmd.RunE = serveCmd.RunE

	return rootCmd
}

// newLogger returns JSON output in production, pretty text in development.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func run(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Metrics ───────────────────────────────────────────────────────────────
	m := metrics.New()

	// ── Email provider (Resend) ───────────────────────────────────────────────
	// A missing key keeps the server up; both handlers answer 500 until it is
	// set and the process restarted.
	var provider email.Provider
	if err := cfg.Validate(); err != nil {
		logger.Warn("email provider disabled", "error", err)
	} else {
		p, err := email.NewResendClient(email.ResendOptions{
			APIKey:   cfg.ResendAPIKey,
			BaseURL:  cfg.ResendBaseURL,
			Timeout:  cfg.ProviderTimeout,
			Observer: m,
		})
		if err != nil {
			return fmt.Errorf("email: %w", err)
		}
		provider = p
	}

	// ── Webhook ───────────────────────────────────────────────────────────────
	var notifier webhook.Notifier
	if c := webhook.New(cfg.WebhookURL, cfg.WebhookTimeout); c != nil {
		notifier = c
		logger.Info("lead webhook enabled")
	}

	// ── Intake flows ──────────────────────────────────────────────────────────
	estimates := intake.NewEstimateService(provider, intake.EstimateConfig{
		From:       cfg.EmailFrom,
		LeadsBcc:   cfg.EmailLeadsBcc,
		AudienceID: cfg.AudienceID,
	}, m, logger)
	leads := intake.NewLeadService(provider, notifier, cfg.LeadsSegmentID, m, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(estimates, leads, m, api.Config{
		Env:            cfg.Env,
		AllowedOrigin:  cfg.AllowedOrigin,
		RequestTimeout: 30 * time.Second,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
