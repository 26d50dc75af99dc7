// relay-server mounts every webhook function on one HTTP server for
// local development and self-hosted deployments. In production each
// function deploys separately; this binary exists so the whole relay can
// run against an emulator with a single process, and it is where the
// Prometheus metrics are scraped from.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caregrid/telemetry-relay/pkg/bootstrap"
	infrasentry "github.com/caregrid/telemetry-relay/pkg/infrastructure/sentry"

	applehealthwebhook "github.com/caregrid/telemetry-relay/functions/apple-health-webhook"
	devicewebhook "github.com/caregrid/telemetry-relay/functions/device-webhook"
	fitbitwebhook "github.com/caregrid/telemetry-relay/functions/fitbit-webhook"
	garminwebhook "github.com/caregrid/telemetry-relay/functions/garmin-webhook"
	smssender "github.com/caregrid/telemetry-relay/functions/sms-sender"
	voicetranscribe "github.com/caregrid/telemetry-relay/functions/voice-transcribe"
)

func main() {
	logger := bootstrap.NewLogger("relay-server")
	slog.SetDefault(logger)

	sentryCfg := infrasentry.Config{
		DSN:         os.Getenv("SENTRY_DSN"),
		Environment: os.Getenv("SENTRY_ENVIRONMENT"),
		ServerName:  "relay-server",
	}
	if err := infrasentry.Init(sentryCfg, logger); err != nil {
		logger.Warn("Sentry init failed, continuing without error reporting", "error", err)
	}
	defer infrasentry.Flush(2 * time.Second)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/webhooks", func(r chi.Router) {
		r.HandleFunc("/device", devicewebhook.DeviceWebhook)
		r.HandleFunc("/apple-health", applehealthwebhook.AppleHealthWebhook)
		r.HandleFunc("/garmin", garminwebhook.GarminWebhook)
		r.HandleFunc("/fitbit", fitbitwebhook.FitbitWebhook)
	})
	r.Route("/integrations", func(r chi.Router) {
		r.HandleFunc("/sms", smssender.SMSSender)
		r.HandleFunc("/transcribe", voicetranscribe.VoiceTranscribe)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Relay server listening", "port", port)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
