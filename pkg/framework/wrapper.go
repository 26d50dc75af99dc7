package framework

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/caregrid/telemetry-relay/pkg/bootstrap"
	infrasentry "github.com/caregrid/telemetry-relay/pkg/infrastructure/sentry"
	"github.com/caregrid/telemetry-relay/pkg/metrics"
)

// FrameworkContext contains dependencies injected by the framework
type FrameworkContext struct {
	Service   *bootstrap.Service
	Logger    *slog.Logger
	RequestID string
}

// HandlerFunc is the signature for a webhook function handler.
// The returned value is encoded as the JSON response body with HTTP 200,
// unless it is a *Response, which takes over the status code.
type HandlerFunc func(ctx context.Context, r *http.Request, fwCtx *FrameworkContext) (interface{}, error)

// Response lets a handler control the status code directly. Used for
// provider verification handshakes (Fitbit echoes 204/404 with no body).
type Response struct {
	Status int
	Body   interface{} // nil writes no body
}

// ErrorBody is the common failure response shape.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WrapHTTP wraps a handler with CORS, per-request logging, Sentry capture
// and Prometheus counters. allowedMethods defaults to POST; OPTIONS is
// always answered with a 204 preflight response.
func WrapHTTP(serviceName string, svc *bootstrap.Service, handler HandlerFunc, allowedMethods ...string) http.HandlerFunc {
	if len(allowedMethods) == 0 {
		allowedMethods = []string{http.MethodPost}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w, allowedMethods)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if !slices.Contains(allowedMethods, r.Method) {
			w.WriteHeader(http.StatusMethodNotAllowed)
			json.NewEncoder(w).Encode(ErrorBody{Error: "Method not allowed"})
			return
		}

		requestID := uuid.NewString()
		logger := newRequestLogger(serviceName).With("request_id", requestID)
		metrics.WebhooksReceived.WithLabelValues(serviceName).Inc()

		fwCtx := &FrameworkContext{
			Service:   svc,
			Logger:    logger,
			RequestID: requestID,
		}

		logger.Info("Function started")
		outputs, err := handler(r.Context(), r, fwCtx)
		if err != nil {
			logger.Error("Function failed", "error", err)
			infrasentry.CaptureException(err, map[string]interface{}{
				"service":    serviceName,
				"request_id": requestID,
			}, logger)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorBody{Error: err.Error()})
			return
		}

		if resp, ok := outputs.(*Response); ok {
			w.WriteHeader(resp.Status)
			if resp.Body != nil {
				json.NewEncoder(w).Encode(resp.Body)
			}
			logger.Info("Function completed", "status", resp.Status)
			return
		}

		logger.Info("Function completed successfully")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(outputs)
	}
}

func setCORSHeaders(w http.ResponseWriter, methods []string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", strings.Join(append(slices.Clone(methods), http.MethodOptions), ", "))
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Webhook-Secret")
}

func newRequestLogger(serviceName string) *slog.Logger {
	logLevelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	var logLevel slog.Level
	switch logLevelStr {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := bootstrap.GetSlogHandlerOptions(logLevel)
	return slog.New(slog.NewJSONHandler(os.Stdout, opts)).With("service", serviceName)
}
