package fitbitwebhook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/caregrid/telemetry-relay/pkg/bootstrap"
	"github.com/caregrid/telemetry-relay/pkg/framework"
	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/integrations/fitbitapi"
	"github.com/caregrid/telemetry-relay/pkg/providers/fitbit"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("FitbitWebhook", FitbitWebhook)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
	})
	return svc, svcErr
}

// FitbitWebhook is the entry point
func FitbitWebhook(w http.ResponseWriter, r *http.Request) {
	svc, err := initService(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("service init failed: %v", err), http.StatusInternalServerError)
		return
	}
	framework.WrapHTTP("fitbit-webhook", svc, webhookHandler(nil), http.MethodGet, http.MethodPost)(w, r)
}

// webhookHandler handles both the subscription verification handshake
// (GET) and notification deliveries (POST). source can be injected for
// testing; if nil, a Fitbit API client is built from the stored token.
func webhookHandler(source fitbit.DataSource) framework.HandlerFunc {
	return func(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
		if r.Method == http.MethodGet {
			return verifyResponse(r), nil
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}

		if source == nil {
			token, err := fwCtx.Service.Secrets.GetSecret(ctx, "FITBIT_ACCESS_TOKEN")
			if err != nil {
				return nil, fmt.Errorf("fitbit access token: %w", err)
			}
			source = fitbitapi.NewClient(token)
		}

		pipeline := &ingest.Pipeline{
			DB:          fwCtx.Service.DB,
			Pub:         fwCtx.Service.Pub,
			ServiceName: "fitbit-webhook",
			Logger:      fwCtx.Logger,
		}

		receipt, err := pipeline.Process(ctx, fitbit.New(source), body)
		if err != nil {
			return nil, err
		}

		fwCtx.Logger.Info("Fitbit notifications ingested",
			"processed", receipt.Processed,
			"skipped", receipt.Skipped,
			"metrics_written", receipt.MetricsWritten)

		return map[string]interface{}{
			"success":         true,
			"provider":        receipt.Provider,
			"processed":       receipt.Processed,
			"skipped":         receipt.Skipped,
			"metrics_written": receipt.MetricsWritten,
		}, nil
	}
}

// verifyResponse implements Fitbit's endpoint verification: the verify
// query parameter must echo the subscriber's configured code. 204 accepts
// the code, 404 rejects it; Fitbit tries both a good and a bad code when
// registering the subscriber.
func verifyResponse(r *http.Request) *framework.Response {
	verify := r.URL.Query().Get("verify")
	expected := os.Getenv("FITBIT_VERIFY_CODE")
	if expected != "" && verify == expected {
		return &framework.Response{Status: http.StatusNoContent}
	}
	return &framework.Response{Status: http.StatusNotFound}
}
