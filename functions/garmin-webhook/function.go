package garminwebhook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/caregrid/telemetry-relay/pkg/bootstrap"
	"github.com/caregrid/telemetry-relay/pkg/framework"
	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/providers/garmin"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("GarminWebhook", GarminWebhook)
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

// GarminWebhook is the entry point
func GarminWebhook(w http.ResponseWriter, r *http.Request) {
	svc, err := initService(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("service init failed: %v", err), http.StatusInternalServerError)
		return
	}
	framework.WrapHTTP("garmin-webhook", svc, webhookHandler)(w, r)
}

// webhookHandler ingests a Garmin push delivery. Summaries for unmapped
// Garmin users are skipped, not errors; the response reports both counts
// so Garmin-side monitoring can spot unmapped accounts.
func webhookHandler(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	pipeline := &ingest.Pipeline{
		DB:          fwCtx.Service.DB,
		Pub:         fwCtx.Service.Pub,
		ServiceName: "garmin-webhook",
		Logger:      fwCtx.Logger,
	}

	receipt, err := pipeline.Process(ctx, garmin.New(), body)
	if err != nil {
		return nil, err
	}

	fwCtx.Logger.Info("Garmin delivery ingested",
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
