package devicewebhook

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
	"github.com/caregrid/telemetry-relay/pkg/providers/carewatch"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("DeviceWebhook", DeviceWebhook)
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

// DeviceWebhook is the entry point
func DeviceWebhook(w http.ResponseWriter, r *http.Request) {
	svc, err := initService(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("service init failed: %v", err), http.StatusInternalServerError)
		return
	}
	framework.WrapHTTP("device-webhook", svc, webhookHandler)(w, r)
}

// webhookHandler ingests one generic care-device reading. The response
// carries the ledger row id as staging_id so the device can reference
// the delivery in support conversations.
func webhookHandler(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	pipeline := &ingest.Pipeline{
		DB:          fwCtx.Service.DB,
		Pub:         fwCtx.Service.Pub,
		ServiceName: "device-webhook",
		Logger:      fwCtx.Logger,
	}

	receipt, err := pipeline.Process(ctx, carewatch.New(), body)
	if err != nil {
		return nil, err
	}

	unit := receipt.Units[0]
	fwCtx.Logger.Info("Device reading ingested",
		"device_id", unit.ExternalID,
		"vitals_created", unit.MetricsWritten)

	return map[string]interface{}{
		"success":        true,
		"provider":       receipt.Provider,
		"staging_id":     unit.LedgerID,
		"vitals_created": unit.MetricsWritten,
	}, nil
}
