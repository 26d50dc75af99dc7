package applehealthwebhook

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
	"github.com/caregrid/telemetry-relay/pkg/providers/applehealth"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.HTTP("AppleHealthWebhook", AppleHealthWebhook)
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

// AppleHealthWebhook is the entry point
func AppleHealthWebhook(w http.ResponseWriter, r *http.Request) {
	svc, err := initService(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("service init failed: %v", err), http.StatusInternalServerError)
		return
	}
	framework.WrapHTTP("apple-health-webhook", svc, webhookHandler)(w, r)
}

func webhookHandler(ctx context.Context, r *http.Request, fwCtx *framework.FrameworkContext) (interface{}, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	pipeline := &ingest.Pipeline{
		DB:          fwCtx.Service.DB,
		Pub:         fwCtx.Service.Pub,
		ServiceName: "apple-health-webhook",
		Logger:      fwCtx.Logger,
	}

	receipt, err := pipeline.Process(ctx, applehealth.New(), body)
	if err != nil {
		return nil, err
	}

	fwCtx.Logger.Info("Apple Health export ingested",
		"metrics_written", receipt.MetricsWritten)

	return map[string]interface{}{
		"success":         true,
		"provider":        receipt.Provider,
		"metrics_written": receipt.MetricsWritten,
	}, nil
}
