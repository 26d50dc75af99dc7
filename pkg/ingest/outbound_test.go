package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	shared "github.com/caregrid/telemetry-relay/pkg"
	httputil "github.com/caregrid/telemetry-relay/pkg/infrastructure/http"
	"github.com/caregrid/telemetry-relay/pkg/testing/mocks"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

func newOutbound(db *mocks.MockDatabase) *Outbound {
	return &Outbound{
		DB:          db,
		ServiceName: "sms-sender",
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestOutboundSuccessLedgersAndMarksHealthy(t *testing.T) {
	var created *types.IntegrationRequest
	var completed map[string]interface{}
	var health *types.ProviderHealthRecord

	db := &mocks.MockDatabase{
		CreateIntegrationRequestFunc: func(ctx context.Context, record *types.IntegrationRequest) error {
			created = record
			return nil
		},
		CompleteIntegrationRequestFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			completed = data
			return nil
		},
		SetProviderHealthFunc: func(ctx context.Context, record *types.ProviderHealthRecord) error {
			health = record
			return nil
		},
	}

	ledgerID, err := newOutbound(db).Run(context.Background(), OutboundCall{
		Provider:    shared.ProviderTwilio,
		AgencyID:    "a1",
		RequestType: shared.RequestTypeOutboundSMS,
		ExternalID:  "+15551234567",
		Payload:     map[string]string{"to": "+15551234567", "body": "hi"},
	}, func(ctx context.Context) (interface{}, error) {
		return map[string]string{"sid": "SM123"}, nil
	})

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ledgerID == "" {
		t.Fatal("expected ledger id")
	}
	if created == nil || created.ProviderType != shared.ProviderTwilio || created.RequestType != shared.RequestTypeOutboundSMS {
		t.Fatalf("unexpected ledger row: %+v", created)
	}
	if completed["response_status"] != 200 {
		t.Errorf("expected response_status 200, got %v", completed["response_status"])
	}
	if health == nil || health.Status != types.HealthStatusHealthy {
		t.Fatalf("expected healthy provider health, got %+v", health)
	}
}

func TestOutboundFailurePreservesUpstreamStatus(t *testing.T) {
	var completed map[string]interface{}
	var health *types.ProviderHealthRecord

	db := &mocks.MockDatabase{
		CompleteIntegrationRequestFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			completed = data
			return nil
		},
		SetProviderHealthFunc: func(ctx context.Context, record *types.ProviderHealthRecord) error {
			health = record
			return nil
		},
	}

	ledgerID, err := newOutbound(db).Run(context.Background(), OutboundCall{
		Provider:    shared.ProviderTwilio,
		AgencyID:    "a1",
		RequestType: shared.RequestTypeOutboundSMS,
		ExternalID:  "+15551234567",
	}, func(ctx context.Context) (interface{}, error) {
		return nil, fmt.Errorf("twilio API: %w", &httputil.HTTPError{StatusCode: 401, Status: "Unauthorized", Body: "bad credentials"})
	})

	if err == nil {
		t.Fatal("expected error to surface")
	}
	if ledgerID == "" {
		t.Error("ledger id must be set even on failure")
	}
	if completed["response_status"] != 401 {
		t.Errorf("expected ledger status 401, got %v", completed["response_status"])
	}
	if completed["error_message"] == nil {
		t.Error("expected error_message on ledger row")
	}
	if health == nil || health.Status != types.HealthStatusFailed {
		t.Fatalf("expected failed provider health, got %+v", health)
	}
	if health.LastError == "" {
		t.Error("expected last error recorded on health row")
	}
}

func TestOutboundNonHTTPFailureDefaultsToBadGateway(t *testing.T) {
	var completed map[string]interface{}
	db := &mocks.MockDatabase{
		CompleteIntegrationRequestFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			completed = data
			return nil
		},
	}

	_, err := newOutbound(db).Run(context.Background(), OutboundCall{
		Provider: shared.ProviderOpenAI,
		AgencyID: "a1",
	}, func(ctx context.Context) (interface{}, error) {
		return nil, fmt.Errorf("connection refused")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if completed["response_status"] != 502 {
		t.Errorf("expected 502 for non-HTTP failure, got %v", completed["response_status"])
	}
}

func TestOutboundLedgerStartFailureAbortsCall(t *testing.T) {
	called := false
	db := &mocks.MockDatabase{
		CreateIntegrationRequestFunc: func(ctx context.Context, record *types.IntegrationRequest) error {
			return fmt.Errorf("firestore unavailable")
		},
	}

	_, err := newOutbound(db).Run(context.Background(), OutboundCall{
		Provider: shared.ProviderTwilio,
		AgencyID: "a1",
	}, func(ctx context.Context) (interface{}, error) {
		called = true
		return nil, nil
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if called {
		t.Error("third-party call must not run without a ledger row")
	}
}
