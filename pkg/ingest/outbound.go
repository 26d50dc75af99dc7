package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	shared "github.com/caregrid/telemetry-relay/pkg"
	"github.com/caregrid/telemetry-relay/pkg/metrics"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

// Outbound ledgers calls the relay makes OUT to third-party APIs (Twilio
// sends, Whisper transcriptions). Same ledger and provider-health
// semantics as the inbound pipeline: one row per call, completed with
// the round trip's status, health marked per (provider, agency).
type Outbound struct {
	DB          shared.Database
	ServiceName string
	Logger      *slog.Logger
}

// OutboundCall names the third-party round trip being ledgered.
type OutboundCall struct {
	Provider    string
	AgencyID    string
	RequestType string
	// ExternalID discriminates the call in the provider request id
	// (destination number for SMS, audio object for transcription).
	ExternalID string
	// Payload is recorded verbatim as the ledger's request payload.
	Payload interface{}
}

// Run executes fn inside a ledger window. The returned ledger id is set
// even when fn fails, so callers can reference the row in error paths.
// fn's result is recorded as the response payload on success.
func (o *Outbound) Run(ctx context.Context, call OutboundCall, fn func(ctx context.Context) (interface{}, error)) (string, error) {
	started := time.Now()
	ledgerID := uuid.NewString()

	payload, err := json.Marshal(call.Payload)
	if err != nil {
		return "", fmt.Errorf("encode request payload: %w", err)
	}

	record := &types.IntegrationRequest{
		RequestID:         ledgerID,
		AgencyID:          call.AgencyID,
		ProviderType:      call.Provider,
		ProviderName:      o.ServiceName,
		RequestType:       call.RequestType,
		ProviderRequestID: fmt.Sprintf("%s-%s-%d", call.Provider, call.ExternalID, started.UnixMilli()),
		RequestPayload:    string(payload),
		StartedAt:         started,
	}
	if err := o.DB.CreateIntegrationRequest(ctx, record); err != nil {
		return "", fmt.Errorf("ledger start: %w", err)
	}

	result, callErr := fn(ctx)

	status := http.StatusOK
	if callErr != nil {
		status = upstreamStatus(callErr)
	}
	o.completeLedger(ctx, ledgerID, started, status, result, callErr)
	o.updateProviderHealth(ctx, call.Provider, call.AgencyID, callErr)

	if callErr != nil {
		metrics.ProviderFailures.WithLabelValues(call.Provider).Inc()
		return ledgerID, fmt.Errorf("%s call: %w", call.Provider, callErr)
	}
	return ledgerID, nil
}

func (o *Outbound) completeLedger(ctx context.Context, ledgerID string, started time.Time, status int, result interface{}, callErr error) {
	completed := time.Now()
	data := map[string]interface{}{
		"response_status": status,
		"latency_ms":      completed.Sub(started).Milliseconds(),
		"completed_at":    completed,
	}
	if result != nil {
		if payload, err := json.Marshal(result); err == nil {
			data["response_payload"] = string(payload)
		}
	}
	if callErr != nil {
		data["error_message"] = callErr.Error()
	}

	if err := o.DB.CompleteIntegrationRequest(ctx, ledgerID, data); err != nil {
		o.Logger.Warn("Failed to complete ledger row", "ledger_id", ledgerID, "error", err)
	}
}

func (o *Outbound) updateProviderHealth(ctx context.Context, provider, agencyID string, callErr error) {
	record := &types.ProviderHealthRecord{
		Provider:  provider,
		AgencyID:  agencyID,
		Status:    types.HealthStatusHealthy,
		CheckedAt: time.Now(),
	}
	if callErr != nil {
		record.Status = types.HealthStatusFailed
		record.LastError = callErr.Error()
	}

	if err := o.DB.SetProviderHealth(ctx, record); err != nil {
		o.Logger.Warn("Provider health update failed", "provider", provider, "error", err)
	}
}
