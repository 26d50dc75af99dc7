package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	shared "github.com/caregrid/telemetry-relay/pkg"
	httputil "github.com/caregrid/telemetry-relay/pkg/infrastructure/http"
	infrapubsub "github.com/caregrid/telemetry-relay/pkg/infrastructure/pubsub"
	"github.com/caregrid/telemetry-relay/pkg/metrics"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

// Pipeline runs the shared ingestion control flow:
// validate -> resolve identity -> ledger start -> [expand] -> device upsert
// -> normalize -> telemetry batch write -> ledger complete -> health update.
type Pipeline struct {
	DB  shared.Database
	Pub shared.Publisher
	// ServiceName is recorded as provider_name on ledger rows
	// (the function's public name, e.g. "device-webhook").
	ServiceName string
	Logger      *slog.Logger
}

// UnitResult describes the outcome of one work unit.
type UnitResult struct {
	LedgerID       string `json:"ledger_id,omitempty"`
	ExternalID     string `json:"external_id"`
	MetricsWritten int    `json:"metrics_written"`
	EventsWritten  int    `json:"events_written"`
	DeviceLinked   bool   `json:"device_linked"`
	Skipped        bool   `json:"skipped,omitempty"`
	SkipReason     string `json:"skip_reason,omitempty"`
	Failed         bool   `json:"failed,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Receipt summarizes a whole webhook delivery.
type Receipt struct {
	Provider       string       `json:"provider"`
	Processed      int          `json:"processed"`
	Skipped        int          `json:"skipped"`
	Failed         int          `json:"failed"`
	MetricsWritten int          `json:"metrics_written"`
	Units          []UnitResult `json:"units"`
}

// Process runs the full pipeline for one webhook body. A validation error
// from the adapter aborts before any write; an identity miss skips that
// unit and continues the batch; a third-party round-trip failure aborts
// the request after the failed unit's ledger row is completed.
func (p *Pipeline) Process(ctx context.Context, adapter ProviderAdapter, body []byte) (*Receipt, error) {
	units, err := adapter.Parse(body)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{Provider: adapter.Provider()}
	for i := range units {
		result, err := p.processUnit(ctx, adapter, &units[i])
		receipt.Units = append(receipt.Units, result)
		switch {
		case result.Skipped:
			receipt.Skipped++
		case result.Failed:
			receipt.Failed++
		default:
			receipt.Processed++
			receipt.MetricsWritten += result.MetricsWritten
		}
		if err != nil {
			// Provider round trip or ledger failure: surface to the caller.
			return receipt, err
		}
	}

	return receipt, nil
}

func (p *Pipeline) processUnit(ctx context.Context, adapter ProviderAdapter, unit *WorkUnit) (UnitResult, error) {
	provider := adapter.Provider()
	result := UnitResult{ExternalID: unit.ExternalID}

	identity, ok, err := p.resolveIdentity(ctx, provider, unit)
	if err != nil {
		// A lookup outage is not a mapping miss: failing the unit lets the
		// provider redeliver instead of silently dropping telemetry.
		result.Failed = true
		result.Error = err.Error()
		return result, fmt.Errorf("mapping lookup: %w", err)
	}
	if !ok {
		result.Skipped = true
		result.SkipReason = "no mapping for external user"
		metrics.UnitsSkipped.WithLabelValues(provider).Inc()
		return result, nil
	}
	unit.Identity = identity

	started := time.Now()
	ledgerID := uuid.NewString()
	result.LedgerID = ledgerID

	record := &types.IntegrationRequest{
		RequestID:         ledgerID,
		AgencyID:          identity.AgencyID,
		ProviderType:      provider,
		ProviderName:      p.ServiceName,
		RequestType:       unit.RequestType,
		ProviderRequestID: fmt.Sprintf("%s-%s-%d", provider, unit.ExternalID, started.UnixMilli()),
		RequestPayload:    string(unit.Raw),
		StartedAt:         started,
	}
	if err := p.DB.CreateIntegrationRequest(ctx, record); err != nil {
		// The one-ledger-row-per-unit invariant is not negotiable; without
		// the row the unit is not processed.
		result.Failed = true
		result.Error = err.Error()
		return result, fmt.Errorf("ledger start: %w", err)
	}

	// Pull-model providers fetch the unit's readings now, inside the
	// ledger window.
	if expander, ok := adapter.(Expander); ok {
		if err := expander.Expand(ctx, unit); err != nil {
			p.Logger.Error("Provider data pull failed", "provider", provider, "external_id", unit.ExternalID, "error", err)
			p.completeLedger(ctx, ledgerID, started, upstreamStatus(err), nil, err)
			p.updateProviderHealth(ctx, provider, identity.AgencyID, err)
			metrics.ProviderFailures.WithLabelValues(provider).Inc()
			result.Failed = true
			result.Error = err.Error()
			return result, fmt.Errorf("%s data pull: %w", provider, err)
		}
	}

	deviceID := p.upsertDevice(ctx, provider, unit)
	result.DeviceLinked = deviceID != ""

	telemetry, events := p.buildRows(adapter, unit, deviceID)
	if len(telemetry) > 0 || len(events) > 0 {
		if err := p.DB.WriteTelemetryBatch(ctx, identity.AgencyID, telemetry, events); err != nil {
			p.Logger.Error("Telemetry write failed", "provider", provider, "external_id", unit.ExternalID, "error", err)
			p.completeLedger(ctx, ledgerID, started, http.StatusInternalServerError, nil, err)
			result.Failed = true
			result.Error = err.Error()
			return result, nil
		}
	}
	result.MetricsWritten = len(telemetry)
	result.EventsWritten = len(events)

	p.completeLedger(ctx, ledgerID, started, http.StatusOK, &result, nil)

	if _, ok := adapter.(Expander); ok {
		p.updateProviderHealth(ctx, provider, identity.AgencyID, nil)
	}

	p.publishRecorded(ctx, provider, unit, &result)
	p.publishDeviceEvents(ctx, provider, unit, &result)

	metrics.UnitsProcessed.WithLabelValues(provider).Inc()
	metrics.MetricsWritten.WithLabelValues(provider).Add(float64(len(telemetry)))
	metrics.IngestDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())

	return result, nil
}

// resolveIdentity returns the unit's agency/resident pair, or ok=false
// when the external user has no mapping. A mapping miss is a warning, not
// an error: the rest of the batch still processes. Any other lookup error
// is returned as-is and fails the unit.
func (p *Pipeline) resolveIdentity(ctx context.Context, provider string, unit *WorkUnit) (Identity, bool, error) {
	if unit.Identity.Direct() {
		return unit.Identity, true, nil
	}

	mapping, err := p.DB.GetExternalUserMapping(ctx, provider, unit.Identity.ExternalUserID)
	if errors.Is(err, shared.ErrMappingNotFound) || (err == nil && mapping == nil) {
		p.Logger.Warn("No mapping for external user, skipping item",
			"provider", provider,
			"external_user_id", unit.Identity.ExternalUserID)
		return Identity{}, false, nil
	}
	if err != nil {
		p.Logger.Error("Mapping lookup failed",
			"provider", provider,
			"external_user_id", unit.Identity.ExternalUserID,
			"error", err)
		return Identity{}, false, err
	}

	return Identity{
		AgencyID:       mapping.AgencyID,
		ResidentID:     mapping.ResidentID,
		ExternalUserID: unit.Identity.ExternalUserID,
	}, true, nil
}

// upsertDevice registers or refreshes the unit's device row and returns
// the device id to link metric rows to. An upsert failure degrades to an
// unlinked metric write rather than dropping the data.
func (p *Pipeline) upsertDevice(ctx context.Context, provider string, unit *WorkUnit) string {
	if unit.Device == nil {
		return ""
	}

	record := &types.DeviceRecord{
		DeviceID:        unit.Device.DeviceID,
		AgencyID:        unit.Identity.AgencyID,
		ResidentID:      unit.Identity.ResidentID,
		DeviceType:      unit.Device.DeviceType,
		DeviceName:      unit.Device.DeviceName,
		Manufacturer:    unit.Device.Manufacturer,
		Model:           unit.Device.Model,
		FirmwareVersion: unit.Device.FirmwareVersion,
		Trusted:         true,
		Capabilities:    unit.Device.Capabilities,
		Verified:        true,
		LastSeenAt:      time.Now(),
	}

	if err := p.DB.UpsertDevice(ctx, record); err != nil {
		p.Logger.Warn("Device upsert failed, continuing without device link",
			"provider", provider, "device_id", unit.Device.DeviceID, "error", err)
		return ""
	}
	return record.DeviceID
}

func (p *Pipeline) buildRows(adapter ProviderAdapter, unit *WorkUnit, deviceID string) ([]*types.HealthMetric, []*types.DeviceDataEvent) {
	provider := adapter.Provider()

	var rows []*types.HealthMetric
	for _, reading := range unit.Readings {
		norm := adapter.Normalize(reading)
		source := reading.Source
		if source == "" {
			source = types.SourceDeviceAutomatic
		}
		confidence := reading.Confidence
		if confidence == "" {
			confidence = types.ConfidenceHigh
		}
		rows = append(rows, &types.HealthMetric{
			MetricID:   MetricDocID(provider, unit.ExternalID, norm.Type, reading.RecordedAt),
			AgencyID:   unit.Identity.AgencyID,
			ResidentID: unit.Identity.ResidentID,
			DeviceID:   deviceID,
			Category:   norm.Category,
			MetricType: norm.Type,
			Value:      reading.Value,
			Unit:       norm.Unit,
			Confidence: confidence,
			Source:     source,
			RecordedAt: reading.RecordedAt,
			RawPayload: string(unit.Raw),
		})
	}

	var events []*types.DeviceDataEvent
	for _, occ := range unit.Occurrences {
		events = append(events, &types.DeviceDataEvent{
			EventID:    EventDocID(provider, unit.ExternalID, occ.EventType, occ.OccurredAt),
			AgencyID:   unit.Identity.AgencyID,
			ResidentID: unit.Identity.ResidentID,
			DeviceID:   deviceID,
			EventType:  occ.EventType,
			Detail:     occ.Detail,
			OccurredAt: occ.OccurredAt,
		})
	}

	return rows, events
}

// completeLedger finishes the unit's ledger row. Latency covers the whole
// unit including all downstream writes.
func (p *Pipeline) completeLedger(ctx context.Context, ledgerID string, started time.Time, status int, result *UnitResult, unitErr error) {
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
	if unitErr != nil {
		data["error_message"] = unitErr.Error()
	}

	if err := p.DB.CompleteIntegrationRequest(ctx, ledgerID, data); err != nil {
		p.Logger.Warn("Failed to complete ledger row", "ledger_id", ledgerID, "error", err)
	}
}

// updateProviderHealth is fire-and-forget: failures are logged, never
// propagated.
func (p *Pipeline) updateProviderHealth(ctx context.Context, provider, agencyID string, roundTripErr error) {
	record := &types.ProviderHealthRecord{
		Provider:  provider,
		AgencyID:  agencyID,
		Status:    types.HealthStatusHealthy,
		CheckedAt: time.Now(),
	}
	if roundTripErr != nil {
		record.Status = types.HealthStatusFailed
		record.LastError = roundTripErr.Error()
	}

	if err := p.DB.SetProviderHealth(ctx, record); err != nil {
		p.Logger.Warn("Provider health update failed", "provider", provider, "error", err)
	}
}

// publishRecorded emits a CloudEvent for downstream vitals processing.
// Best effort; the webhook response does not depend on it.
func (p *Pipeline) publishRecorded(ctx context.Context, provider string, unit *WorkUnit, result *UnitResult) {
	if p.Pub == nil || result.MetricsWritten == 0 {
		return
	}

	e, err := infrapubsub.NewCloudEvent("/"+p.ServiceName, infrapubsub.EventTypeTelemetryRecorded, map[string]interface{}{
		"provider":        provider,
		"agency_id":       unit.Identity.AgencyID,
		"resident_id":     unit.Identity.ResidentID,
		"external_id":     unit.ExternalID,
		"metrics_written": result.MetricsWritten,
		"ledger_id":       result.LedgerID,
	})
	if err != nil {
		p.Logger.Warn("Failed to build telemetry event", "error", err)
		return
	}

	if _, err := p.Pub.PublishCloudEvent(ctx, shared.TopicTelemetryRecorded, e); err != nil {
		p.Logger.Warn("Failed to publish telemetry event", "error", err)
	}
}

// publishDeviceEvents mirrors publishRecorded for discrete device events
// (falls, button presses, transcripts) so alerting consumers do not have
// to poll Firestore. Best effort.
func (p *Pipeline) publishDeviceEvents(ctx context.Context, provider string, unit *WorkUnit, result *UnitResult) {
	if p.Pub == nil || result.EventsWritten == 0 {
		return
	}

	e, err := infrapubsub.NewCloudEvent("/"+p.ServiceName, infrapubsub.EventTypeDeviceEvent, map[string]interface{}{
		"provider":       provider,
		"agency_id":      unit.Identity.AgencyID,
		"resident_id":    unit.Identity.ResidentID,
		"external_id":    unit.ExternalID,
		"events_written": result.EventsWritten,
		"ledger_id":      result.LedgerID,
	})
	if err != nil {
		p.Logger.Warn("Failed to build device event", "error", err)
		return
	}

	if _, err := p.Pub.PublishCloudEvent(ctx, shared.TopicDeviceEvents, e); err != nil {
		p.Logger.Warn("Failed to publish device event", "error", err)
	}
}

// upstreamStatus maps a provider API error onto the ledger's response
// status, defaulting to 502 when the failure was not an HTTP response.
func upstreamStatus(err error) int {
	if status := httputil.StatusOf(err); status != 0 {
		return status
	}
	return http.StatusBadGateway
}
