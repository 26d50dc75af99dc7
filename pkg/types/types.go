// Package types holds the persisted domain records shared by the webhook
// functions and the ingestion pipeline.
package types

import "time"

// Metric categories for normalized measurements. Unrecognized provider
// metric types fall back to CategoryOther with the raw type preserved.
const (
	CategoryVitals   = "VITALS"
	CategoryActivity = "ACTIVITY"
	CategorySleep    = "SLEEP"
	CategoryBody     = "BODY"
	CategoryOther    = "OTHER"
)

// Measurement sources.
const (
	SourceDeviceAutomatic = "device_automatic"
	SourceManualEntry     = "manual_entry"
	SourceDerived         = "derived"
)

// Confidence levels attached to normalized metrics.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Provider health statuses.
const (
	HealthStatusHealthy = "healthy"
	HealthStatusFailed  = "failed"
)

// IntegrationRequest is one ledger row per inbound/outbound unit of work.
// Created at unit start, updated exactly once at completion. Nothing else
// mutates it.
type IntegrationRequest struct {
	RequestID         string     `firestore:"request_id"`
	AgencyID          string     `firestore:"agency_id"`
	ProviderType      string     `firestore:"provider_type"`
	ProviderName      string     `firestore:"provider_name"`
	RequestType       string     `firestore:"request_type"`
	ProviderRequestID string     `firestore:"provider_request_id"`
	RequestPayload    string     `firestore:"request_payload"`
	ResponsePayload   string     `firestore:"response_payload"`
	ResponseStatus    int        `firestore:"response_status"`
	LatencyMs         int64      `firestore:"latency_ms"`
	ErrorMessage      string     `firestore:"error_message"`
	StartedAt         time.Time  `firestore:"started_at"`
	CompletedAt       *time.Time `firestore:"completed_at"`
}

// DeviceRecord is the registry row for a physical or virtual device,
// keyed by a synthesized provider-prefixed device id. Upserts are full
// replaces; the latest webhook wins.
type DeviceRecord struct {
	DeviceID        string    `firestore:"device_id"`
	AgencyID        string    `firestore:"agency_id"`
	ResidentID      string    `firestore:"resident_id"`
	DeviceType      string    `firestore:"device_type"`
	DeviceName      string    `firestore:"device_name"`
	Manufacturer    string    `firestore:"manufacturer"`
	Model           string    `firestore:"model"`
	FirmwareVersion string    `firestore:"firmware_version"`
	Trusted         bool      `firestore:"trusted"`
	Capabilities    []string  `firestore:"capabilities"`
	Verified        bool      `firestore:"verified"`
	LastSeenAt      time.Time `firestore:"last_seen_at"`
}

// HealthMetric is one normalized measurement. Append-only; the document id
// is a natural key derived from (provider, external id, metric type,
// recorded-at) so provider redelivery lands on the same document.
type HealthMetric struct {
	MetricID   string    `firestore:"metric_id"`
	AgencyID   string    `firestore:"agency_id"`
	ResidentID string    `firestore:"resident_id"`
	DeviceID   string    `firestore:"device_id"` // empty when the device upsert failed
	Category   string    `firestore:"metric_category"`
	MetricType string    `firestore:"metric_type"`
	Value      float64   `firestore:"value"`
	Unit       string    `firestore:"unit"`
	Confidence string    `firestore:"confidence"`
	Source     string    `firestore:"measurement_source"`
	RecordedAt time.Time `firestore:"recorded_at"`
	RawPayload string    `firestore:"raw_payload"`
}

// DeviceDataEvent is one discrete device occurrence (metric recorded,
// activity completed, voice note transcribed). Append-only.
type DeviceDataEvent struct {
	EventID    string            `firestore:"event_id"`
	AgencyID   string            `firestore:"agency_id"`
	ResidentID string            `firestore:"resident_id"`
	DeviceID   string            `firestore:"device_id"`
	EventType  string            `firestore:"event_type"`
	Detail     map[string]string `firestore:"detail"`
	OccurredAt time.Time         `firestore:"occurred_at"`
}

// ExternalUserMapping translates a provider's external user id into the
// internal agency/resident pair. Read-only from the relay's perspective;
// rows are provisioned when a resident links a provider account.
type ExternalUserMapping struct {
	Provider       string `firestore:"provider"`
	ExternalUserID string `firestore:"external_user_id"`
	AgencyID       string `firestore:"agency_id"`
	ResidentID     string `firestore:"resident_id"`
}

// ProviderHealthRecord tracks the last observed outcome of a provider
// round trip, scoped per (provider, agency). Purely observational.
type ProviderHealthRecord struct {
	Provider  string    `firestore:"provider"`
	AgencyID  string    `firestore:"agency_id"`
	Status    string    `firestore:"status"`
	LastError string    `firestore:"last_error"`
	CheckedAt time.Time `firestore:"checked_at"`
}
