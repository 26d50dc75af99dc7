// Package ingest implements the telemetry ingestion pipeline shared by
// every webhook function. A provider plugs in as a ProviderAdapter: it
// validates and splits the webhook body into work units and maps its
// native metric identifiers onto the internal category/type/unit schema.
// The pipeline owns everything else: identity resolution, the integration
// request ledger, the device registry upsert and the telemetry writes.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/caregrid/telemetry-relay/pkg/types"
)

// Reading is one provider-native measurement before normalization.
type Reading struct {
	RawType    string
	Value      float64
	RawUnit    string
	RecordedAt time.Time
	Source     string
	Confidence string
}

// Normalized is the internal (category, type, unit) triple.
type Normalized struct {
	Category string
	Type     string
	Unit     string
}

// Occurrence is a discrete device event carried by a work unit.
type Occurrence struct {
	EventType  string
	Detail     map[string]string
	OccurredAt time.Time
}

// Identity ties a work unit to an agency/resident pair. Direct mode has
// both ids in the payload; indirect mode carries only the provider's
// external user id and goes through the mapping lookup.
type Identity struct {
	AgencyID       string
	ResidentID     string
	ExternalUserID string
}

// Direct reports whether the identity needs no mapping lookup.
func (id Identity) Direct() bool {
	return id.AgencyID != "" && id.ResidentID != ""
}

// DeviceSeed describes the registry row a work unit upserts.
type DeviceSeed struct {
	DeviceID        string
	DeviceType      string
	DeviceName      string
	Manufacturer    string
	Model           string
	FirmwareVersion string
	Capabilities    []string
}

// WorkUnit is one independently-ledgered item of a webhook delivery.
// Single-item providers produce one unit; batch providers (Garmin
// summaries, Fitbit notifications) produce one per item.
type WorkUnit struct {
	ExternalID  string
	RequestType string
	Identity    Identity
	Device      *DeviceSeed
	Readings    []Reading
	Occurrences []Occurrence
	Raw         json.RawMessage
}

// ProviderAdapter parameterizes the pipeline per provider.
type ProviderAdapter interface {
	// Provider returns the provider type identifier (shared.Provider*).
	Provider() string

	// Parse validates the webhook body and splits it into work units.
	// A validation error aborts the request before anything is written.
	Parse(body []byte) ([]WorkUnit, error)

	// Normalize maps a provider-native reading onto the internal triple.
	// Unmapped types must fall back to FallbackNormalize.
	Normalize(r Reading) Normalized
}

// Expander is implemented by adapters that must fetch readings from the
// provider's API after identity resolution (Fitbit's notification-then-pull
// model). The round trip happens inside the unit's ledger window so its
// latency is part of the recorded end-to-end time.
type Expander interface {
	Expand(ctx context.Context, unit *WorkUnit) error
}

// FallbackNormalize preserves unrecognized metric kinds verbatim instead
// of dropping them.
func FallbackNormalize(r Reading) Normalized {
	return Normalized{Category: types.CategoryOther, Type: r.RawType, Unit: r.RawUnit}
}

// MetricDocID derives the natural key a metric row is stored under, so a
// provider redelivering the same event lands on the same document.
func MetricDocID(provider, externalID, metricType string, recordedAt time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%d", provider, externalID, sanitizeID(metricType), recordedAt.Unix())
}

// EventDocID is the equivalent natural key for device data events.
func EventDocID(provider, externalID, eventType string, occurredAt time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%d", provider, externalID, sanitizeID(eventType), occurredAt.Unix())
}

// sanitizeID strips characters Firestore document ids cannot contain.
func sanitizeID(s string) string {
	return strings.NewReplacer("/", "_", " ", "_").Replace(s)
}
