// Package carewatch adapts the generic care-device webhook. Unlike the
// branded providers it takes the device's own id verbatim and a free-form
// vitals map, so unknown device models can push without a firmware
// update on our side.
package carewatch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	shared "github.com/caregrid/telemetry-relay/pkg"
	"github.com/caregrid/telemetry-relay/pkg/ingest"
)

type webhookPayload struct {
	DeviceID   string             `json:"device_id"`
	AgencyID   string             `json:"agency_id"`
	ResidentID string             `json:"resident_id"`
	DeviceType string             `json:"device_type"`
	Vitals     map[string]float64 `json:"vitals"`
	RecordedAt time.Time          `json:"recorded_at"`
}

type Adapter struct{}

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Provider() string {
	return shared.ProviderCareWatch
}

func (a *Adapter) Parse(body []byte) ([]ingest.WorkUnit, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if payload.DeviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}
	if payload.AgencyID == "" || payload.ResidentID == "" {
		return nil, fmt.Errorf("agency_id and resident_id are required")
	}

	recordedAt := payload.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	deviceType := payload.DeviceType
	if deviceType == "" {
		deviceType = "care_device"
	}

	unit := ingest.WorkUnit{
		ExternalID:  payload.DeviceID,
		RequestType: shared.RequestTypeTelemetryPush,
		Identity: ingest.Identity{
			AgencyID:   payload.AgencyID,
			ResidentID: payload.ResidentID,
		},
		Device: &ingest.DeviceSeed{
			DeviceID:     payload.DeviceID,
			DeviceType:   deviceType,
			DeviceName:   displayName(deviceType),
			Capabilities: vitalKeys(payload.Vitals),
		},
		Raw: json.RawMessage(body),
	}

	for _, key := range vitalKeys(payload.Vitals) {
		unit.Readings = append(unit.Readings, ingest.Reading{
			RawType:    key,
			Value:      payload.Vitals[key],
			RecordedAt: recordedAt,
		})
	}

	unit.Occurrences = append(unit.Occurrences, ingest.Occurrence{
		EventType:  "metric_recorded",
		Detail:     map[string]string{"device_type": deviceType},
		OccurredAt: recordedAt,
	})

	return []ingest.WorkUnit{unit}, nil
}

// vitalKeys returns the map keys sorted, so readings and the derived
// metric documents come out in a stable order.
func vitalKeys(vitals map[string]float64) []string {
	keys := make([]string, 0, len(vitals))
	for k := range vitals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// displayName turns a device_type slug into a human-readable name,
// e.g. "blood_pressure_cuff" -> "Blood Pressure Cuff".
func displayName(deviceType string) string {
	words := strings.ReplaceAll(deviceType, "_", " ")
	return cases.Title(language.English).String(words)
}

func (a *Adapter) Normalize(r ingest.Reading) ingest.Normalized {
	if mapped, ok := vitalMappings[r.RawType]; ok {
		return mapped
	}
	return ingest.FallbackNormalize(r)
}
