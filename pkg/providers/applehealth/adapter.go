// Package applehealth adapts Apple Health export webhooks. The payload
// carries the agency/resident pair directly, so no mapping lookup is
// needed, and each delivery is a single work unit.
package applehealth

import (
	"encoding/json"
	"fmt"
	"time"

	shared "github.com/caregrid/telemetry-relay/pkg"
	"github.com/caregrid/telemetry-relay/pkg/ingest"
)

type webhookPayload struct {
	AgencyID   string          `json:"agency_id"`
	ResidentID string          `json:"resident_id"`
	Device     devicePayload   `json:"device"`
	Metrics    []metricPayload `json:"metrics"`
}

type devicePayload struct {
	HardwareID string `json:"hardware_id"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	OSVersion  string `json:"os_version"`
}

type metricPayload struct {
	Type       string    `json:"type"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recorded_at"`
}

type Adapter struct{}

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Provider() string {
	return shared.ProviderAppleHealth
}

func (a *Adapter) Parse(body []byte) ([]ingest.WorkUnit, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if len(payload.Metrics) == 0 {
		return nil, fmt.Errorf("metrics array is required")
	}
	if payload.AgencyID == "" || payload.ResidentID == "" {
		return nil, fmt.Errorf("agency_id and resident_id are required")
	}

	externalID := payload.Device.HardwareID
	if externalID == "" {
		externalID = payload.ResidentID
	}

	unit := ingest.WorkUnit{
		ExternalID:  externalID,
		RequestType: shared.RequestTypeTelemetryPush,
		Identity: ingest.Identity{
			AgencyID:   payload.AgencyID,
			ResidentID: payload.ResidentID,
		},
		Raw: json.RawMessage(body),
	}

	if payload.Device.HardwareID != "" {
		name := payload.Device.Name
		if name == "" {
			name = "Apple Watch"
		}
		unit.Device = &ingest.DeviceSeed{
			DeviceID:        fmt.Sprintf("%s-%s", shared.ProviderAppleHealth, payload.Device.HardwareID),
			DeviceType:      "wearable",
			DeviceName:      name,
			Manufacturer:    "Apple",
			Model:           payload.Device.Model,
			FirmwareVersion: payload.Device.OSVersion,
			Capabilities:    []string{"heart_rate", "activity", "sleep"},
		}
	}

	for _, m := range payload.Metrics {
		recordedAt := m.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = time.Now()
		}
		unit.Readings = append(unit.Readings, ingest.Reading{
			RawType:    m.Type,
			Value:      m.Value,
			RawUnit:    m.Unit,
			RecordedAt: recordedAt,
		})
	}

	unit.Occurrences = append(unit.Occurrences, ingest.Occurrence{
		EventType:  "metric_recorded",
		Detail:     map[string]string{"metric_count": fmt.Sprintf("%d", len(payload.Metrics))},
		OccurredAt: time.Now(),
	})

	return []ingest.WorkUnit{unit}, nil
}

func (a *Adapter) Normalize(r ingest.Reading) ingest.Normalized {
	if mapped, ok := metricMappings[r.RawType]; ok {
		return mapped
	}
	return ingest.FallbackNormalize(r)
}
