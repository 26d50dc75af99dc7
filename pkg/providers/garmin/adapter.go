// Package garmin adapts Garmin Health push webhooks. A delivery carries a
// summaries array; each summary becomes its own work unit with an
// indirect identity (Garmin only sends its own userId, so the pipeline
// resolves the agency/resident pair through the mapping table).
package garmin

import (
	"encoding/json"
	"fmt"
	"time"

	shared "github.com/caregrid/telemetry-relay/pkg"
	"github.com/caregrid/telemetry-relay/pkg/ingest"
)

type webhookPayload struct {
	Summaries []summaryPayload `json:"summaries"`
}

type summaryPayload struct {
	UserID             string `json:"userId"`
	SummaryID          string `json:"summaryId"`
	SummaryType        string `json:"summaryType"`
	ActivityType       string `json:"activityType"`
	StartTimeInSeconds int64  `json:"startTimeInSeconds"`
	DurationInSeconds  int64  `json:"durationInSeconds"`

	Steps                            *float64 `json:"steps"`
	DistanceInMeters                 *float64 `json:"distanceInMeters"`
	ActiveKilocalories               *float64 `json:"activeKilocalories"`
	FloorsClimbed                    *float64 `json:"floorsClimbed"`
	AverageHeartRateInBeatsPerMinute *float64 `json:"averageHeartRateInBeatsPerMinute"`
	RestingHeartRateInBeatsPerMinute *float64 `json:"restingHeartRateInBeatsPerMinute"`
	AverageStressLevel               *float64 `json:"averageStressLevel"`
	PulseOx                          *float64 `json:"pulseOx"`
	SleepDurationInSeconds           *float64 `json:"sleepDurationInSeconds"`
	DeepSleepDurationInSeconds       *float64 `json:"deepSleepDurationInSeconds"`
}

type Adapter struct{}

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Provider() string {
	return shared.ProviderGarmin
}

func (a *Adapter) Parse(body []byte) ([]ingest.WorkUnit, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if len(payload.Summaries) == 0 {
		return nil, fmt.Errorf("summaries array is required")
	}

	units := make([]ingest.WorkUnit, 0, len(payload.Summaries))
	for _, s := range payload.Summaries {
		units = append(units, a.buildUnit(s))
	}
	return units, nil
}

func (a *Adapter) buildUnit(s summaryPayload) ingest.WorkUnit {
	recordedAt := time.Unix(s.StartTimeInSeconds, 0).UTC()
	if s.StartTimeInSeconds == 0 {
		recordedAt = time.Now()
	}

	raw, _ := json.Marshal(s)
	unit := ingest.WorkUnit{
		ExternalID:  s.SummaryID,
		RequestType: shared.RequestTypeTelemetryPush,
		Identity:    ingest.Identity{ExternalUserID: s.UserID},
		Raw:         raw,
	}

	if s.UserID != "" {
		unit.Device = &ingest.DeviceSeed{
			DeviceID:     fmt.Sprintf("%s-%s", shared.ProviderGarmin, s.UserID),
			DeviceType:   "wearable",
			DeviceName:   "Garmin Device",
			Manufacturer: "Garmin",
			Capabilities: []string{"heart_rate", "activity", "sleep", "stress"},
		}
	}

	for _, f := range s.metricFields() {
		unit.Readings = append(unit.Readings, ingest.Reading{
			RawType:    f.name,
			Value:      f.value,
			RecordedAt: recordedAt,
		})
	}

	if s.SummaryType == "activity" {
		detail := map[string]string{"summary_id": s.SummaryID}
		if s.ActivityType != "" {
			detail["activity_type"] = s.ActivityType
		}
		if s.DurationInSeconds > 0 {
			detail["duration_seconds"] = fmt.Sprintf("%d", s.DurationInSeconds)
		}
		unit.Occurrences = append(unit.Occurrences, ingest.Occurrence{
			EventType:  "activity_completed",
			Detail:     detail,
			OccurredAt: recordedAt,
		})
	}

	return unit
}

type metricField struct {
	name  string
	value float64
}

// metricFields flattens the summary's optional metric columns into
// (field name, value) pairs in a stable order.
func (s summaryPayload) metricFields() []metricField {
	var out []metricField
	add := func(name string, v *float64) {
		if v != nil {
			out = append(out, metricField{name, *v})
		}
	}
	add("steps", s.Steps)
	add("distanceInMeters", s.DistanceInMeters)
	add("activeKilocalories", s.ActiveKilocalories)
	add("floorsClimbed", s.FloorsClimbed)
	add("averageHeartRateInBeatsPerMinute", s.AverageHeartRateInBeatsPerMinute)
	add("restingHeartRateInBeatsPerMinute", s.RestingHeartRateInBeatsPerMinute)
	add("averageStressLevel", s.AverageStressLevel)
	add("pulseOx", s.PulseOx)
	add("sleepDurationInSeconds", s.SleepDurationInSeconds)
	add("deepSleepDurationInSeconds", s.DeepSleepDurationInSeconds)
	return out
}

func (a *Adapter) Normalize(r ingest.Reading) ingest.Normalized {
	if mapped, ok := metricMappings[r.RawType]; ok {
		return mapped
	}
	return ingest.FallbackNormalize(r)
}
