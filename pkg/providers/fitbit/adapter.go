// Package fitbit adapts Fitbit subscription notifications. Fitbit's
// webhook is pull-model: a notification names only (ownerId,
// collectionType, date), so after identity resolution the adapter fetches
// that date's data from the Fitbit Web API inside the unit's ledger
// window.
package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	shared "github.com/caregrid/telemetry-relay/pkg"
	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/integrations/fitbitapi"
)

// DataSource is the slice of the Fitbit Web API the adapter pulls from.
type DataSource interface {
	GetDailyActivitySummary(ctx context.Context, ownerID, date string) (*fitbitapi.DailyActivityResponse, error)
	GetSleepLog(ctx context.Context, ownerID, date string) (*fitbitapi.SleepLogResponse, error)
}

// notification is one element of Fitbit's bare-array webhook body.
type notification struct {
	CollectionType string `json:"collectionType"`
	Date           string `json:"date"`
	OwnerID        string `json:"ownerId"`
	OwnerType      string `json:"ownerType"`
	SubscriptionID string `json:"subscriptionId"`
}

type Adapter struct {
	source DataSource
}

func New(source DataSource) *Adapter {
	return &Adapter{source: source}
}

func (a *Adapter) Provider() string {
	return shared.ProviderFitbit
}

func (a *Adapter) Parse(body []byte) ([]ingest.WorkUnit, error) {
	var notifications []notification
	if err := json.Unmarshal(body, &notifications); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	if len(notifications) == 0 {
		return nil, fmt.Errorf("notification array is empty")
	}

	units := make([]ingest.WorkUnit, 0, len(notifications))
	for _, n := range notifications {
		raw, _ := json.Marshal(n)
		unit := ingest.WorkUnit{
			ExternalID:  n.OwnerID,
			RequestType: shared.RequestTypeDataPull,
			Identity:    ingest.Identity{ExternalUserID: n.OwnerID},
			Raw:         raw,
		}
		if n.OwnerID != "" {
			unit.Device = &ingest.DeviceSeed{
				DeviceID:     fmt.Sprintf("%s-%s", shared.ProviderFitbit, n.OwnerID),
				DeviceType:   "wearable",
				DeviceName:   "Fitbit Tracker",
				Manufacturer: "Fitbit",
				Capabilities: []string{"heart_rate", "activity", "sleep"},
			}
		}
		units = append(units, unit)
	}
	return units, nil
}

// Expand pulls the notified date's data and attaches it as readings. The
// readings inherit the notification date at midnight UTC so redelivery of
// the same notification lands on the same metric documents.
func (a *Adapter) Expand(ctx context.Context, unit *ingest.WorkUnit) error {
	var n notification
	if err := json.Unmarshal(unit.Raw, &n); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}

	recordedAt, err := time.Parse("2006-01-02", n.Date)
	if err != nil {
		return fmt.Errorf("invalid notification date %q: %w", n.Date, err)
	}

	switch n.CollectionType {
	case "activities":
		summary, err := a.source.GetDailyActivitySummary(ctx, n.OwnerID, n.Date)
		if err != nil {
			return fmt.Errorf("pull activity summary: %w", err)
		}
		add := func(field string, v float64) {
			if v > 0 {
				unit.Readings = append(unit.Readings, ingest.Reading{
					RawType:    field,
					Value:      v,
					RecordedAt: recordedAt,
				})
			}
		}
		add("steps", summary.Summary.Steps)
		add("caloriesOut", summary.Summary.CaloriesOut)
		add("restingHeartRate", summary.Summary.RestingHeartRate)
		add("fairlyActiveMinutes", summary.Summary.FairlyActiveMinutes)
		add("veryActiveMinutes", summary.Summary.VeryActiveMinutes)
		add("floors", summary.Summary.Floors)
	case "sleep":
		sleep, err := a.source.GetSleepLog(ctx, n.OwnerID, n.Date)
		if err != nil {
			return fmt.Errorf("pull sleep log: %w", err)
		}
		if sleep.Summary.TotalMinutesAsleep > 0 {
			unit.Readings = append(unit.Readings, ingest.Reading{
				RawType:    "totalMinutesAsleep",
				Value:      sleep.Summary.TotalMinutesAsleep,
				RecordedAt: recordedAt,
			})
		}
		if sleep.Summary.TotalTimeInBed > 0 {
			unit.Readings = append(unit.Readings, ingest.Reading{
				RawType:    "totalTimeInBed",
				Value:      sleep.Summary.TotalTimeInBed,
				RecordedAt: recordedAt,
			})
		}
	default:
		// Other collection types (body, foods) carry nothing we ingest.
	}

	return nil
}

func (a *Adapter) Normalize(r ingest.Reading) ingest.Normalized {
	if mapped, ok := metricMappings[r.RawType]; ok {
		return mapped
	}
	return ingest.FallbackNormalize(r)
}
