package garmin

import (
	"testing"
	"time"

	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

func TestParseSplitsSummariesIntoUnits(t *testing.T) {
	body := []byte(`{
		"summaries": [
			{
				"userId": "g-user-1",
				"summaryId": "daily-123",
				"summaryType": "daily",
				"startTimeInSeconds": 1754042400,
				"steps": 6500,
				"distanceInMeters": 4100.5,
				"restingHeartRateInBeatsPerMinute": 58
			},
			{
				"userId": "g-user-2",
				"summaryId": "sleep-456",
				"summaryType": "sleep",
				"startTimeInSeconds": 1754006400,
				"sleepDurationInSeconds": 27360
			}
		]
	}`)

	units, err := New().Parse(body)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("expected 2 work units, got %d", len(units))
	}

	first := units[0]
	if first.ExternalID != "daily-123" {
		t.Errorf("expected summaryId as external id, got %q", first.ExternalID)
	}
	if first.Identity.Direct() {
		t.Error("expected indirect identity")
	}
	if first.Identity.ExternalUserID != "g-user-1" {
		t.Errorf("unexpected external user id %q", first.Identity.ExternalUserID)
	}
	if first.Device == nil || first.Device.DeviceID != "garmin-g-user-1" {
		t.Fatalf("expected synthesized device id, got %+v", first.Device)
	}
	if len(first.Readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(first.Readings))
	}
	want := time.Unix(1754042400, 0).UTC()
	if !first.Readings[0].RecordedAt.Equal(want) {
		t.Errorf("expected recorded_at %v, got %v", want, first.Readings[0].RecordedAt)
	}
	if len(first.Occurrences) != 0 {
		t.Errorf("daily summary must not emit events, got %d", len(first.Occurrences))
	}

	if units[1].ExternalID != "sleep-456" {
		t.Errorf("unexpected second unit external id %q", units[1].ExternalID)
	}
}

func TestParseRejectsMissingSummaries(t *testing.T) {
	if _, err := New().Parse([]byte(`{}`)); err == nil {
		t.Fatal("expected error for missing summaries array")
	}
	if _, err := New().Parse([]byte(`{"summaries": []}`)); err == nil {
		t.Fatal("expected error for empty summaries array")
	}
}

func TestParseActivitySummaryEmitsCompletionEvent(t *testing.T) {
	body := []byte(`{
		"summaries": [{
			"userId": "g-user-1",
			"summaryId": "act-789",
			"summaryType": "activity",
			"activityType": "WALKING",
			"startTimeInSeconds": 1754042400,
			"durationInSeconds": 1800,
			"activeKilocalories": 240,
			"averageHeartRateInBeatsPerMinute": 92
		}]
	}`)

	units, err := New().Parse(body)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	unit := units[0]
	if len(unit.Occurrences) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(unit.Occurrences))
	}
	occ := unit.Occurrences[0]
	if occ.EventType != "activity_completed" {
		t.Errorf("unexpected event type %q", occ.EventType)
	}
	if occ.Detail["activity_type"] != "WALKING" {
		t.Errorf("expected activity type in detail, got %v", occ.Detail)
	}
	if occ.Detail["duration_seconds"] != "1800" {
		t.Errorf("expected duration in detail, got %v", occ.Detail)
	}
}

func TestNormalizeMappedAndFallback(t *testing.T) {
	a := New()

	got := a.Normalize(ingest.Reading{RawType: "restingHeartRateInBeatsPerMinute"})
	if got.Category != types.CategoryVitals || got.Type != "resting_heart_rate" || got.Unit != "bpm" {
		t.Errorf("unexpected mapping for resting heart rate: %+v", got)
	}

	got = a.Normalize(ingest.Reading{RawType: "bodyBatteryLevel", RawUnit: "score"})
	if got.Category != types.CategoryOther || got.Type != "bodyBatteryLevel" {
		t.Errorf("expected OTHER fallback, got %+v", got)
	}
}
