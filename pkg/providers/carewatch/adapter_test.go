package carewatch

import (
	"testing"

	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

func TestParseValidPayload(t *testing.T) {
	body := []byte(`{
		"device_id": "cw-001",
		"agency_id": "a1",
		"resident_id": "r1",
		"device_type": "blood_pressure_cuff",
		"vitals": {"systolic_bp": 128, "diastolic_bp": 82, "heart_rate": 71}
	}`)

	units, err := New().Parse(body)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("expected single work unit, got %d", len(units))
	}

	unit := units[0]
	if !unit.Identity.Direct() {
		t.Error("expected direct identity")
	}
	if unit.ExternalID != "cw-001" {
		t.Errorf("expected raw device id as external id, got %q", unit.ExternalID)
	}
	if unit.Device.DeviceID != "cw-001" {
		t.Errorf("generic devices keep their own id, got %q", unit.Device.DeviceID)
	}
	if unit.Device.DeviceName != "Blood Pressure Cuff" {
		t.Errorf("unexpected display name %q", unit.Device.DeviceName)
	}
	if len(unit.Readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(unit.Readings))
	}
	// Keys come out sorted.
	if unit.Readings[0].RawType != "diastolic_bp" || unit.Readings[0].Value != 82 {
		t.Errorf("unexpected first reading: %+v", unit.Readings[0])
	}
	if len(unit.Occurrences) != 1 || unit.Occurrences[0].EventType != "metric_recorded" {
		t.Errorf("expected metric_recorded occurrence, got %+v", unit.Occurrences)
	}
}

func TestParseRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing device_id", `{"agency_id": "a1", "resident_id": "r1"}`},
		{"missing agency_id", `{"device_id": "d1", "resident_id": "r1"}`},
		{"missing resident_id", `{"device_id": "d1", "agency_id": "a1"}`},
		{"malformed json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New().Parse([]byte(tc.body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestNormalizeVitalsMapping(t *testing.T) {
	a := New()

	got := a.Normalize(ingest.Reading{RawType: "spo2"})
	if got.Category != types.CategoryVitals || got.Type != "oxygen_saturation" || got.Unit != "percent" {
		t.Errorf("unexpected spo2 mapping: %+v", got)
	}

	got = a.Normalize(ingest.Reading{RawType: "gait_speed", RawUnit: "m/s"})
	if got.Category != types.CategoryOther || got.Type != "gait_speed" || got.Unit != "m/s" {
		t.Errorf("expected OTHER fallback, got %+v", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName("pulse_oximeter"); got != "Pulse Oximeter" {
		t.Errorf("got %q", got)
	}
	if got := displayName("care_device"); got != "Care Device" {
		t.Errorf("got %q", got)
	}
}
