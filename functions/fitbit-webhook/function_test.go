package fitbitwebhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caregrid/telemetry-relay/pkg/bootstrap"
	"github.com/caregrid/telemetry-relay/pkg/framework"
	"github.com/caregrid/telemetry-relay/pkg/integrations/fitbitapi"
	"github.com/caregrid/telemetry-relay/pkg/testing/mocks"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

type fakeSource struct{}

func (fakeSource) GetDailyActivitySummary(ctx context.Context, ownerID, date string) (*fitbitapi.DailyActivityResponse, error) {
	return &fitbitapi.DailyActivityResponse{
		Summary: fitbitapi.ActivitySummary{Steps: 7400, RestingHeartRate: 63},
	}, nil
}

func (fakeSource) GetSleepLog(ctx context.Context, ownerID, date string) (*fitbitapi.SleepLogResponse, error) {
	return &fitbitapi.SleepLogResponse{}, nil
}

func testService(db *mocks.MockDatabase) *bootstrap.Service {
	return &bootstrap.Service{
		DB:      db,
		Store:   &mocks.MockBlobStore{},
		Secrets: &mocks.MockSecretStore{},
		Config:  &bootstrap.Config{ProjectID: "test-project"},
	}
}

func TestVerificationHandshake(t *testing.T) {
	t.Setenv("FITBIT_VERIFY_CODE", "correct-code")

	cases := []struct {
		name   string
		query  string
		status int
	}{
		{"correct code", "?verify=correct-code", http.StatusNoContent},
		{"wrong code", "?verify=wrong-code", http.StatusNotFound},
		{"missing code", "", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			rec := httptest.NewRecorder()

			framework.WrapHTTP("fitbit-webhook", testService(&mocks.MockDatabase{}), webhookHandler(fakeSource{}), http.MethodGet, http.MethodPost)(rec, req)

			if rec.Code != tc.status {
				t.Errorf("expected %d, got %d", tc.status, rec.Code)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("verification response must have no body, got %q", rec.Body.String())
			}
		})
	}
}

func TestNotificationTriggersPull(t *testing.T) {
	var written []*types.HealthMetric
	db := &mocks.MockDatabase{
		GetExternalUserMappingFunc: func(ctx context.Context, provider, externalUserID string) (*types.ExternalUserMapping, error) {
			return &types.ExternalUserMapping{
				Provider:       provider,
				ExternalUserID: externalUserID,
				AgencyID:       "a1",
				ResidentID:     "r1",
			}, nil
		},
		WriteTelemetryBatchFunc: func(ctx context.Context, agencyID string, metrics []*types.HealthMetric, events []*types.DeviceDataEvent) error {
			written = append(written, metrics...)
			return nil
		},
	}

	body := `[{"collectionType": "activities", "date": "2026-08-01", "ownerId": "FB1", "subscriptionId": "sub-1"}]`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	framework.WrapHTTP("fitbit-webhook", testService(db), webhookHandler(fakeSource{}), http.MethodGet, http.MethodPost)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["processed"] != float64(1) {
		t.Errorf("expected 1 processed, got %v", resp)
	}

	// steps + restingHeartRate from the pulled summary
	if len(written) != 2 {
		t.Fatalf("expected 2 metric rows from the pull, got %d", len(written))
	}
	if written[0].MetricType != "steps" || written[0].Value != 7400 {
		t.Errorf("unexpected pulled metric: %+v", written[0])
	}
}

func TestEmptyNotificationArrayRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[]`))
	rec := httptest.NewRecorder()

	framework.WrapHTTP("fitbit-webhook", testService(&mocks.MockDatabase{}), webhookHandler(fakeSource{}), http.MethodGet, http.MethodPost)(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
