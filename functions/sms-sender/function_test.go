package smssender

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caregrid/telemetry-relay/pkg/bootstrap"
	"github.com/caregrid/telemetry-relay/pkg/framework"
	httputil "github.com/caregrid/telemetry-relay/pkg/infrastructure/http"
	"github.com/caregrid/telemetry-relay/pkg/integrations/twilio"
	"github.com/caregrid/telemetry-relay/pkg/testing/mocks"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

type fakeSender struct {
	msg *twilio.Message
	err error
}

func (f *fakeSender) SendSMS(ctx context.Context, to, body string) (*twilio.Message, error) {
	return f.msg, f.err
}

func testService(db *mocks.MockDatabase) *bootstrap.Service {
	return &bootstrap.Service{
		DB:      db,
		Store:   &mocks.MockBlobStore{},
		Secrets: &mocks.MockSecretStore{},
		Config:  &bootstrap.Config{ProjectID: "test-project"},
	}
}

func TestSendSMSSuccess(t *testing.T) {
	var created *types.IntegrationRequest
	var completed map[string]interface{}
	var health *types.ProviderHealthRecord

	db := &mocks.MockDatabase{
		CreateIntegrationRequestFunc: func(ctx context.Context, record *types.IntegrationRequest) error {
			created = record
			return nil
		},
		CompleteIntegrationRequestFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			completed = data
			return nil
		},
		SetProviderHealthFunc: func(ctx context.Context, record *types.ProviderHealthRecord) error {
			health = record
			return nil
		},
	}

	sender := &fakeSender{msg: &twilio.Message{SID: "SM1", Status: "queued"}}
	body := `{"agency_id": "a1", "to": "+15551234567", "body": "Time for medication"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	framework.WrapHTTP("sms-sender", testService(db), sendHandler(sender))(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["success"] != true || resp["message_sid"] != "SM1" {
		t.Errorf("unexpected response: %v", resp)
	}

	if created == nil || created.RequestType != "outbound_sms" {
		t.Fatalf("unexpected ledger row: %+v", created)
	}
	if strings.Contains(created.RequestPayload, "Time for medication") {
		t.Error("message text must not be recorded on the ledger")
	}
	if completed["response_status"] != 200 {
		t.Errorf("expected ledger status 200, got %v", completed["response_status"])
	}
	if health == nil || health.Status != types.HealthStatusHealthy {
		t.Fatalf("expected healthy twilio status, got %+v", health)
	}
}

func TestSendSMSAuthFailure(t *testing.T) {
	var completed map[string]interface{}
	var health *types.ProviderHealthRecord

	db := &mocks.MockDatabase{
		CompleteIntegrationRequestFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			completed = data
			return nil
		},
		SetProviderHealthFunc: func(ctx context.Context, record *types.ProviderHealthRecord) error {
			health = record
			return nil
		},
	}

	sender := &fakeSender{
		err: fmt.Errorf("twilio API: %w", &httputil.HTTPError{StatusCode: 401, Status: "Unauthorized", Body: "Authentication Error"}),
	}
	body := `{"agency_id": "a1", "to": "+15551234567", "body": "hi"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	framework.WrapHTTP("sms-sender", testService(db), sendHandler(sender))(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if completed["response_status"] != 401 {
		t.Errorf("expected ledger status 401, got %v", completed["response_status"])
	}
	if completed["error_message"] == nil {
		t.Error("expected error_message on ledger row")
	}
	if health == nil || health.Status != types.HealthStatusFailed {
		t.Fatalf("expected failed twilio status, got %+v", health)
	}
}

func TestSendSMSValidationError(t *testing.T) {
	ledgered := false
	db := &mocks.MockDatabase{
		CreateIntegrationRequestFunc: func(ctx context.Context, record *types.IntegrationRequest) error {
			ledgered = true
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"agency_id": "a1"}`))
	rec := httptest.NewRecorder()

	framework.WrapHTTP("sms-sender", testService(db), sendHandler(&fakeSender{}))(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if ledgered {
		t.Error("validation failure must not write a ledger row")
	}
}
