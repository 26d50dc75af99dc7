package mocks

import (
	"context"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/caregrid/telemetry-relay/pkg"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

// --- Mock Database ---
type MockDatabase struct {
	CreateIntegrationRequestFunc   func(ctx context.Context, record *types.IntegrationRequest) error
	CompleteIntegrationRequestFunc func(ctx context.Context, id string, data map[string]interface{}) error
	UpsertDeviceFunc               func(ctx context.Context, device *types.DeviceRecord) error
	GetExternalUserMappingFunc     func(ctx context.Context, provider, externalUserID string) (*types.ExternalUserMapping, error)
	WriteTelemetryBatchFunc        func(ctx context.Context, agencyID string, metrics []*types.HealthMetric, events []*types.DeviceDataEvent) error
	SetProviderHealthFunc          func(ctx context.Context, record *types.ProviderHealthRecord) error
}

func (m *MockDatabase) CreateIntegrationRequest(ctx context.Context, record *types.IntegrationRequest) error {
	if m.CreateIntegrationRequestFunc != nil {
		return m.CreateIntegrationRequestFunc(ctx, record)
	}
	return nil
}
func (m *MockDatabase) CompleteIntegrationRequest(ctx context.Context, id string, data map[string]interface{}) error {
	if m.CompleteIntegrationRequestFunc != nil {
		return m.CompleteIntegrationRequestFunc(ctx, id, data)
	}
	return nil
}
func (m *MockDatabase) UpsertDevice(ctx context.Context, device *types.DeviceRecord) error {
	if m.UpsertDeviceFunc != nil {
		return m.UpsertDeviceFunc(ctx, device)
	}
	return nil
}
func (m *MockDatabase) GetExternalUserMapping(ctx context.Context, provider, externalUserID string) (*types.ExternalUserMapping, error) {
	if m.GetExternalUserMappingFunc != nil {
		return m.GetExternalUserMappingFunc(ctx, provider, externalUserID)
	}
	return nil, shared.ErrMappingNotFound
}
func (m *MockDatabase) WriteTelemetryBatch(ctx context.Context, agencyID string, metrics []*types.HealthMetric, events []*types.DeviceDataEvent) error {
	if m.WriteTelemetryBatchFunc != nil {
		return m.WriteTelemetryBatchFunc(ctx, agencyID, metrics, events)
	}
	return nil
}
func (m *MockDatabase) SetProviderHealth(ctx context.Context, record *types.ProviderHealthRecord) error {
	if m.SetProviderHealthFunc != nil {
		return m.SetProviderHealthFunc(ctx, record)
	}
	return nil
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock Storage ---
type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}
func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return []byte("mock-data"), nil
}

// --- Mock Secrets ---
type MockSecretStore struct {
	GetSecretFunc func(ctx context.Context, name string) (string, error)
}

func (m *MockSecretStore) GetSecret(ctx context.Context, name string) (string, error) {
	if m.GetSecretFunc != nil {
		return m.GetSecretFunc(ctx, name)
	}
	return "mock-secret-value", nil
}
