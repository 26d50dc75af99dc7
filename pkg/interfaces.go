package shared

import (
	"context"
	"errors"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/caregrid/telemetry-relay/pkg/types"
)

// ErrMappingNotFound reports that an external user has no provisioned
// agency/resident mapping. Callers treat it as a per-item skip; any other
// lookup error is an infrastructure failure.
var ErrMappingNotFound = errors.New("external user mapping not found")

// --- Persistence Interfaces ---

type Database interface {
	// Integration request ledger
	CreateIntegrationRequest(ctx context.Context, record *types.IntegrationRequest) error
	CompleteIntegrationRequest(ctx context.Context, id string, data map[string]interface{}) error

	// Device registry
	UpsertDevice(ctx context.Context, device *types.DeviceRecord) error

	// External identity mapping (read-only for the relay)
	GetExternalUserMapping(ctx context.Context, provider, externalUserID string) (*types.ExternalUserMapping, error)

	// Telemetry writes. All metrics and events for one unit of work commit
	// together or not at all.
	WriteTelemetryBatch(ctx context.Context, agencyID string, metrics []*types.HealthMetric, events []*types.DeviceDataEvent) error

	// Provider health monitoring
	SetProviderHealth(ctx context.Context, record *types.ProviderHealthRecord) error
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// --- Secret Interfaces ---

type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
}
