package database

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	shared "github.com/caregrid/telemetry-relay/pkg"
	storage "github.com/caregrid/telemetry-relay/pkg/storage/firestore"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore
// It wraps our typed storage client
type FirestoreAdapter struct {
	storage *storage.Client // internal typed wrapper
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{
		storage: storage.NewClient(client),
	}
}

func (a *FirestoreAdapter) CreateIntegrationRequest(ctx context.Context, record *types.IntegrationRequest) error {
	if record.RequestID == "" {
		return fmt.Errorf("integration request missing request_id")
	}
	return a.storage.IntegrationRequests().Doc(record.RequestID).Set(ctx, record)
}

func (a *FirestoreAdapter) CompleteIntegrationRequest(ctx context.Context, id string, data map[string]interface{}) error {
	return a.storage.IntegrationRequests().Doc(id).Update(ctx, data)
}

// UpsertDevice is a full replace keyed on the synthesized device id.
// Last writer wins, including the resident linkage.
func (a *FirestoreAdapter) UpsertDevice(ctx context.Context, device *types.DeviceRecord) error {
	return a.storage.Devices(device.AgencyID).Doc(device.DeviceID).Set(ctx, device)
}

// GetExternalUserMapping translates a Firestore NotFound into the shared
// sentinel so the pipeline can tell an unprovisioned user apart from an
// outage.
func (a *FirestoreAdapter) GetExternalUserMapping(ctx context.Context, provider, externalUserID string) (*types.ExternalUserMapping, error) {
	mapping, err := a.storage.ExternalUserMappings().Doc(storage.MappingDocID(provider, externalUserID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, shared.ErrMappingNotFound
		}
		return nil, err
	}
	return mapping, nil
}

// WriteTelemetryBatch commits all metric and event rows for one unit of
// work in a single Firestore write batch. Metric document ids are natural
// keys, so a redelivered unit overwrites the same documents instead of
// duplicating them.
func (a *FirestoreAdapter) WriteTelemetryBatch(ctx context.Context, agencyID string, metrics []*types.HealthMetric, events []*types.DeviceDataEvent) error {
	if len(metrics) == 0 && len(events) == 0 {
		return nil
	}

	batch := a.storage.Raw().Batch()
	for _, m := range metrics {
		ref := a.storage.HealthMetrics(agencyID).Doc(m.MetricID).Ref
		batch.Set(ref, m)
	}
	for _, e := range events {
		ref := a.storage.DeviceEvents(agencyID).Doc(e.EventID).Ref
		batch.Set(ref, e)
	}

	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("telemetry batch commit: %w", err)
	}
	return nil
}

func (a *FirestoreAdapter) SetProviderHealth(ctx context.Context, record *types.ProviderHealthRecord) error {
	return a.storage.ProviderHealth().Doc(storage.HealthDocID(record.Provider, record.AgencyID)).Set(ctx, record)
}
