package firestore

import (
	"fmt"

	"cloud.google.com/go/firestore"

	shared "github.com/caregrid/telemetry-relay/pkg"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

func (c *Client) Close() error {
	return c.fs.Close()
}

// Raw exposes the underlying client for batch writes.
func (c *Client) Raw() *firestore.Client {
	return c.fs
}

// IntegrationRequests is the top-level ledger: integration_requests/{id}
func (c *Client) IntegrationRequests() *Collection[types.IntegrationRequest] {
	return &Collection[types.IntegrationRequest]{
		Ref: c.fs.Collection(shared.CollectionIntegrationRequests),
	}
}

// Devices are sub-collections of Agencies: agencies/{aid}/devices/{deviceId}
func (c *Client) Devices(agencyID string) *Collection[types.DeviceRecord] {
	return &Collection[types.DeviceRecord]{
		Ref: c.fs.Collection(shared.CollectionAgencies).Doc(agencyID).Collection(shared.SubcollectionDevices),
	}
}

// HealthMetrics are sub-collections of Agencies: agencies/{aid}/health_metrics/{id}
func (c *Client) HealthMetrics(agencyID string) *Collection[types.HealthMetric] {
	return &Collection[types.HealthMetric]{
		Ref: c.fs.Collection(shared.CollectionAgencies).Doc(agencyID).Collection(shared.SubcollectionMetrics),
	}
}

// DeviceEvents are sub-collections of Agencies: agencies/{aid}/device_events/{id}
func (c *Client) DeviceEvents(agencyID string) *Collection[types.DeviceDataEvent] {
	return &Collection[types.DeviceDataEvent]{
		Ref: c.fs.Collection(shared.CollectionAgencies).Doc(agencyID).Collection(shared.SubcollectionDeviceEvents),
	}
}

// ExternalUserMappings is a top-level lookup keyed by {provider}:{externalUserId}
func (c *Client) ExternalUserMappings() *Collection[types.ExternalUserMapping] {
	return &Collection[types.ExternalUserMapping]{
		Ref: c.fs.Collection(shared.CollectionExternalMappings),
	}
}

// ProviderHealth is a top-level collection keyed by {provider}:{agencyId}
func (c *Client) ProviderHealth() *Collection[types.ProviderHealthRecord] {
	return &Collection[types.ProviderHealthRecord]{
		Ref: c.fs.Collection(shared.CollectionProviderHealth),
	}
}

// MappingDocID builds the document id for an external user mapping.
func MappingDocID(provider, externalUserID string) string {
	return fmt.Sprintf("%s:%s", provider, externalUserID)
}

// HealthDocID builds the document id for a provider health record.
func HealthDocID(provider, agencyID string) string {
	return fmt.Sprintf("%s:%s", provider, agencyID)
}
