package firestore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	shared "github.com/caregrid/telemetry-relay/pkg"
)

func TestMappingDocID(t *testing.T) {
	assert.Equal(t, "garmin:g-user-1", MappingDocID(shared.ProviderGarmin, "g-user-1"))
	assert.Equal(t, "fitbit:FB1", MappingDocID(shared.ProviderFitbit, "FB1"))
}

func TestHealthDocID(t *testing.T) {
	assert.Equal(t, "twilio:a1", HealthDocID(shared.ProviderTwilio, "a1"))
	assert.NotEqual(t, HealthDocID("twilio", "a1"), HealthDocID("openai", "a1"),
		"health rows are scoped per provider within an agency")
}
