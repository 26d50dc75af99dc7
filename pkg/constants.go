package shared

const (
	ProjectID = "caregrid-relay" // Can be overridden by env var in main if needed

	TopicTelemetryRecorded = "topic-telemetry-recorded" // Downstream vitals processing entry point
	TopicDeviceEvents      = "topic-device-events"

	CollectionAgencies            = "agencies"
	CollectionIntegrationRequests = "integration_requests"
	CollectionExternalMappings    = "external_user_mappings"
	CollectionProviderHealth      = "provider_health"

	SubcollectionDevices      = "devices"
	SubcollectionMetrics      = "health_metrics"
	SubcollectionDeviceEvents = "device_events"
)

// Provider type identifiers, used in ledger rows, mapping lookups and
// provider health records.
const (
	ProviderAppleHealth = "apple-health"
	ProviderGarmin      = "garmin"
	ProviderFitbit      = "fitbit"
	ProviderCareWatch   = "carewatch"
	ProviderTwilio      = "twilio"
	ProviderOpenAI      = "openai"
)

// Request types recorded on ledger rows.
const (
	RequestTypeTelemetryPush = "telemetry_push"
	RequestTypeDataPull      = "data_pull"
	RequestTypeOutboundSMS   = "outbound_sms"
	RequestTypeTranscription = "transcription"
)
