package applehealth

import (
	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

// metricMappings translates HealthKit quantity/category type identifiers
// into the internal schema. Anything not listed falls back to OTHER with
// the raw identifier preserved.
var metricMappings = map[string]ingest.Normalized{
	"HKQuantityTypeIdentifierHeartRate": {
		Category: types.CategoryVitals, Type: "heart_rate", Unit: "bpm",
	},
	"HKQuantityTypeIdentifierRestingHeartRate": {
		Category: types.CategoryVitals, Type: "resting_heart_rate", Unit: "bpm",
	},
	"HKQuantityTypeIdentifierHeartRateVariabilitySDNN": {
		Category: types.CategoryVitals, Type: "hrv_sdnn", Unit: "ms",
	},
	"HKQuantityTypeIdentifierOxygenSaturation": {
		Category: types.CategoryVitals, Type: "oxygen_saturation", Unit: "percent",
	},
	"HKQuantityTypeIdentifierBloodPressureSystolic": {
		Category: types.CategoryVitals, Type: "blood_pressure_systolic", Unit: "mmHg",
	},
	"HKQuantityTypeIdentifierBloodPressureDiastolic": {
		Category: types.CategoryVitals, Type: "blood_pressure_diastolic", Unit: "mmHg",
	},
	"HKQuantityTypeIdentifierBodyTemperature": {
		Category: types.CategoryVitals, Type: "body_temperature", Unit: "celsius",
	},
	"HKQuantityTypeIdentifierRespiratoryRate": {
		Category: types.CategoryVitals, Type: "respiratory_rate", Unit: "breaths_per_min",
	},
	"HKQuantityTypeIdentifierBloodGlucose": {
		Category: types.CategoryVitals, Type: "blood_glucose", Unit: "mg_dL",
	},
	"HKQuantityTypeIdentifierStepCount": {
		Category: types.CategoryActivity, Type: "steps", Unit: "count",
	},
	"HKQuantityTypeIdentifierDistanceWalkingRunning": {
		Category: types.CategoryActivity, Type: "distance", Unit: "meters",
	},
	"HKQuantityTypeIdentifierActiveEnergyBurned": {
		Category: types.CategoryActivity, Type: "active_energy", Unit: "kcal",
	},
	"HKQuantityTypeIdentifierAppleExerciseTime": {
		Category: types.CategoryActivity, Type: "exercise_minutes", Unit: "min",
	},
	"HKQuantityTypeIdentifierFlightsClimbed": {
		Category: types.CategoryActivity, Type: "flights_climbed", Unit: "count",
	},
	"HKQuantityTypeIdentifierBodyMass": {
		Category: types.CategoryBody, Type: "body_mass", Unit: "kg",
	},
	"HKQuantityTypeIdentifierWalkingSpeed": {
		Category: types.CategoryActivity, Type: "walking_speed", Unit: "m_per_s",
	},
	"HKCategoryTypeIdentifierSleepAnalysis": {
		Category: types.CategorySleep, Type: "sleep_analysis", Unit: "hours",
	},
}
