package garmin

import (
	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

// metricMappings translates Garmin push-summary field names onto the
// internal schema. Fields absent here fall through to the OTHER bucket.
var metricMappings = map[string]ingest.Normalized{
	"steps":                            {Category: types.CategoryActivity, Type: "steps", Unit: "count"},
	"distanceInMeters":                 {Category: types.CategoryActivity, Type: "distance", Unit: "meters"},
	"activeKilocalories":               {Category: types.CategoryActivity, Type: "active_energy", Unit: "kcal"},
	"floorsClimbed":                    {Category: types.CategoryActivity, Type: "flights_climbed", Unit: "count"},
	"averageHeartRateInBeatsPerMinute": {Category: types.CategoryVitals, Type: "heart_rate", Unit: "bpm"},
	"restingHeartRateInBeatsPerMinute": {Category: types.CategoryVitals, Type: "resting_heart_rate", Unit: "bpm"},
	"averageStressLevel":               {Category: types.CategoryVitals, Type: "stress_level", Unit: "score"},
	"pulseOx":                          {Category: types.CategoryVitals, Type: "oxygen_saturation", Unit: "percent"},
	"sleepDurationInSeconds":           {Category: types.CategorySleep, Type: "sleep_duration", Unit: "seconds"},
	"deepSleepDurationInSeconds":       {Category: types.CategorySleep, Type: "deep_sleep_duration", Unit: "seconds"},
}
