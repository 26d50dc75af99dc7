package fitbit

import (
	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

// metricMappings translates the Fitbit Web API summary field names onto
// the internal schema.
var metricMappings = map[string]ingest.Normalized{
	"steps":               {Category: types.CategoryActivity, Type: "steps", Unit: "count"},
	"caloriesOut":         {Category: types.CategoryActivity, Type: "active_energy", Unit: "kcal"},
	"fairlyActiveMinutes": {Category: types.CategoryActivity, Type: "fairly_active_minutes", Unit: "min"},
	"veryActiveMinutes":   {Category: types.CategoryActivity, Type: "very_active_minutes", Unit: "min"},
	"floors":              {Category: types.CategoryActivity, Type: "flights_climbed", Unit: "count"},
	"restingHeartRate":    {Category: types.CategoryVitals, Type: "resting_heart_rate", Unit: "bpm"},
	"totalMinutesAsleep":  {Category: types.CategorySleep, Type: "sleep_duration", Unit: "minutes"},
	"totalTimeInBed":      {Category: types.CategorySleep, Type: "time_in_bed", Unit: "minutes"},
}
