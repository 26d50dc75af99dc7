package carewatch

import (
	"github.com/caregrid/telemetry-relay/pkg/ingest"
	"github.com/caregrid/telemetry-relay/pkg/types"
)

// vitalMappings translates the generic device webhook's vitals keys onto
// the internal schema.
var vitalMappings = map[string]ingest.Normalized{
	"heart_rate":       {Category: types.CategoryVitals, Type: "heart_rate", Unit: "bpm"},
	"spo2":             {Category: types.CategoryVitals, Type: "oxygen_saturation", Unit: "percent"},
	"systolic_bp":      {Category: types.CategoryVitals, Type: "blood_pressure_systolic", Unit: "mmHg"},
	"diastolic_bp":     {Category: types.CategoryVitals, Type: "blood_pressure_diastolic", Unit: "mmHg"},
	"body_temperature": {Category: types.CategoryVitals, Type: "body_temperature", Unit: "celsius"},
	"respiratory_rate": {Category: types.CategoryVitals, Type: "respiratory_rate", Unit: "breaths_per_min"},
	"blood_glucose":    {Category: types.CategoryVitals, Type: "blood_glucose", Unit: "mg_dL"},
	"steps":            {Category: types.CategoryActivity, Type: "steps", Unit: "count"},
}
