package processor

import (
	"fmt"

	"ramprate-analysis/models"
)

//exclusionRadiusHours is the technology-specific window around a
//startup/shutdown transient inside which ramp samples are unreliable.
//A negative radius disables exclusion for that technology.
var exclusionRadiusHours = map[string]float64{
	"steam_turbine":       5,
	"combined_cycle":      7,
	"gas_turbine":         -1, // no exclusions
	"internal_combustion": -1, // no exclusions
}

//FlagExclusions marks, aligned with the input samples, the samples whose
//distance to the nearest startup/shutdown transient is within their
//component's technology-specific exclusion radius. techByUnit carries the
//simplified technology label of each unit's component; a unit with no label
//(unmapped unit-type set) is never excluded.
func FlagExclusions(samples []models.UnitSample, distances []float64, techByUnit map[models.UnitKey]string) ([]bool, error) {
	if len(samples) != len(distances) {
		return nil, fmt.Errorf("sample/distance length mismatch: %d vs %d", len(samples), len(distances))
	}

	excluded := make([]bool, len(samples))
	for i, sample := range samples {
		tech := techByUnit[sample.Key()]
		if tech == "" {
			continue
		}
		radius, ok := exclusionRadiusHours[tech]
		if !ok {
			return nil, fmt.Errorf("technology type %q has no exclusion radius", tech)
		}
		if radius < 0 {
			continue
		}
		excluded[i] = distances[i] <= radius
	}
	return excluded, nil
}
