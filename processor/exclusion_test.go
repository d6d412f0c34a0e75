package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramprate-analysis/models"
)

func TestFlagExclusionsSteamTurbineRadius(t *testing.T) {
	series := makeSeries(1, "1", []float64{2, 2, 2, 2})
	distances := []float64{4, 5, 5.5, 12}
	tech := map[models.UnitKey]string{{PlantID: 1, UnitID: "1"}: "steam_turbine"}

	excluded, err := FlagExclusions(series, distances, tech)
	require.NoError(t, err)
	//radius 5 h, inclusive
	assert.Equal(t, []bool{true, true, false, false}, excluded)
}

func TestFlagExclusionsCombinedCycleRadius(t *testing.T) {
	series := makeSeries(1, "1", []float64{2, 2, 2})
	distances := []float64{7, 7.5, 20}
	tech := map[models.UnitKey]string{{PlantID: 1, UnitID: "1"}: "combined_cycle"}

	excluded, err := FlagExclusions(series, distances, tech)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, excluded)
}

func TestFlagExclusionsDisabledTechnologies(t *testing.T) {
	series := makeSeries(1, "1", []float64{2, 2})
	distances := []float64{0, 0}

	for _, tech := range []string{"gas_turbine", "internal_combustion"} {
		excluded, err := FlagExclusions(series, distances, map[models.UnitKey]string{
			{PlantID: 1, UnitID: "1"}: tech,
		})
		require.NoError(t, err)
		assert.Equal(t, []bool{false, false}, excluded, tech)
	}
}

func TestFlagExclusionsUnlabeledUnit(t *testing.T) {
	//a unit whose component's unit-type set is unmapped has no radius and is
	//never excluded
	series := makeSeries(1, "1", []float64{2, 2})
	distances := []float64{0, 0}

	excluded, err := FlagExclusions(series, distances, map[models.UnitKey]string{})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, excluded)
}

func TestFlagExclusionsUnknownTechnologyFails(t *testing.T) {
	series := makeSeries(1, "1", []float64{2})
	distances := []float64{0}
	tech := map[models.UnitKey]string{{PlantID: 1, UnitID: "1"}: "fusion"}

	_, err := FlagExclusions(series, distances, tech)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fusion")
}

func TestFlagExclusionsLengthMismatch(t *testing.T) {
	series := makeSeries(1, "1", []float64{2, 2})
	_, err := FlagExclusions(series, []float64{1}, nil)
	require.Error(t, err)
}
