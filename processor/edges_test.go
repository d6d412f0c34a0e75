package processor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramprate-analysis/models"
)

var seriesStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func hour(n int) time.Time {
	return seriesStart.Add(time.Duration(n) * time.Hour)
}

func makeSeries(plantID int, unitID string, loads []float64) []models.UnitSample {
	samples := make([]models.UnitSample, len(loads))
	for i, load := range loads {
		samples[i] = models.UnitSample{
			PlantID:     plantID,
			UnitID:      unitID,
			Timestamp:   hour(i),
			GrossLoadMW: load,
		}
	}
	return samples
}

func TestFindRunsDowntimeBothEndpointsKnown(t *testing.T) {
	series := makeSeries(1, "1", []float64{2, 2, 0, 0, 0, 2})

	events, err := FindRuns(series, true)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, hour(2), events[0].Shutdown)
	assert.Equal(t, hour(4), events[0].Startup)
	//the event's end is not before its start
	assert.False(t, events[0].Startup.Before(events[0].Shutdown))
}

func TestFindRunsAllZeros(t *testing.T) {
	series := makeSeries(1, "1", []float64{0, 0, 0, 0, 0, 0})

	downtime, err := FindRuns(series, true)
	require.NoError(t, err)
	require.Len(t, downtime, 1)
	assert.True(t, downtime[0].Shutdown.IsZero())
	assert.True(t, downtime[0].Startup.IsZero())

	uptime, err := FindRuns(series, false)
	require.NoError(t, err)
	assert.Empty(t, uptime)
}

func TestFindRunsAllNonZeros(t *testing.T) {
	series := makeSeries(1, "1", []float64{5, 5, 5, 5, 5, 5})

	uptime, err := FindRuns(series, false)
	require.NoError(t, err)
	require.Len(t, uptime, 1)
	assert.True(t, uptime[0].Startup.IsZero())
	assert.True(t, uptime[0].Shutdown.IsZero())

	downtime, err := FindRuns(series, true)
	require.NoError(t, err)
	assert.Empty(t, downtime)
}

func TestFindRunsOpenEndedBlocks(t *testing.T) {
	series := makeSeries(1, "1", []float64{0, 2, 2, 0, 2, 0})

	downtime, err := FindRuns(series, true)
	require.NoError(t, err)
	require.Len(t, downtime, 3)
	//first block abuts the window start: shutdown unknown
	assert.True(t, downtime[0].Shutdown.IsZero())
	assert.Equal(t, hour(0), downtime[0].Startup)
	//single-sample block: shutdown and startup land on the same zero sample
	assert.Equal(t, hour(3), downtime[1].Shutdown)
	assert.Equal(t, hour(3), downtime[1].Startup)
	//last block abuts the window end: startup unknown
	assert.Equal(t, hour(5), downtime[2].Shutdown)
	assert.True(t, downtime[2].Startup.IsZero())

	//uptime events are complementary: one per maximal non-zero run
	uptime, err := FindRuns(series, false)
	require.NoError(t, err)
	require.Len(t, uptime, 2)
	assert.Equal(t, hour(0), uptime[0].Startup)
	assert.Equal(t, hour(3), uptime[0].Shutdown)
	assert.Equal(t, hour(3), uptime[1].Startup)
	assert.Equal(t, hour(5), uptime[1].Shutdown)
}

func TestFindRunsComplementaryRunCounts(t *testing.T) {
	cases := []struct {
		loads        []float64
		uptimeRuns   int
		downtimeRuns int
	}{
		{[]float64{2, 2, 0, 0, 0, 2}, 2, 1},
		{[]float64{0, 2, 2, 0, 2, 0}, 2, 3},
		{[]float64{1, 0, 1, 0, 1, 0, 1}, 4, 3},
		{[]float64{0}, 0, 1},
		{[]float64{7}, 1, 0},
	}
	for _, tc := range cases {
		series := makeSeries(1, "1", tc.loads)

		uptime, err := FindRuns(series, false)
		require.NoError(t, err)
		assert.Len(t, uptime, tc.uptimeRuns, "uptime runs for %v", tc.loads)

		downtime, err := FindRuns(series, true)
		require.NoError(t, err)
		assert.Len(t, downtime, tc.downtimeRuns, "downtime runs for %v", tc.loads)

		//for any event with both endpoints known, end >= start
		for _, ev := range downtime {
			if !ev.Shutdown.IsZero() && !ev.Startup.IsZero() {
				assert.False(t, ev.Startup.Before(ev.Shutdown))
			}
		}
		for _, ev := range uptime {
			if !ev.Startup.IsZero() && !ev.Shutdown.IsZero() {
				assert.False(t, ev.Shutdown.Before(ev.Startup))
			}
		}
	}
}

func TestFindRunsRejectsMissingBoundary(t *testing.T) {
	leadingMissing := makeSeries(1, "1", []float64{math.NaN(), 2, 0})
	_, err := FindRuns(leadingMissing, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingBoundary)

	trailingMissing := makeSeries(1, "1", []float64{2, 0, math.NaN()})
	_, err = FindRuns(trailingMissing, false)
	assert.ErrorIs(t, err, ErrMissingBoundary)

	//an interior missing reading is tolerated and compares as zero load
	interiorMissing := makeSeries(1, "1", []float64{2, math.NaN(), 2})
	events, err := FindRuns(interiorMissing, true)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, hour(1), events[0].Shutdown)
	assert.Equal(t, hour(1), events[0].Startup)
}

func TestFindRunsRejectsMixedUnits(t *testing.T) {
	series := append(makeSeries(1, "1", []float64{2, 0}), makeSeries(1, "2", []float64{0, 2})...)
	_, err := FindRuns(series, true)
	require.Error(t, err)
}

func TestFindRunsByUnitNeverDiffsAcrossUnits(t *testing.T) {
	//unit 1 ends generating, unit 2 starts idle: a naive concatenated diff
	//would see a spurious shutdown at the boundary
	series := append(makeSeries(1, "1", []float64{0, 2, 2}), makeSeries(1, "2", []float64{0, 0, 2})...)

	events, err := FindRunsByUnit(series, false)
	require.NoError(t, err)
	require.Len(t, events, 2)

	unit1 := events[models.UnitKey{PlantID: 1, UnitID: "1"}]
	require.Len(t, unit1, 1)
	assert.Equal(t, hour(0), unit1[0].Startup)
	assert.True(t, unit1[0].Shutdown.IsZero()) //still generating at window end

	unit2 := events[models.UnitKey{PlantID: 1, UnitID: "2"}]
	require.Len(t, unit2, 1)
	assert.Equal(t, hour(1), unit2[0].Startup)
	assert.True(t, unit2[0].Shutdown.IsZero())
}

func TestFindRunsByUnitRejectsUngroupedInput(t *testing.T) {
	series := append(makeSeries(1, "1", []float64{2, 0}), makeSeries(1, "2", []float64{0, 2})...)
	series = append(series, makeSeries(1, "1", []float64{0, 2})...) //unit 1 reappears

	_, err := FindRunsByUnit(series, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not grouped")
}

func TestUptimeEventsInfersBoundaries(t *testing.T) {
	series := makeSeries(1, "1", []float64{2, 2, 0, 2})

	events, err := UptimeEvents(series, true)
	require.NoError(t, err)
	require.Len(t, events, 2)

	//startup outside the window is approximated by the first observed
	//timestamp: a lower bound on the true run length
	assert.Equal(t, hour(0), events[0].Startup)
	assert.Equal(t, hour(2), events[0].Shutdown)
	assert.InDelta(t, 2.0, events[0].DurationHours, 1e-9)

	assert.Equal(t, hour(2), events[1].Startup)
	assert.Equal(t, hour(3), events[1].Shutdown)
	assert.InDelta(t, 1.0, events[1].DurationHours, 1e-9)
}

func TestUptimeEventsWithoutInference(t *testing.T) {
	series := makeSeries(1, "1", []float64{2, 2, 0, 2})

	events, err := UptimeEvents(series, false)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Startup.IsZero())
	assert.True(t, math.IsNaN(events[0].DurationHours))
	assert.True(t, events[1].Shutdown.IsZero())
	assert.True(t, math.IsNaN(events[1].DurationHours))
}

func TestComputeDistances(t *testing.T) {
	series := makeSeries(1, "1", []float64{0, 0, 2, 2, 2, 0})

	distances, err := ComputeDistances(series, 24)
	require.NoError(t, err)
	require.Len(t, distances, 6)

	//startup at hour 2 (first generating sample), shutdown at hour 5
	assert.InDelta(t, 5.0, distances[0], 1e-9) //hours to shutdown
	assert.InDelta(t, 4.0, distances[1], 1e-9)
	assert.InDelta(t, 0.0, distances[2], 1e-9) //on the startup itself
	assert.InDelta(t, 1.0, distances[3], 1e-9)
	assert.InDelta(t, 1.0, distances[4], 1e-9) //one hour to shutdown
	assert.InDelta(t, 0.0, distances[5], 1e-9) //on the shutdown itself
}

func TestComputeDistancesBoundaryFallback(t *testing.T) {
	//no transition at all: both edges assumed 24 h beyond the window
	series := makeSeries(1, "1", []float64{2, 2, 2})

	distances, err := ComputeDistances(series, 24)
	require.NoError(t, err)
	assert.InDelta(t, 24.0, distances[0], 1e-9)
	assert.InDelta(t, 25.0, distances[1], 1e-9)
	assert.InDelta(t, 24.0, distances[2], 1e-9)
}

func TestComputeDistancesPerUnitSegmentation(t *testing.T) {
	//unit 2's transition must not leak into unit 1's distances
	series := append(makeSeries(1, "1", []float64{2, 2}), makeSeries(1, "2", []float64{0, 2})...)

	distances, err := ComputeDistances(series, 24)
	require.NoError(t, err)
	assert.InDelta(t, 24.0, distances[0], 1e-9)
	assert.InDelta(t, 25.0, distances[1], 1e-9)
	assert.InDelta(t, 24.0, distances[2], 1e-9) //idle until its own startup
	assert.InDelta(t, 0.0, distances[3], 1e-9)  //unit 2's startup sample
}

func TestComputeDistancesRejectsMissingBoundary(t *testing.T) {
	series := makeSeries(1, "1", []float64{math.NaN(), 2, 2})
	_, err := ComputeDistances(series, 24)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingBoundary)
}
