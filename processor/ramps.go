package processor

import (
	"math"
	"sort"
	"time"

	"ramprate-analysis/models"
)

//MergeComponentSeries combines unit-level samples into one timeseries per
//component: load summed across constituent units per timestamp and the
//exclusion flag OR-ed across them. Units without a component assignment are
//dropped (they failed to join the crosswalk). Missing readings contribute
//nothing to the sum.
func MergeComponentSeries(samples []models.UnitSample, excluded []bool, componentByUnit map[models.UnitKey]int) map[int][]models.ComponentPoint {
	type cell struct {
		load     float64
		excluded bool
	}
	merged := map[int]map[time.Time]*cell{}

	for i, sample := range samples {
		componentID, ok := componentByUnit[sample.Key()]
		if !ok {
			continue
		}
		byTime := merged[componentID]
		if byTime == nil {
			byTime = map[time.Time]*cell{}
			merged[componentID] = byTime
		}
		c := byTime[sample.Timestamp]
		if c == nil {
			c = &cell{}
			byTime[sample.Timestamp] = c
		}
		if !math.IsNaN(sample.GrossLoadMW) {
			c.load += sample.GrossLoadMW
		}
		if excluded[i] {
			c.excluded = true
		}
	}

	series := make(map[int][]models.ComponentPoint, len(merged))
	for componentID, byTime := range merged {
		points := make([]models.ComponentPoint, 0, len(byTime))
		for ts, c := range byTime {
			points = append(points, models.ComponentPoint{
				Timestamp:   ts,
				GrossLoadMW: c.load,
				Excluded:    c.excluded,
				RampMW:      math.NaN(),
			})
		}
		sort.Slice(points, func(a, b int) bool {
			return points[a].Timestamp.Before(points[b].Timestamp)
		})
		series[componentID] = points
	}
	return series
}

//ComputeRamps fills in the first difference of each component's summed load.
//The ramp is undefined (NaN) at each component's first timestamp.
func ComputeRamps(series map[int][]models.ComponentPoint) {
	for _, points := range series {
		for i := 1; i < len(points); i++ {
			points[i].RampMW = points[i].GrossLoadMW - points[i-1].GrossLoadMW
		}
	}
}

//ComputeAggregates reduces the component timeseries to one output row per
//component: two capacity proxies, the signed ramp extrema over non-excluded
//samples with their timestamps, the max absolute ramp, and the ramp factors
//normalized by the four capacity proxies. A component with no qualifying
//ramp samples yields missing extrema rather than an error.
func ComputeAggregates(series map[int][]models.ComponentPoint, samples []models.UnitSample, componentByUnit map[models.UnitKey]int, profiles []models.ComponentProfile) []models.ComponentAggregate {
	sumOfMax := sumOfUnitMaxima(samples, componentByUnit)

	profileByID := make(map[int]models.ComponentProfile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ComponentID] = p
	}

	ids := make([]int, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	aggregates := make([]models.ComponentAggregate, 0, len(ids))
	for _, id := range ids {
		points := series[id]

		maxOfSum := math.NaN()
		for _, p := range points {
			if math.IsNaN(maxOfSum) || p.GrossLoadMW > maxOfSum {
				maxOfSum = p.GrossLoadMW
			}
		}

		agg := models.ComponentAggregate{
			ComponentID:  id,
			SumOfMaxMW:   sumOfMax[id],
			MaxOfSumMW:   maxOfSum,
			MaxRampMW:    math.NaN(),
			MinRampMW:    math.NaN(),
			MaxAbsRampMW: math.NaN(),
		}

		//signed extrema over the non-excluded samples; ties keep the first
		//occurrence, matching the reference argmax/argmin behavior
		for _, p := range points {
			if p.Excluded || math.IsNaN(p.RampMW) {
				continue
			}
			if math.IsNaN(agg.MaxRampMW) || p.RampMW > agg.MaxRampMW {
				agg.MaxRampMW = p.RampMW
				agg.MaxRampAt = p.Timestamp
			}
			if math.IsNaN(agg.MinRampMW) || p.RampMW < agg.MinRampMW {
				agg.MinRampMW = p.RampMW
				agg.MinRampAt = p.Timestamp
			}
		}

		agg.MaxAbsRampMW, agg.MaxAbsRampAt = maxAbsRamp(agg)

		if profile, ok := profileByID[id]; ok {
			agg.RampFactorCombustor = rampFactor(agg.MaxAbsRampMW, profile.CombustorCapacityMW)
			agg.RampFactorGenerator = rampFactor(agg.MaxAbsRampMW, profile.GeneratorCapacityMW)
		} else {
			agg.RampFactorCombustor = math.NaN()
			agg.RampFactorGenerator = math.NaN()
		}
		agg.RampFactorSumMax = rampFactor(agg.MaxAbsRampMW, agg.SumOfMaxMW)
		agg.RampFactorMaxSum = rampFactor(agg.MaxAbsRampMW, agg.MaxOfSumMW)

		aggregates = append(aggregates, agg)
	}
	return aggregates
}

//maxAbsRamp picks the larger magnitude of the two signed extrema and the
//timestamp it belongs to. Ties go to the positive (max) side. A defined max
//with a missing min resolves to the max's timestamp; no extrema at all
//yields missing.
func maxAbsRamp(agg models.ComponentAggregate) (float64, time.Time) {
	maxKnown := !math.IsNaN(agg.MaxRampMW)
	minKnown := !math.IsNaN(agg.MinRampMW)
	switch {
	case maxKnown && minKnown:
		if agg.MaxRampMW >= math.Abs(agg.MinRampMW) {
			return agg.MaxRampMW, agg.MaxRampAt
		}
		return math.Abs(agg.MinRampMW), agg.MinRampAt
	case maxKnown:
		return math.Abs(agg.MaxRampMW), agg.MaxRampAt
	case minKnown:
		return math.Abs(agg.MinRampMW), agg.MinRampAt
	default:
		return math.NaN(), time.Time{}
	}
}

//sumOfUnitMaxima sums, per component, each constituent unit's maximum load:
//a capacity proxy independent of nameplate data. A unit with only missing
//readings contributes nothing.
func sumOfUnitMaxima(samples []models.UnitSample, componentByUnit map[models.UnitKey]int) map[int]float64 {
	unitMax := map[models.UnitKey]float64{}
	for _, sample := range samples {
		if math.IsNaN(sample.GrossLoadMW) {
			continue
		}
		if current, ok := unitMax[sample.Key()]; !ok || sample.GrossLoadMW > current {
			unitMax[sample.Key()] = sample.GrossLoadMW
		}
	}

	totals := map[int]float64{}
	for key, m := range unitMax {
		if componentID, ok := componentByUnit[key]; ok {
			totals[componentID] += m
		}
	}
	return totals
}

//rampFactor normalizes the max absolute ramp by a capacity proxy. A missing
//or zero denominator (no data) yields a missing factor, never a division by
//a spurious zero.
func rampFactor(maxAbs, denominator float64) float64 {
	if math.IsNaN(maxAbs) || math.IsNaN(denominator) || denominator == 0 {
		return math.NaN()
	}
	return maxAbs / denominator
}
