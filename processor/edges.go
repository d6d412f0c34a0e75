package processor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"ramprate-analysis/models"
)

// Naming convention for startup/shutdown timestamps, inherited from the CEMS
// analysis this feeds:
//
//	'startup'  = the LAST zero-load sample before a block of generation
//	'shutdown' = the FIRST zero-load sample after a block of generation
//
// Both always land on the zero side of the transition. For downtime events
// this reads backwards: 'shutdown' marks the START of a downtime block and
// 'startup' marks its END. The naming is intrinsic domain vocabulary, so it
// is kept rather than repaired.

//ErrMissingBoundary is returned when a unit's series starts or ends on a
//missing reading. Edge and distance math is undefined there, so the series
//is rejected before processing.
var ErrMissingBoundary = errors.New("series starts or ends with a missing load value")

//FindRuns summarizes the contiguous uptime (non-zero load) or downtime (zero
//load) blocks of one unit's chronologically ordered series. A zero timestamp
//in the returned events marks an endpoint that falls outside the observed
//window. The samples must all belong to one unit; use FindRunsByUnit for a
//multi-unit series.
func FindRuns(samples []models.UnitSample, downtime bool) ([]models.Event, error) {
	if len(samples) == 0 {
		return nil, errors.New("cannot find runs in an empty series")
	}
	key := samples[0].Key()
	for _, s := range samples[1:] {
		if s.Key() != key {
			return nil, errors.New("series contains multiple units; group per unit first (FindRunsByUnit)")
		}
	}
	return findRuns(samples, downtime)
}

//FindRunsByUnit segments a concatenated multi-unit series at unit boundaries
//and finds each unit's runs independently. Transitions are never computed
//across a unit boundary. The input must be grouped per unit (each unit's
//samples contiguous); a unit appearing in two separate blocks is rejected.
func FindRunsByUnit(samples []models.UnitSample, downtime bool) (map[models.UnitKey][]models.Event, error) {
	events := map[models.UnitKey][]models.Event{}
	err := forEachUnit(samples, func(key models.UnitKey, segment []models.UnitSample) error {
		if _, seen := events[key]; seen {
			return fmt.Errorf("unit %d/%s appears in more than one block; input is not grouped per unit", key.PlantID, key.UnitID)
		}
		unitEvents, err := findRuns(segment, downtime)
		if err != nil {
			return fmt.Errorf("unit %d/%s: %w", key.PlantID, key.UnitID, err)
		}
		events[key] = unitEvents
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func findRuns(samples []models.UnitSample, downtime bool) ([]models.Event, error) {
	n := len(samples)
	if math.IsNaN(samples[0].GrossLoadMW) || math.IsNaN(samples[n-1].GrossLoadMW) {
		return nil, ErrMissingBoundary
	}

	bin := binarize(samples)

	//edge timestamps, both taken on the zero side of the transition
	var startups, shutdowns []time.Time
	for i := 0; i < n-1; i++ {
		if bin[i+1] && !bin[i] {
			startups = append(startups, samples[i].Timestamp) //last zero of a block
		}
	}
	for i := 1; i < n; i++ {
		if !bin[i] && bin[i-1] {
			shutdowns = append(shutdowns, samples[i].Timestamp) //first zero of a block
		}
	}

	// Events are defined as having a start and an end. If either occurs
	// outside the data period it is marked with a zero timestamp.
	var starts, ends []time.Time
	if downtime { //events are the blocks of zeros: shutdown begins, startup ends
		starts = shutdowns
		ends = startups
		if !bin[0] { //first downtime block has an unknown shutdown time
			starts = prependMissing(starts)
		}
		if !bin[n-1] { //last downtime block has an unknown startup time
			ends = appendMissing(ends)
		}
	} else { //events are the blocks of generation: startup begins, shutdown ends
		starts = startups
		ends = shutdowns
		if bin[0] { //first uptime block has an unknown startup time
			starts = prependMissing(starts)
		}
		if bin[n-1] { //last uptime block has an unknown shutdown time
			ends = appendMissing(ends)
		}
	}

	if len(starts) != len(ends) {
		return nil, fmt.Errorf("event boundary mismatch: %d starts, %d ends", len(starts), len(ends))
	}

	events := make([]models.Event, len(starts))
	for i := range starts {
		if downtime {
			events[i] = models.Event{Shutdown: starts[i], Startup: ends[i]}
		} else {
			events[i] = models.Event{Startup: starts[i], Shutdown: ends[i]}
		}
	}
	return events, nil
}

//prependMissing marks the first block's unknown boundary with a zero timestamp
func prependMissing(ts []time.Time) []time.Time {
	return append([]time.Time{{}}, ts...)
}

//appendMissing marks the last block's unknown boundary with a zero timestamp
func appendMissing(ts []time.Time) []time.Time {
	return append(ts, time.Time{})
}

//UptimeEvents converts a multi-unit load series into a table of uptime
//events. When inferBoundaries is set, an endpoint outside the observed
//window is approximated by the unit's first (startup side) or last (shutdown
//side) observed timestamp, making the duration a lower bound on the true run
//length.
func UptimeEvents(samples []models.UnitSample, inferBoundaries bool) ([]models.UptimeEvent, error) {
	var events []models.UptimeEvent
	err := forEachUnit(samples, func(key models.UnitKey, segment []models.UnitSample) error {
		unitEvents, err := findRuns(segment, false)
		if err != nil {
			return fmt.Errorf("unit %d/%s: %w", key.PlantID, key.UnitID, err)
		}
		first := segment[0].Timestamp
		last := segment[len(segment)-1].Timestamp
		for _, ev := range unitEvents {
			startup, shutdown := ev.Startup, ev.Shutdown
			if inferBoundaries {
				if startup.IsZero() {
					startup = first
				}
				if shutdown.IsZero() {
					shutdown = last
				}
			}
			duration := math.NaN()
			if !startup.IsZero() && !shutdown.IsZero() {
				duration = shutdown.Sub(startup).Hours()
			}
			events = append(events, models.UptimeEvent{
				UnitKey:       key,
				Startup:       startup,
				Shutdown:      shutdown,
				DurationHours: duration,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

//ComputeDistances returns, aligned with the input samples, the distance in
//fractional hours from each sample to its nearest startup/shutdown
//transient: the minimum of hours-since-last-startup and
//hours-until-next-shutdown. For this calculation the transition timestamps
//sit on the generating side (first non-zero sample of a run, first zero
//sample after it). A run that abuts the start or end of the unit's window
//has no resolvable edge; the conservative fallback assumes the edge lies
//boundaryOffsetHours beyond the observed window.
func ComputeDistances(samples []models.UnitSample, boundaryOffsetHours int) ([]float64, error) {
	distances := make([]float64, len(samples))
	offset := time.Duration(boundaryOffsetHours) * time.Hour

	base := 0
	err := forEachUnit(samples, func(key models.UnitKey, segment []models.UnitSample) error {
		n := len(segment)
		if math.IsNaN(segment[0].GrossLoadMW) || math.IsNaN(segment[n-1].GrossLoadMW) {
			return fmt.Errorf("unit %d/%s: %w", key.PlantID, key.UnitID, ErrMissingBoundary)
		}
		bin := binarize(segment)

		//forward-fill the last known startup; fall back past the window start
		lastStartup := segment[0].Timestamp.Add(-offset)
		fromStartup := make([]float64, n)
		for i := 0; i < n; i++ {
			if i > 0 && bin[i] && !bin[i-1] {
				lastStartup = segment[i].Timestamp
			}
			fromStartup[i] = segment[i].Timestamp.Sub(lastStartup).Hours()
		}

		//backward-fill the next known shutdown; fall back past the window end
		nextShutdown := segment[n-1].Timestamp.Add(offset)
		for i := n - 1; i >= 0; i-- {
			if i > 0 && !bin[i] && bin[i-1] {
				nextShutdown = segment[i].Timestamp
			}
			toShutdown := nextShutdown.Sub(segment[i].Timestamp).Hours()
			distances[base+i] = math.Min(fromStartup[i], toShutdown)
		}

		base += n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return distances, nil
}

//binarize reduces a load series to generating/not-generating. A missing
//reading compares as not-generating, matching the reference treatment.
func binarize(samples []models.UnitSample) []bool {
	bin := make([]bool, len(samples))
	for i, s := range samples {
		bin[i] = s.GrossLoadMW > 0
	}
	return bin
}

//forEachUnit walks a per-unit-grouped sample slice and invokes fn once per
//contiguous unit segment. This is the segmented-scan primitive every grouped
//operation goes through so that no computation crosses a unit boundary.
func forEachUnit(samples []models.UnitSample, fn func(models.UnitKey, []models.UnitSample) error) error {
	if len(samples) == 0 {
		return nil
	}
	start := 0
	for i := 1; i <= len(samples); i++ {
		if i == len(samples) || samples[i].Key() != samples[start].Key() {
			if err := fn(samples[start].Key(), samples[start:i]); err != nil {
				return err
			}
			start = i
		}
	}
	return nil
}
