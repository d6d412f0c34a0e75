package models

import "time"

//UnitKey identifies one monitored combustion unit by its composite key
type UnitKey struct {
	PlantID int
	UnitID  string
}

//UnitSample defines one hourly gross load reading for a monitored unit.
//GrossLoadMW is NaN when the reading is missing.
type UnitSample struct {
	PlantID     int
	UnitID      string
	Timestamp   time.Time
	GrossLoadMW float64
}

//Key returns the composite unit key of the sample
func (s UnitSample) Key() UnitKey {
	return UnitKey{PlantID: s.PlantID, UnitID: s.UnitID}
}

//Event defines one contiguous uptime or downtime run for a unit.
//Shutdown and Startup follow the CEMS convention: 'shutdown' is the first
//zero-load sample after generation, 'startup' the last zero-load sample
//before generation. A zero time.Time marks an endpoint that falls outside
//the observed window.
type Event struct {
	Shutdown time.Time
	Startup  time.Time
}

//UptimeEvent defines one uptime run with its (possibly inferred) duration.
//DurationHours is NaN when either endpoint is unknown and not inferred.
type UptimeEvent struct {
	UnitKey       UnitKey
	Startup       time.Time
	Shutdown      time.Time
	DurationHours float64
}

//CrosswalkRow defines one many-to-many link between a CAMD combustor and an
//EIA generator, as published in the EPA/EIA crosswalk release
type CrosswalkRow struct {
	ComponentID       int //assigned by the processor, -1 until then
	PlantID           int
	CombustorID       string
	CombustorCapacity float64
	CombustorFuel     string
	CombustorStatus   string
	CombustorStatusAt time.Time
	CombustorRetireYr int //0 = not retired
	GeneratorID       string
	GeneratorCapacity float64
	GeneratorFuel     string
	GeneratorUnitType string
	MatchType         string
}

//CombustorKey returns the composite key of the row's combustor side
func (r CrosswalkRow) CombustorKey() UnitKey {
	return UnitKey{PlantID: r.PlantID, UnitID: r.CombustorID}
}

//GeneratorKey returns the composite key of the row's generator side
func (r CrosswalkRow) GeneratorKey() UnitKey {
	return UnitKey{PlantID: r.PlantID, UnitID: r.GeneratorID}
}

//ComponentProfile defines the attributes rolled up per connected component
type ComponentProfile struct {
	ComponentID         int
	UnitTypes           []string //distinct generator unit-type codes, sorted
	TechType            string   //"" when the unit-type set is unmapped
	CombustorCapacityMW float64  //NaN when capacities sum to zero
	GeneratorCapacityMW float64
	CombustorFuel       string //capacity-weighted simplified fuel, "" = missing
	GeneratorFuel       string
}

//ComponentPoint defines one timestamp of a component-level timeseries
type ComponentPoint struct {
	Timestamp   time.Time
	GrossLoadMW float64
	Excluded    bool
	RampMW      float64 //NaN at each component's first timestamp
}

//ComponentAggregate defines one output row of ramp statistics per component
type ComponentAggregate struct {
	ComponentID  int
	SumOfMaxMW   float64 //sum over units of each unit's max load
	MaxOfSumMW   float64 //max over time of the summed component load
	MaxRampMW    float64
	MaxRampAt    time.Time
	MinRampMW    float64
	MinRampAt    time.Time
	MaxAbsRampMW float64
	MaxAbsRampAt time.Time

	//ramp factors: max abs ramp normalized by four capacity proxies
	RampFactorCombustor float64
	RampFactorGenerator float64
	RampFactorSumMax    float64
	RampFactorMaxSum    float64
}

//AnalysisRun defines one scheduled analysis, built from flags and config
type AnalysisRun struct {
	RunID     string
	OutPath   string
	ChunkSize int
	StartYear int
	EndYear   int
	States    []string
}
