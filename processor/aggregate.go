package processor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"ramprate-analysis/models"
)

//camdFuelMap simplifies the CAMD fuel-type descriptions to gas/coal/oil/other
var camdFuelMap = map[string]string{
	"Pipeline Natural Gas": "gas",
	"Coal":                 "coal",
	"Diesel Oil":           "oil",
	"Natural Gas":          "gas",
	"Process Gas":          "gas",
	"Residual Oil":         "oil",
	"Other Gas":            "gas",
	"Wood":                 "other",
	"Other Oil":            "oil",
	"Coal Refuse":          "coal",
	"Petroleum Coke":       "oil",
	"Tire Derived Fuel":    "other",
	"Other Solid Fuel":     "other",
}

//eiaFuelMap simplifies the EIA energy-source codes to gas/coal/oil/other
var eiaFuelMap = map[string]string{
	"AB":  "other",
	"ANT": "coal",
	"BFG": "gas",
	"BIT": "coal",
	"BLQ": "other",
	"CBL": "coal",
	"DFO": "oil",
	"JF":  "oil",
	"KER": "oil",
	"LFG": "gas",
	"LIG": "coal",
	"MSB": "other",
	"MSN": "other",
	"MSW": "other",
	"MWH": "other",
	"NG":  "gas",
	"OBG": "gas",
	"OBL": "other",
	"OBS": "other",
	"OG":  "gas",
	"OTH": "other",
	"PC":  "oil",
	"PG":  "gas",
	"PUR": "other",
	"RC":  "coal",
	"RFO": "oil",
	"SC":  "coal",
	"SGC": "gas",
	"SGP": "gas",
	"SLW": "other",
	"SUB": "coal",
	"SUN": "gas", // mis-categorized gas plants with 'solar' in the name
	"TDF": "other",
	"WC":  "coal",
	"WDL": "other",
	"WDS": "other",
	"WH":  "other",
	"WO":  "oil",
}

//techTypeMap classifies a component by the exact SET of generator unit-type
//codes it contains, keyed by the sorted comma-joined codes. This is an
//explicit enumeration: a set without an entry maps to missing, and adding
//entries here is the only way to extend it.
var techTypeMap = map[string]string{
	"ST":       "steam_turbine",
	"GT":       "gas_turbine",
	"CT":       "combined_cycle", // in 2019 about half of solo CTs might be GTs
	"CA":       "combined_cycle",
	"CS":       "combined_cycle",
	"IC":       "internal_combustion",
	"CA,CT":    "combined_cycle",
	"GT,ST":    "combined_cycle", // industrial cogen or mistaken
	"CA,GT":    "combined_cycle", // most look mistaken
	"CA,CT,ST": "combined_cycle", // most look mistaken
}

//AggregateComponents rolls crosswalk rows up to one profile per component:
//the distinct generator unit-type set with its simplified technology label,
//per-side nameplate capacity, and a capacity-weighted simplified fuel label
//per side. Rows must already carry component ids.
func AggregateComponents(crosswalk []models.CrosswalkRow) ([]models.ComponentProfile, error) {
	byComponent := map[int][]models.CrosswalkRow{}
	for _, row := range crosswalk {
		if row.ComponentID < 0 {
			return nil, fmt.Errorf("crosswalk row %d/%s has no component id; assign components first", row.PlantID, row.CombustorID)
		}
		byComponent[row.ComponentID] = append(byComponent[row.ComponentID], row)
	}

	ids := make([]int, 0, len(byComponent))
	for id := range byComponent {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	profiles := make([]models.ComponentProfile, 0, len(ids))
	for _, id := range ids {
		rows := byComponent[id]

		unitTypes := distinctUnitTypes(rows)
		combustorFuel, err := assignFuelByCapacity(rows, false)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", id, err)
		}
		generatorFuel, err := assignFuelByCapacity(rows, true)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", id, err)
		}

		profiles = append(profiles, models.ComponentProfile{
			ComponentID:         id,
			UnitTypes:           unitTypes,
			TechType:            techTypeMap[strings.Join(unitTypes, ",")],
			CombustorCapacityMW: sumCapacityDeduped(rows, false),
			GeneratorCapacityMW: sumCapacityDeduped(rows, true),
			CombustorFuel:       combustorFuel,
			GeneratorFuel:       generatorFuel,
		})
	}
	return profiles, nil
}

func distinctUnitTypes(rows []models.CrosswalkRow) []string {
	seen := map[string]bool{}
	var types []string
	for _, row := range rows {
		if row.GeneratorUnitType == "" || seen[row.GeneratorUnitType] {
			continue
		}
		seen[row.GeneratorUnitType] = true
		types = append(types, row.GeneratorUnitType)
	}
	sort.Strings(types)
	return types
}

//sumCapacityDeduped sums one side's nameplate capacity over the component's
//physical units, counting each unit once even when it is linked by several
//crosswalk rows. A sum of exactly zero means no capacity data and is
//reported as missing.
func sumCapacityDeduped(rows []models.CrosswalkRow, generatorSide bool) float64 {
	seen := map[models.UnitKey]bool{}
	total := 0.0
	for _, row := range rows {
		key, capacity := sideOf(row, generatorSide)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !math.IsNaN(capacity) {
			total += capacity
		}
	}
	if total == 0 {
		return math.NaN()
	}
	return total
}

//assignFuelByCapacity picks the component's simplified fuel category as the
//one with the largest capacity total over deduplicated units, ties broken by
//the alphabetically first category. A non-missing raw code absent from its
//mapping table is a hard error: silently coalescing it to missing would be
//indistinguishable from "code unmapped".
func assignFuelByCapacity(rows []models.CrosswalkRow, generatorSide bool) (string, error) {
	fuelMap, column := camdFuelMap, "CAMD_FUEL_TYPE"
	if generatorSide {
		fuelMap, column = eiaFuelMap, "EIA_FUEL_TYPE"
	}

	seen := map[models.UnitKey]bool{}
	totals := map[string]float64{}
	for _, row := range rows {
		key, capacity := sideOf(row, generatorSide)
		rawFuel := row.CombustorFuel
		if generatorSide {
			rawFuel = row.GeneratorFuel
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		if rawFuel == "" {
			continue
		}
		simple, ok := fuelMap[rawFuel]
		if !ok {
			return "", fmt.Errorf("fuel code %q is not present in the %s mapping", rawFuel, column)
		}
		if !math.IsNaN(capacity) {
			totals[simple] += capacity
		}
	}

	winner := ""
	best := 0.0
	categories := make([]string, 0, len(totals))
	for category := range totals {
		categories = append(categories, category)
	}
	sort.Strings(categories) //alphabetical order settles capacity ties
	for _, category := range categories {
		//a zero capacity total is no data, not a valid reading
		if totals[category] > best {
			best = totals[category]
			winner = category
		}
	}
	return winner, nil
}

func sideOf(row models.CrosswalkRow, generatorSide bool) (models.UnitKey, float64) {
	if generatorSide {
		return row.GeneratorKey(), row.GeneratorCapacity
	}
	return row.CombustorKey(), row.CombustorCapacity
}
