package processor

import (
	"encoding/csv"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ramprate-analysis/config"
	"ramprate-analysis/models"
	"ramprate-analysis/repository"
	"ramprate-analysis/utils"
)

//ChunkResult holds the outputs of one processed chunk of states
type ChunkResult struct {
	Aggregates   []models.ComponentAggregate
	Profiles     []models.ComponentProfile
	KeyMap       []models.CrosswalkRow //crosswalk rows annotated with component ids
	UptimeEvents []models.UptimeEvent
	NextOffset   int //component id offset for the following chunk
}

//ProcessChunk runs the full analysis over one in-memory chunk: component
//assignment and profiling, exclusion flagging, component merge, and ramp
//aggregation. componentIDOffset keeps ids unique across chunks; the caller
//carries the returned NextOffset forward.
func ProcessChunk(samples []models.UnitSample, crosswalk []models.CrosswalkRow, componentIDOffset, boundaryOffsetHours int) (*ChunkResult, error) {

	timer := time.Now()

	//per-unit-grouped chronological order is a precondition for every
	//segmented scan below
	sort.SliceStable(samples, func(a, b int) bool {
		ka, kb := samples[a].Key(), samples[b].Key()
		if ka != kb {
			if ka.PlantID != kb.PlantID {
				return ka.PlantID < kb.PlantID
			}
			return ka.UnitID < kb.UnitID
		}
		return samples[a].Timestamp.Before(samples[b].Timestamp)
	})

	//inner join: only crosswalk rows whose combustor is present in this
	//chunk's readings contribute
	observedUnits := map[models.UnitKey]bool{}
	for _, s := range samples {
		observedUnits[s.Key()] = true
	}
	keyMap := make([]models.CrosswalkRow, 0, len(crosswalk))
	for _, row := range crosswalk {
		if observedUnits[row.CombustorKey()] {
			keyMap = append(keyMap, row)
		}
	}

	keyMap, err := AssignComponents(keyMap)
	if err != nil {
		log.Error(err)
		return nil, err
	}
	nextOffset := componentIDOffset
	for i := range keyMap {
		keyMap[i].ComponentID += componentIDOffset
		if keyMap[i].ComponentID+1 > nextOffset {
			nextOffset = keyMap[i].ComponentID + 1
		}
	}

	profiles, err := AggregateComponents(keyMap)
	if err != nil {
		log.Error(err)
		return nil, err
	}

	componentByUnit := map[models.UnitKey]int{}
	for _, row := range keyMap {
		if _, seen := componentByUnit[row.CombustorKey()]; !seen {
			componentByUnit[row.CombustorKey()] = row.ComponentID
		}
	}
	techByComponent := map[int]string{}
	for _, p := range profiles {
		techByComponent[p.ComponentID] = p.TechType
	}
	techByUnit := map[models.UnitKey]string{}
	for key, componentID := range componentByUnit {
		techByUnit[key] = techByComponent[componentID]
	}

	distances, err := ComputeDistances(samples, boundaryOffsetHours)
	if err != nil {
		log.Error(err)
		return nil, err
	}
	excluded, err := FlagExclusions(samples, distances, techByUnit)
	if err != nil {
		log.Error(err)
		return nil, err
	}

	series := MergeComponentSeries(samples, excluded, componentByUnit)
	ComputeRamps(series)
	aggregates := ComputeAggregates(series, samples, componentByUnit, profiles)

	uptimeEvents, err := UptimeEvents(samples, true)
	if err != nil {
		log.Error(err)
		return nil, err
	}

	log.Info("Processed chunk of ", len(samples), " readings into ", len(aggregates), " components in ", time.Since(timer).String())

	return &ChunkResult{
		Aggregates:   aggregates,
		Profiles:     profiles,
		KeyMap:       keyMap,
		UptimeEvents: uptimeEvents,
		NextOffset:   nextOffset,
	}, nil
}

//AnalyzeRampRates is the top level entry: it loads the crosswalk, walks the
//state list in chunks, accumulates the per-chunk outputs with offset
//component ids, and writes the three csv exports (aggregates, crosswalk
//membership, uptime events) through the tmp-then-rename flow.
func AnalyzeRampRates(repo repository.Repository, run *models.AnalysisRun, crosswalkSource string, boundaryOffsetHours int) error {

	crosswalk, err := repo.GetCrosswalk(crosswalkSource)
	if err != nil {
		return err
	}
	crosswalk = RemoveIrrelevant(crosswalk)
	crosswalk = FilterRetirements(crosswalk, run.StartYear, run.EndYear)

	states := excludeTerritories(run.States)

	var allAggregates []models.ComponentAggregate
	var allProfiles []models.ComponentProfile
	var allKeyMap []models.CrosswalkRow
	var allUptime []models.UptimeEvent

	//process sequentially in chunks of states due to memory constraints;
	//the offset keeps component ids unique across chunks
	offset := 0
	for start := 0; start < len(states); start += run.ChunkSize {
		end := start + run.ChunkSize
		if end > len(states) {
			end = len(states)
		}
		chunkStates := states[start:end]
		log.Info("Processing states " + strings.Join(chunkStates, ",") + " with component id offset " + strconv.Itoa(offset))

		samples, err := repo.GetHourlyLoad(chunkStates, run.StartYear, run.EndYear)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			log.Debug("No readings found for states ", strings.Join(chunkStates, ","))
			continue
		}

		result, err := ProcessChunk(samples, crosswalk, offset, boundaryOffsetHours)
		if err != nil {
			return err
		}
		allAggregates = append(allAggregates, result.Aggregates...)
		allProfiles = append(allProfiles, result.Profiles...)
		allKeyMap = append(allKeyMap, result.KeyMap...)
		allUptime = append(allUptime, result.UptimeEvents...)
		offset = result.NextOffset
	}

	base := strings.TrimSuffix(run.OutPath, config.GetFinalExtension())
	folder := filepath.Dir(base)

	//Cleanup - remove leftover .tmp files before writing new exports
	if err := RemoveFiles(folder, config.GetTmpExtension()); err != nil {
		return err
	}

	if err := writeAggregatesCSV(base+config.GetTmpExtension(), allAggregates, allProfiles); err != nil {
		return err
	}
	if err := writeCrosswalkCSV(base+config.GetCrosswalkSuffix()+config.GetTmpExtension(), allKeyMap); err != nil {
		return err
	}
	if err := writeUptimeEventsCSV(base+config.GetUptimeEventsSuffix()+config.GetTmpExtension(), allUptime); err != nil {
		return err
	}

	//Rename .tmp to .csv once every export is complete
	filenames, err := renameFiles(folder, config.GetTmpExtension(), config.GetFinalExtension())
	if err != nil {
		return err
	}
	log.Info("Run " + run.RunID + " wrote " + strings.Join(filenames, ", "))
	return nil
}

func excludeTerritories(states []string) []string {
	territories := map[string]bool{}
	for _, t := range config.GetTerritories() {
		territories[t] = true
	}
	kept := make([]string, 0, len(states))
	for _, state := range states {
		if !territories[strings.ToUpper(state)] {
			kept = append(kept, strings.ToUpper(state))
		}
	}
	return kept
}

func writeAggregatesCSV(fileName string, aggregates []models.ComponentAggregate, profiles []models.ComponentProfile) error {
	profileByID := map[int]models.ComponentProfile{}
	for _, p := range profiles {
		profileByID[p.ComponentID] = p
	}

	header := []string{
		"component_id", "unit_types", "tech_type",
		"capacity_camd_mw", "capacity_eia_mw",
		"fuel_type_camd", "fuel_type_eia",
		"sum_of_max_gross_load_mw", "max_of_sum_gross_load_mw",
		"max_ramp_mw", "max_ramp_utc",
		"min_ramp_mw", "min_ramp_utc",
		"max_abs_ramp_mw", "max_abs_ramp_utc",
		"ramp_factor_camd", "ramp_factor_eia", "ramp_factor_sum_max", "ramp_factor_max_sum",
	}
	records := make([][]string, 0, len(aggregates))
	for _, agg := range aggregates {
		profile := profileByID[agg.ComponentID]
		records = append(records, []string{
			strconv.Itoa(agg.ComponentID),
			FormatUnitTypes(profile.UnitTypes),
			profile.TechType,
			utils.FormatFloat(profile.CombustorCapacityMW),
			utils.FormatFloat(profile.GeneratorCapacityMW),
			profile.CombustorFuel,
			profile.GeneratorFuel,
			utils.FormatFloat(agg.SumOfMaxMW),
			utils.FormatFloat(agg.MaxOfSumMW),
			utils.FormatFloat(agg.MaxRampMW),
			utils.FormatTimestamp(agg.MaxRampAt),
			utils.FormatFloat(agg.MinRampMW),
			utils.FormatTimestamp(agg.MinRampAt),
			utils.FormatFloat(agg.MaxAbsRampMW),
			utils.FormatTimestamp(agg.MaxAbsRampAt),
			utils.FormatFloat(agg.RampFactorCombustor),
			utils.FormatFloat(agg.RampFactorGenerator),
			utils.FormatFloat(agg.RampFactorSumMax),
			utils.FormatFloat(agg.RampFactorMaxSum),
		})
	}
	return writeCSV(fileName, header, records)
}

func writeCrosswalkCSV(fileName string, keyMap []models.CrosswalkRow) error {
	header := []string{
		"component_id",
		"camd_plant_id", "camd_unit_id", "camd_nameplate_capacity", "camd_fuel_type",
		"camd_status", "camd_status_date", "camd_retire_year",
		"eia_generator_id", "eia_nameplate_capacity", "eia_fuel_type", "eia_unit_type",
		"match_type_gen",
	}
	records := make([][]string, 0, len(keyMap))
	for _, row := range keyMap {
		statusDate := ""
		if !row.CombustorStatusAt.IsZero() {
			statusDate = row.CombustorStatusAt.Format(config.GetStatusDateLayout())
		}
		records = append(records, []string{
			strconv.Itoa(row.ComponentID),
			strconv.Itoa(row.PlantID),
			row.CombustorID,
			utils.FormatFloat(row.CombustorCapacity),
			row.CombustorFuel,
			row.CombustorStatus,
			statusDate,
			strconv.Itoa(row.CombustorRetireYr),
			row.GeneratorID,
			utils.FormatFloat(row.GeneratorCapacity),
			row.GeneratorFuel,
			row.GeneratorUnitType,
			row.MatchType,
		})
	}
	return writeCSV(fileName, header, records)
}

func writeUptimeEventsCSV(fileName string, events []models.UptimeEvent) error {
	header := []string{"plant_id", "unit_id", "startup_utc", "shutdown_utc", "duration_hours"}
	records := make([][]string, 0, len(events))
	for _, ev := range events {
		records = append(records, []string{
			strconv.Itoa(ev.UnitKey.PlantID),
			ev.UnitKey.UnitID,
			utils.FormatTimestamp(ev.Startup),
			utils.FormatTimestamp(ev.Shutdown),
			utils.FormatFloat(ev.DurationHours),
		})
	}
	return writeCSV(fileName, header, records)
}

func writeCSV(fileName string, header []string, records [][]string) error {
	file, err := os.Create(fileName)
	if err != nil {
		log.Error(err)
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		log.Error(err)
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		log.Error(err)
		return err
	}
	writer.Flush()
	return writer.Error()
}

//FormatUnitTypes serializes a sorted unit-type code set as an ordered
//tuple-like string, e.g. ('CA', 'CT') or ('ST',)
func FormatUnitTypes(unitTypes []string) string {
	if len(unitTypes) == 0 {
		return "()"
	}
	quoted := make([]string, len(unitTypes))
	for i, t := range unitTypes {
		quoted[i] = "'" + t + "'"
	}
	if len(quoted) == 1 {
		return fmt.Sprintf("(%s,)", quoted[0])
	}
	return fmt.Sprintf("(%s)", strings.Join(quoted, ", "))
}

//renameFiles changes the extension of the files in the given folder
func renameFiles(folderName string, oldExtension string, newExtension string) ([]string, error) {
	var filenames []string

	files, err := ioutil.ReadDir(folderName + "/")
	if err != nil {
		log.Error(err)
		return nil, err
	}
	//Find all .tmp files
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == oldExtension {
			//Rename to .csv
			filename := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
			err := os.Rename(folderName+"/"+file.Name(), folderName+"/"+filename+newExtension)
			if err != nil {
				log.Error(err)
			} else {
				filenames = append(filenames, filename+newExtension)
				log.Debug("CSV file created: ", filename+newExtension)
			}
		}
	}
	return filenames, nil
}

//RemoveFiles removes the files with the given extension in the given folder
func RemoveFiles(folderName string, extension string) error {
	files, err := ioutil.ReadDir(folderName + "/")
	if err != nil {
		log.Error(err)
		return err
	}
	//Find all .tmp files
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == extension {
			//Remove
			err := os.Remove(folderName + "/" + file.Name())
			if err != nil {
				log.Error(err)
				return err
			}
		}
	}
	return nil
}
