package repository

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ramprate-analysis/config"
	"ramprate-analysis/models"
	"ramprate-analysis/sqls"
	"ramprate-analysis/utils"
)

var sqlstmtSelectHourlyLoad, sqlstmtSelectUnitCount *sql.Stmt

//Repository is the data-loading boundary of the analysis: hourly CEMS load
//readings come from the staging database, the EPA/EIA crosswalk from the
//published release csv (or a local copy).
type Repository interface {
	InitSQLs() error
	GetUnitCount(state string, fromYear, toYear int) (int, error)
	GetHourlyLoad(states []string, fromYear, toYear int) ([]models.UnitSample, error)
	GetCrosswalk(source string) ([]models.CrosswalkRow, error)
	Close()
}

var NewRepository = func(db *sql.DB) Repository {
	return &Impl{
		Db: db,
	}
}

type Impl struct {
	Db *sql.DB
}

func (i *Impl) InitSQLs() error {
	var err error

	//Prepare the SQL query that retrieves the hourly load readings
	sqlstmtSelectHourlyLoad, err = i.Db.Prepare(sqls.GetSQLSelectHourlyLoad())
	if err != nil {
		log.Error(err)
		return err
	}

	//Prepare the SQL query that counts the units per state
	sqlstmtSelectUnitCount, err = i.Db.Prepare(sqls.GetSQLSelectUnitCount())
	if err != nil {
		log.Error(err)
		return err
	}

	return nil
}

func (i *Impl) Close() {
	if sqlstmtSelectHourlyLoad != nil {
		sqlstmtSelectHourlyLoad.Close()
	}
	if sqlstmtSelectUnitCount != nil {
		sqlstmtSelectUnitCount.Close()
	}
}

//GetUnitCount returns the number of distinct monitored units in one state
//for the analysis year range
func (i *Impl) GetUnitCount(state string, fromYear, toYear int) (int, error) {
	var unitCount int
	err := sqlstmtSelectUnitCount.QueryRow(state, fromYear, toYear).Scan(&unitCount)
	if err != nil {
		log.Error(err)
		return 0, err
	}
	return unitCount, nil
}

//GetHourlyLoad retrieves the hourly gross load readings for the given states
//and year range, ordered per unit and chronologically within each unit
func (i *Impl) GetHourlyLoad(states []string, fromYear, toYear int) ([]models.UnitSample, error) {

	timer := time.Now()
	var samples []models.UnitSample

	for _, state := range states {

		rows, err := sqlstmtSelectHourlyLoad.Query(state, fromYear, toYear)
		if err != nil {
			log.Error(err)
			return nil, err
		}

		var plantID int
		var unitID string
		var operatingTime time.Time
		var grossLoad utils.NullFloat

		for rows.Next() {
			err := rows.Scan(&plantID, &unitID, &operatingTime, &grossLoad)
			if err != nil {
				rows.Close()
				log.Error(err)
				return nil, err
			}
			samples = append(samples, models.UnitSample{
				PlantID:     plantID,
				UnitID:      unitID,
				Timestamp:   operatingTime.UTC(),
				GrossLoadMW: utils.FormatNullFloat(grossLoad),
			})
		}
		if err = rows.Err(); err != nil {
			rows.Close()
			log.Error(err)
			return nil, err
		}
		rows.Close()
	}

	log.Debug("Loaded ", len(samples), " hourly readings for ", strings.Join(states, ","), " in ", time.Since(timer))
	return samples, nil
}

//GetCrosswalk loads the EPA/EIA crosswalk from an http(s) url or a local
//file path and parses it into rows
func (i *Impl) GetCrosswalk(source string) ([]models.CrosswalkRow, error) {

	var reader io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			log.Error(err)
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			err := fmt.Errorf("crosswalk download failed: %s returned %s", source, resp.Status)
			log.Error(err)
			return nil, err
		}
		reader = resp.Body
	} else {
		file, err := os.Open(source)
		if err != nil {
			log.Error(err)
			return nil, err
		}
		reader = file
	}
	defer reader.Close()

	return ParseCrosswalk(reader)
}

//ParseCrosswalk parses the crosswalk csv. Columns are located by header name
//so the release can reorder or append columns without breaking the load.
func ParseCrosswalk(r io.Reader) ([]models.CrosswalkRow, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		log.Error(err)
		return nil, err
	}
	column := map[string]int{}
	for idx, name := range header {
		column[strings.TrimSpace(name)] = idx
	}
	for _, required := range []string{
		"CAMD_PLANT_ID", "CAMD_UNIT_ID", "CAMD_NAMEPLATE_CAPACITY", "CAMD_FUEL_TYPE",
		"CAMD_STATUS", "CAMD_STATUS_DATE", "CAMD_RETIRE_YEAR",
		"EIA_GENERATOR_ID", "EIA_NAMEPLATE_CAPACITY", "EIA_FUEL_TYPE", "EIA_UNIT_TYPE",
		"MATCH_TYPE_GEN",
	} {
		if _, ok := column[required]; !ok {
			err := fmt.Errorf("crosswalk csv is missing required column %s", required)
			log.Error(err)
			return nil, err
		}
	}

	var crosswalk []models.CrosswalkRow
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Error(err)
			return nil, err
		}

		field := func(name string) string {
			idx := column[name]
			if idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		plantID, err := parseInt(field("CAMD_PLANT_ID"))
		if err != nil {
			log.Error(err)
			return nil, fmt.Errorf("bad CAMD_PLANT_ID %q: %w", field("CAMD_PLANT_ID"), err)
		}
		retireYear, err := parseInt(field("CAMD_RETIRE_YEAR"))
		if err != nil {
			log.Error(err)
			return nil, fmt.Errorf("bad CAMD_RETIRE_YEAR %q: %w", field("CAMD_RETIRE_YEAR"), err)
		}

		crosswalk = append(crosswalk, models.CrosswalkRow{
			ComponentID:       -1,
			PlantID:           plantID,
			CombustorID:       field("CAMD_UNIT_ID"),
			CombustorCapacity: parseFloat(field("CAMD_NAMEPLATE_CAPACITY")),
			CombustorFuel:     field("CAMD_FUEL_TYPE"),
			CombustorStatus:   field("CAMD_STATUS"),
			CombustorStatusAt: parseStatusDate(field("CAMD_STATUS_DATE")),
			CombustorRetireYr: retireYear,
			GeneratorID:       field("EIA_GENERATOR_ID"),
			GeneratorCapacity: parseFloat(field("EIA_NAMEPLATE_CAPACITY")),
			GeneratorFuel:     field("EIA_FUEL_TYPE"),
			GeneratorUnitType: field("EIA_UNIT_TYPE"),
			MatchType:         field("MATCH_TYPE_GEN"),
		})
	}

	log.Debug("Parsed ", len(crosswalk), " crosswalk rows")
	return crosswalk, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	//the release encodes some integer columns as floats ("1.0")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func parseStatusDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(config.GetStatusDateLayout(), s)
	if err != nil {
		return time.Time{}
	}
	return t
}
