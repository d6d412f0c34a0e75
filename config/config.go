package config

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tkanos/gonfig"
)

type Configuration struct {
	DB_USERNAME           string
	DB_PASSWORD           string
	DB_PORT               string
	DB_ALIAS              string
	DB_SID                string
	DB_HOST               string
	DEBUG_LOGGING         bool
	FILE_LOCATION         string
	CROSSWALK_SOURCE      string
	CHUNK_SIZE            int
	START_YEAR            int
	END_YEAR              int
	BOUNDARY_OFFSET_HOURS int
	MAX_LOGFILE_SIZE      int64
}

func GetConfig(params ...string) Configuration {
	configuration := Configuration{}
	env := ""
	if len(params) > 0 {
		env = params[0]
	}
	fileName := fmt.Sprintf("./%s_ramp_config.json", env)

	gonfig.GetConf(fileName, &configuration)

	log.Info("Using configurations in config file with prefix: ", env)

	return configuration
}

func GetConfigDB(params ...string) Configuration {
	configuration := Configuration{}
	env := ""
	if len(params) > 0 {
		env = params[0]
	}
	fileName := fmt.Sprintf("./%s_config_db.json", env)
	gonfig.GetConf(fileName, &configuration)

	log.Info("Using DB configurations for environment:  ", env)

	return configuration
}

//GetCSVDateLayout returns the timestamp layout used in the exported csv files (ISO-8601 UTC)
func GetCSVDateLayout() string {
	return "2006-01-02T15:04:05Z"
}

//GetFileDateLayout returns the date layout to be used in file names
func GetFileDateLayout() string {
	return "20060102150405"
}

//GetStatusDateLayout returns the date layout of the crosswalk status-change column
func GetStatusDateLayout() string {
	return "2006-01-02"
}

//GetFilenameDelimiter returns the delimiter to be used in the filename
func GetFilenameDelimiter() string {
	return "_"
}

//GetFilenamePrefix returns the prefix to be used for the ramp aggregate export files
func GetFilenamePrefix() string {
	return "RAMP"
}

//GetTmpExtension returns the temporary extension of the filename
func GetTmpExtension() string {
	return ".tmp"
}

//GetFinalExtension returns the final extension of the filename
func GetFinalExtension() string {
	return ".csv"
}

//GetCrosswalkSuffix returns the suffix of the crosswalk membership export file
func GetCrosswalkSuffix() string {
	return "_crosswalk_with_ids"
}

//GetUptimeEventsSuffix returns the suffix of the uptime event audit export file
func GetUptimeEventsSuffix() string {
	return "_uptime_events"
}

//GetDefaultCrosswalkSource returns the published EPA/EIA crosswalk release
func GetDefaultCrosswalkSource() string {
	return "https://github.com/USEPA/camd-eia-crosswalk/releases/download/v0.2.1/epa_eia_crosswalk.csv"
}

//GetDefaultBoundaryOffsetHours returns the conservative distance fallback used
//when a startup or shutdown falls outside the observed window
func GetDefaultBoundaryOffsetHours() int {
	return 24
}

//GetDefaultChunkSize returns the number of states processed per chunk
func GetDefaultChunkSize() int {
	return 5
}

//GetDefaultStartYear returns the first CEMS year included in the analysis
func GetDefaultStartYear() int {
	return 2015
}

//GetDefaultEndYear returns the last CEMS year included in the analysis
func GetDefaultEndYear() int {
	return 2019
}

//GetLogFileName returns the name of the log file
func GetLogFileName() string {
	return "./out/ramprate-analysis.log"
}

//GetLogFileNameWithoutExtension returns the name of the log file without the extension
func GetLogFileNameWithoutExtension() string {
	return "./out/ramprate-analysis"
}

//GetLogFileExtension returns the extension of the log file
func GetLogFileExtension() string {
	return "log"
}

//GetDefaultEnvironment returns the default environment for configuration lookup
func GetDefaultEnvironment() string {
	return "PROD"
}

//GetMaxOpenConnections returns the connection pool cap for the CEMS staging DB
func GetMaxOpenConnections() int {
	return 4
}

//GetMaxIdleConnections returns the idle connection cap for the CEMS staging DB
func GetMaxIdleConnections() int {
	return 2
}

//GetAllStates returns the two-letter abbreviations loadable from the CEMS
//staging schema, territories included
func GetAllStates() []string {
	return []string{
		"AK", "AL", "AR", "AS", "AZ", "CA", "CO", "CT", "DC", "DE", "FL",
		"GA", "GU", "HI", "IA", "ID", "IL", "IN", "KS", "KY", "LA", "MA",
		"MD", "ME", "MI", "MN", "MO", "MP", "MS", "MT", "NA", "NC", "ND",
		"NE", "NH", "NJ", "NM", "NV", "NY", "OH", "OK", "OR", "PA", "PR",
		"RI", "SC", "SD", "TN", "TX", "UT", "VA", "VI", "VT", "WA", "WI",
		"WV", "WY",
	}
}

//GetTerritories returns the abbreviations that are not present in EPA CEMS.
//District of Columbia is present so it is not listed here.
func GetTerritories() []string {
	return []string{"MP", "PR", "AS", "GU", "NA", "VI"}
}
