package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ramprate-analysis/config"
	"ramprate-analysis/database"
	"ramprate-analysis/logger"
	"ramprate-analysis/models"
	"ramprate-analysis/processor"
	"ramprate-analysis/repository"
	"ramprate-analysis/utils"
)

var (
	sha1ver   string // sha1 revision used to build the program
	buildTime string // when the executable was built
	version   string // custom version number of the program

	flgVersion   bool
	flgEnv       string
	flgOutPath   string
	flgChunkSize int
	flgStartYear int
	flgEndYear   int
	flgStates    string
)

func main() {

	parseCmdLineFlags()

	//Store the current time before running the program in order to track execution time
	timer := time.Now()

	//The environment defaults to PROD
	environment := flgEnv
	if environment == "" {
		environment = config.GetDefaultEnvironment()
	}

	//Get the configurations for the given environment
	configurations := config.GetConfig(environment)

	// Create the log file if it doesn't exist. Append to it if it already exists.
	logFileLogger, err := logger.NewLogger(configurations.MAX_LOGFILE_SIZE)
	if err != nil {
		fmt.Println(err)
	}
	defer logFileLogger.Close()

	if configurations.DEBUG_LOGGING {
		log.SetLevel(log.DebugLevel)
	}

	// Get the DB configurations for the given environment
	DBConfigurations := config.GetConfigDB(environment)

	logFileLogger.Info("Using configurations from config files with prefix: " + environment)
	logFileLogger.Info("version = " + version)
	logFileLogger.Info("buildTime = " + buildTime)
	logFileLogger.Info("sha1Version = " + sha1ver)

	//Find the DB connection string
	connectionString, validatedOK := getConnectionString(DBConfigurations, &logFileLogger)
	if !validatedOK {
		return
	}

	db, err := database.InitDB(connectionString)
	if err != nil {
		logFileLogger.Fatal(err)
	}
	defer db.Close()

	repo := repository.NewRepository(db)
	if err := repo.InitSQLs(); err != nil {
		logFileLogger.Fatal(err)
	}
	defer repo.Close()

	run := buildRun(configurations, &logFileLogger)
	logFileLogger.Info("Starting run " + run.RunID +
		" for years " + strconv.Itoa(run.StartYear) + "-" + strconv.Itoa(run.EndYear) +
		" over " + strconv.Itoa(len(run.States)) + " states")

	crosswalkSource := configurations.CROSSWALK_SOURCE
	if crosswalkSource == "" {
		crosswalkSource = config.GetDefaultCrosswalkSource()
	}
	boundaryOffset := configurations.BOUNDARY_OFFSET_HOURS
	if boundaryOffset == 0 {
		boundaryOffset = config.GetDefaultBoundaryOffsetHours()
	}

	err = processor.AnalyzeRampRates(repo, run, crosswalkSource, boundaryOffset)
	if err != nil {
		logFileLogger.Error(err)
	} else {
		logFileLogger.Info("Finished run " + run.RunID)
	}

	utils.PrintMemUsage(&logFileLogger)

	//Print the time it took to run the program
	logFileLogger.Info(" Execution time: " + time.Since(timer).String())
}

//buildRun assembles the run descriptor from command line flags with config
//file fallbacks
func buildRun(configurations config.Configuration, logFileLogger *logger.Logger) *models.AnalysisRun {
	run := new(models.AnalysisRun)
	run.RunID = uuid.New().String()

	run.OutPath = flgOutPath
	if run.OutPath == "" {
		run.OutPath = configurations.FILE_LOCATION + "/" +
			config.GetFilenamePrefix() + config.GetFilenameDelimiter() +
			run.RunID + config.GetFilenameDelimiter() +
			time.Now().Format(config.GetFileDateLayout()) +
			config.GetFinalExtension()
	}

	run.ChunkSize = flgChunkSize
	if run.ChunkSize == 0 {
		run.ChunkSize = configurations.CHUNK_SIZE
	}
	if run.ChunkSize == 0 {
		run.ChunkSize = config.GetDefaultChunkSize()
	}

	run.StartYear = flgStartYear
	if run.StartYear == 0 {
		run.StartYear = configurations.START_YEAR
	}
	if run.StartYear == 0 {
		run.StartYear = config.GetDefaultStartYear()
	}

	run.EndYear = flgEndYear
	if run.EndYear == 0 {
		run.EndYear = configurations.END_YEAR
	}
	if run.EndYear == 0 {
		run.EndYear = config.GetDefaultEndYear()
	}

	if flgStates != "" {
		run.States = strings.Split(flgStates, ",")
	} else {
		run.States = config.GetAllStates()
	}

	(*logFileLogger).Debug("Output path: " + run.OutPath)
	return run
}

func getConnectionString(DBConfigurations config.Configuration, logFileLogger *logger.Logger) (string, bool) {
	var connectionString string

	if DBConfigurations.DB_USERNAME == "" {
		(*logFileLogger).ErrorWithText("DB_USERNAME must be specified in the configuration file")
		return "", false
	}
	if DBConfigurations.DB_PASSWORD == "" {
		(*logFileLogger).ErrorWithText("DB_PASSWORD must be specified in the configuration file")
		return "", false
	}

	if DBConfigurations.DB_ALIAS != "" && DBConfigurations.DB_HOST != "" {
		(*logFileLogger).ErrorWithText("DB_ALIAS and DB_HOST cannot both be specified in the configuration file")
		return "", false
	}

	if DBConfigurations.DB_ALIAS != "" {
		connectionString = DBConfigurations.DB_USERNAME + "/" + DBConfigurations.DB_PASSWORD + "@" + DBConfigurations.DB_ALIAS
	} else if DBConfigurations.DB_HOST != "" && DBConfigurations.DB_PORT != "" && DBConfigurations.DB_SID != "" {
		connectionString = DBConfigurations.DB_USERNAME + "/" + DBConfigurations.DB_PASSWORD + "@//" + DBConfigurations.DB_HOST + ":" + DBConfigurations.DB_PORT + "/" + DBConfigurations.DB_SID
	}
	if connectionString == "" {
		(*logFileLogger).ErrorWithText("DB_ALIAS or DB_HOST+DB_PORT+DB_SID must be specified in the configuration file")
		return "", false
	}
	return connectionString, true
}

func parseCmdLineFlags() {
	flag.BoolVar(&flgVersion, "version", false, "if true, print version and exit")
	flag.StringVar(&flgEnv, "env", "", "configuration environment prefix (defaults to PROD)")
	flag.StringVar(&flgOutPath, "out", "", "output path of the component aggregates csv file")
	flag.IntVar(&flgChunkSize, "chunk_size", 0, "number of states per processing chunk")
	flag.IntVar(&flgStartYear, "start_year", 0, "first year of CEMS data to include, inclusive")
	flag.IntVar(&flgEndYear, "end_year", 0, "last year of CEMS data to include, inclusive")
	flag.StringVar(&flgStates, "states", "", "comma separated state abbreviations to include (defaults to all states)")
	flag.Parse()
	if flgVersion {
		fmt.Printf("Version %s - build on %s from sha1 %s\n", version, buildTime, sha1ver)
		os.Exit(0)
	}
}
