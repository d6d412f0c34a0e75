package utils

import (
	"database/sql"
	"math"
	"runtime"
	"strconv"
	"time"

	"ramprate-analysis/config"
	"ramprate-analysis/logger"
)

type NullTime struct {
	sql.NullTime
}

type NullString struct {
	sql.NullString
}

type NullFloat struct {
	sql.NullFloat64
}

//FormatNullFloat converts a scanned nullable float to the in-memory missing
//convention (NaN)
func FormatNullFloat(nullFloat NullFloat) float64 {
	if nullFloat.Valid {
		return nullFloat.Float64
	}
	return math.NaN()
}

//FormatNullString converts a scanned nullable string to ""
func FormatNullString(nullString NullString) string {
	if nullString.Valid {
		return nullString.String
	}
	return ""
}

//FormatTimestamp renders a timestamp as ISO-8601 UTC for the csv exports.
//A zero timestamp (missing) renders as an empty cell.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(config.GetCSVDateLayout())
}

//FormatFloat renders a float for the csv exports. NaN (missing) renders as
//an empty cell.
func FormatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

//PrintMemUsage logs the current memory footprint of the process
func PrintMemUsage(logFileLogger *logger.Logger) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	(*logFileLogger).Info("Alloc = " + strconv.FormatUint(m.Alloc/1024/1024, 10) + " MiB" +
		"\tTotalAlloc = " + strconv.FormatUint(m.TotalAlloc/1024/1024, 10) + " MiB" +
		"\tSys = " + strconv.FormatUint(m.Sys/1024/1024, 10) + " MiB" +
		"\tNumGC = " + strconv.FormatUint(uint64(m.NumGC), 10))
}
