package database

import (
	"database/sql"

	log "github.com/sirupsen/logrus"

	_ "github.com/godror/godror"

	"ramprate-analysis/config"
)

// InitDB opens a connection to the CEMS staging database
func InitDB(dbConnectionString string) (*sql.DB, error) {
	db, err := sql.Open("godror", dbConnectionString)
	if err != nil {
		log.Error(err)
		return nil, err
	}
	db.SetMaxOpenConns(config.GetMaxOpenConnections())
	db.SetMaxIdleConns(config.GetMaxIdleConnections())
	return db, nil
}
