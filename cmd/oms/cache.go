package main

import (
	"time"

	"github.com/omsdash/omsctl/internal/database"
)

var timeNow = time.Now

// openCache opens the local cache database without touching the backend.
func openCache() (*database.Context, func(), error) {
	dbCtx, err := database.CreateDatabase("")
	if err != nil {
		return nil, nil, err
	}
	return dbCtx, func() { _ = database.CloseDatabase(dbCtx) }, nil
}
