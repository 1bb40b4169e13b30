package main

import (
	"fmt"

	"github.com/aquilax/itemboard/database"
	"github.com/aquilax/itemboard/database/cached"
	"github.com/aquilax/itemboard/database/memory"
	"github.com/aquilax/itemboard/database/postgres"
	"github.com/aquilax/itemboard/database/sqlite"
	"github.com/aquilax/itemboard/jobqueue"
	qmemory "github.com/aquilax/itemboard/jobqueue/memory"
	qpostgres "github.com/aquilax/itemboard/jobqueue/postgres"
	qsqlite "github.com/aquilax/itemboard/jobqueue/sqlite"
)

func openDatabase(cfg *Config) (database.Database, error) {
	var db database.Database
	switch cfg.Database {
	case "memory":
		db = memory.New()
	case "sqlite":
		db = sqlite.New()
	case "postgres":
		db = postgres.New()
	default:
		return nil, fmt.Errorf("unknown database %q", cfg.Database)
	}
	if err := db.Open(cfg.Database, cfg.Dsn); err != nil {
		return nil, err
	}
	if cfg.Cache {
		return cached.New(db), nil
	}
	return db, nil
}

func openQueue(cfg QueueConfig) (jobqueue.Queue, error) {
	switch cfg.Driver {
	case "memory":
		return qmemory.New(), nil
	case "sqlite":
		return qsqlite.Open(cfg.Dsn)
	case "postgres":
		return qpostgres.Open(cfg.Dsn)
	}
	return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
}
