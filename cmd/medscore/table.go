package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mind-engage/medscore/internal/config"
	"github.com/mind-engage/medscore/internal/db"
	"github.com/mind-engage/medscore/internal/reftable"
)

const dbOpenTimeout = 10 * time.Second

// loadTable builds the reference table from the configured source. Any
// error here is fatal for the calling command.
func (a *app) loadTable(ctx context.Context) (*reftable.Table, error) {
	switch a.cfg.Source {
	case config.SourceCSV, "":
		return reftable.LoadCSV(a.cfg.DataPath, a.rules.Layout.Layout)
	case config.SourceSQL:
		store, closeDB, err := a.openStore(ctx)
		if err != nil {
			return nil, err
		}
		defer closeDB()
		return store.Load(ctx)
	default:
		return nil, fmt.Errorf("unknown source %q (want csv or sql)", a.cfg.Source)
	}
}

func (a *app) openStore(ctx context.Context) (*reftable.SQLStore, func(), error) {
	octx, cancel := context.WithTimeout(ctx, dbOpenTimeout)
	defer cancel()

	dbh, err := db.Open(octx, db.Driver(a.cfg.DBDriver), a.cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open failed: %w", err)
	}
	store := reftable.NewSQLStore(dbh, fmt.Sprintf("%s:reference_conditions", a.cfg.DBDriver))
	return store, func() { _ = dbh.Close() }, nil
}
