package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/mind-engage/medscore/internal/reftable"
)

func (a *app) importCmd() *cli.Command {
	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Load the reference CSV and replace the SQL reference table with it",
		Action:  a.cmdImport,
	}
}

type importResult struct {
	Stats    reftable.Stats `json:"stats"`
	Driver   string         `json:"driver"`
	Duration string         `json:"duration"`
}

func (a *app) cmdImport(ctx context.Context, _ *cli.Command) error {
	start := time.Now()

	tbl, err := reftable.LoadCSV(a.cfg.DataPath, a.rules.Layout.Layout)
	if err != nil {
		return err
	}
	store, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := store.Replace(ctx, tbl); err != nil {
		return fmt.Errorf("failed to import reference table: %w", err)
	}

	res := importResult{
		Stats:    tbl.Stats(),
		Driver:   a.cfg.DBDriver,
		Duration: time.Since(start).String(),
	}
	if err := json.NewEncoder(a.out).Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
