package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"
)

const (
	flagLimit           = "limit"
	historyLimitDefault = 10
)

func (a *app) historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List imports recorded in the SQL store, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: flagLimit, Usage: "Maximum number of imports to list (0 for all)", Value: historyLimitDefault},
		},
		Action: a.cmdHistory,
	}
}

func (a *app) cmdHistory(ctx context.Context, cmd *cli.Command) error {
	store, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	hist, err := store.History(ctx, cmd.Int(flagLimit))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(hist); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
