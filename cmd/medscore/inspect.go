package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/mind-engage/medscore/internal/reftable"
)

func (a *app) inspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print load statistics and how condition names resolve",
		ArgsUsage: "[condition...]",
		Action:    a.cmdInspect,
	}
}

type lookupResult struct {
	Query   string           `json:"query"`
	Exact   *reftable.Entry  `json:"exact,omitempty"`
	Partial []reftable.Entry `json:"partial,omitempty"`
}

type inspectResult struct {
	Stats   reftable.Stats `json:"stats"`
	Lookups []lookupResult `json:"lookups,omitempty"`
}

func (a *app) cmdInspect(ctx context.Context, cmd *cli.Command) error {
	tbl, err := a.loadTable(ctx)
	if err != nil {
		return err
	}

	res := inspectResult{Stats: tbl.Stats()}
	for _, q := range cmd.Args().Slice() {
		lr := lookupResult{Query: q, Partial: tbl.Search(q, a.rules.Match.Limit)}
		if e, ok := tbl.Get(q); ok {
			lr.Exact = &e
		}
		res.Lookups = append(res.Lookups, lr)
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}
