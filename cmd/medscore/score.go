package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/mind-engage/medscore/internal/reftable"
	"github.com/mind-engage/medscore/internal/scoring"
)

func (a *app) scoreCmd() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "Score one patient against the reference table and print the breakdown",
		ArgsUsage: "[condition...]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: flagAge, Usage: "Patient age in whole years", Required: true},
		},
		OnUsageError: ageUsageError,
		Action:       a.cmdScore,
	}
}

func (a *app) cmdScore(ctx context.Context, cmd *cli.Command) error {
	tbl, err := a.loadTable(ctx)
	if err != nil {
		return err
	}
	scorer, err := scoring.NewScorer(reftable.NewHolder(tbl), a.rules.ScorerOptions()...)
	if err != nil {
		return err
	}

	res, err := scorer.Score(cmd.Int(flagAge), cmd.Args().Slice())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}

// ageUsageError reports an unparsable --age as an invalid age.
func ageUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	if strings.Contains(err.Error(), flagAge) {
		return fmt.Errorf("%w: %v", scoring.ErrInvalidAge, err)
	}
	return err
}
