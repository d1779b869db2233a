package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mind-engage/medscore/internal/config"
	"github.com/mind-engage/medscore/internal/logging"
)

var (
	name    = "medscore"
	version = "v0.0.1-default"
	commit  = ""
)

const (
	flagAddr      = "addr"
	flagData      = "data"
	flagRules     = "rules"
	flagSource    = "source"
	flagDBDriver  = "db-driver"
	flagDBDSN     = "db-dsn"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagDebug     = "debug"
	flagWatch     = "watch"
	flagAge       = "age"
)

// app carries state shared by all commands. Flags override values read
// from the environment.
type app struct {
	cfg   config.Config
	rules config.Rules
	out   io.Writer
}

func main() {
	a := &app{cfg: config.FromEnv(), out: os.Stdout}
	if err := a.command().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: fmt.Sprintf("%s - (commit: %s)", version, commit),
		Usage:   "Medical condition risk scoring",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagData, Usage: "Path to the reference CSV"},
			&cli.StringFlag{Name: flagRules, Usage: "Path to a YAML file with column layout and scoring rules"},
			&cli.StringFlag{Name: flagSource, Usage: "Where the reference table is read from: csv or sql"},
			&cli.StringFlag{Name: flagDBDriver, Usage: "SQL driver for the sql source: sqlite or postgres"},
			&cli.StringFlag{Name: flagDBDSN, Usage: "SQL data source name"},
			&cli.StringFlag{Name: flagLogLevel, Usage: "Log level: debug, info, warn or error"},
			&cli.StringFlag{Name: flagLogFormat, Usage: "Log format: text or json"},
			&cli.BoolFlag{Name: flagDebug, Usage: "Shorthand for --log-level=debug"},
		},
		Before: a.before,
		Commands: []*cli.Command{
			a.serveCmd(),
			a.scoreCmd(),
			a.importCmd(),
			a.inspectCmd(),
			a.historyCmd(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	override := func(flag string, dst *string) {
		if cmd.IsSet(flag) {
			*dst = cmd.String(flag)
		}
	}
	override(flagData, &a.cfg.DataPath)
	override(flagRules, &a.cfg.RulesFile)
	override(flagDBDriver, &a.cfg.DBDriver)
	override(flagDBDSN, &a.cfg.DBDSN)
	override(flagLogLevel, &a.cfg.LogLevel)
	override(flagLogFormat, &a.cfg.LogFormat)
	if cmd.IsSet(flagSource) {
		a.cfg.Source = config.Source(cmd.String(flagSource))
	}
	if cmd.Bool(flagDebug) {
		a.cfg.LogLevel = "debug"
	}

	logging.Init(logging.Config{Level: a.cfg.LogLevel, Format: a.cfg.LogFormat})

	rules, err := config.LoadRules(a.cfg.RulesFile)
	if err != nil {
		return ctx, err
	}
	a.rules = rules
	return ctx, nil
}
