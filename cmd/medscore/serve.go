package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/medscore/internal/api/http"
	"github.com/mind-engage/medscore/internal/config"
	"github.com/mind-engage/medscore/internal/metrics"
	"github.com/mind-engage/medscore/internal/reftable"
	"github.com/mind-engage/medscore/internal/scoring"
)

const (
	serverShutdownWaitSeconds = 5
	serverReadHeaderTimeout   = 10 * time.Second
	serverMaxHeaderBytes      = 20
)

func (a *app) serveCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Load the reference table and start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagAddr, Usage: "HTTP listen address"},
			&cli.BoolFlag{Name: flagWatch, Usage: "Reload the reference CSV when it changes on disk"},
		},
		Action: a.cmdServe,
	}
}

func (a *app) cmdServe(ctx context.Context, cmd *cli.Command) error {
	if cmd.IsSet(flagAddr) {
		a.cfg.HTTPAddr = cmd.String(flagAddr)
	}
	if cmd.IsSet(flagWatch) {
		a.cfg.Watch = cmd.Bool(flagWatch)
	}

	// the table must be in place before the listener accepts requests
	tbl, err := a.loadTable(ctx)
	if err != nil {
		return err
	}
	holder := reftable.NewHolder(tbl)
	m := metrics.New()
	m.ObserveTable(tbl)

	scorer, err := scoring.NewScorer(holder, a.rules.ScorerOptions()...)
	if err != nil {
		return err
	}

	s := &http.Server{
		Addr: a.cfg.HTTPAddr,
		Handler: api.NewRouter(api.RouterOptions{
			Scorer:      scorer,
			Tables:      holder,
			Metrics:     m,
			Logger:      slog.Default(),
			CORSOrigins: a.cfg.CORSOrigins,
			Timeout:     a.cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: serverReadHeaderTimeout,
		MaxHeaderBytes:    1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server started",
			"address", a.cfg.HTTPAddr,
			"source", tbl.Stats().Source,
			"conditions_loaded", tbl.Len())
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("error shutting down server", "error", err)
			return err
		}
		slog.Info("server stopped")
		return nil
	})

	if a.cfg.Watch {
		if a.cfg.Source == config.SourceSQL {
			slog.Warn("watch ignored for sql source")
		} else {
			w := reftable.NewWatcher(a.cfg.DataPath, a.rules.Layout.Layout, holder,
				reftable.OnReload(m.ObserveReload))
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	return g.Wait()
}
