package main

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/riichibook/cmd/riichibook/shared"
	"github.com/lox/riichibook/internal/server"
)

// ServeCmd hosts live sessions over WebSocket
type ServeCmd struct {
	Addr         string        `help:"Listen address, overrides the server block"`
	ReapInterval time.Duration `help:"How often idle sessions are unloaded" default:"5m"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	idle, err := cfg.Server.IdleTimeoutDuration()
	if err != nil {
		return err
	}
	addr := c.Addr
	if addr == "" {
		addr = cfg.ServerAddress()
	}

	ctx, cancel := shared.SetupSignalHandlerWithLogger(context.Background(), logger)
	defer cancel()

	st, closeStore, err := g.openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	sessions := server.NewSessions(st, logger,
		server.WithRulesets(cfg.Ruleset),
		server.WithIdleTimeout(idle),
	)
	srv := server.NewServer(addr, sessions, logger)

	logger.Info("Starting riichibook server",
		"address", addr,
		"store", cfg.Server.Store,
		"idle_timeout", idle,
		"rulesets", cfg.RulesetNames())

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return srv.Serve(gctx)
	})
	grp.Go(func() error {
		sessions.RunReaper(gctx, c.ReapInterval)
		return nil
	})
	return grp.Wait()
}
