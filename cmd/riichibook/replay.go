package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lox/riichibook/internal/command"
	"github.com/lox/riichibook/internal/display"
	"github.com/lox/riichibook/internal/store"
)

// ReplayCmd builds a session from a command script and prints its log
type ReplayCmd struct {
	Script  string   `arg:"" help:"Command script, one recorder command per line" type:"existingfile"`
	Names   []string `short:"n" help:"Player names, in starting wind order unless --winds is given" required:""`
	Ruleset string   `short:"r" help:"Ruleset" default:"mleague"`
	Winds   []string `help:"Starting wind for each named player"`
	Save    string   `help:"Store the resulting session under this id"`
}

func (c *ReplayCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	sess, err := newGame(cfg, c.Ruleset, c.Names, c.Winds, logger)
	if err != nil {
		return err
	}

	f, err := os.Open(c.Script)
	if err != nil {
		return err
	}
	defer f.Close()

	applied, err := command.Replay(sess, f)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Script, err)
	}
	logger.Info("Replayed script", "file", c.Script, "commands", applied, "hand", sess.CurrentHand().Signature())

	if c.Save != "" {
		ctx := context.Background()
		st, closeStore, err := g.openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()
		if err := store.SaveGame(ctx, st, c.Save, sess); err != nil {
			return err
		}
		logger.Info("Saved session", "id", c.Save)
	}
	return display.Export(g.out(), sess)
}
