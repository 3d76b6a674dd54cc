package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lox/riichibook/internal/display"
	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/gameid"
	"github.com/lox/riichibook/internal/store"
)

// ShowCmd prints a stored session, or lists the stored ids with their
// creation time when the id carries one
type ShowCmd struct {
	Session string `arg:"" optional:"" help:"Session id; lists stored sessions when omitted"`
	Write   string `help:"Also write the log into this directory under its suggested file name"`
	Date    string `help:"Date for the file name (YYYY-MM-DD), default today"`
}

func (c *ShowCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	ctx := context.Background()
	st, closeStore, err := g.openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	if c.Session == "" {
		ids, err := st.List(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if created, err := gameid.Timestamp(id); err == nil {
				fmt.Fprintf(g.out(), "%s  created %s\n", id, created.Local().Format("2006-01-02 15:04"))
				continue
			}
			fmt.Fprintln(g.out(), id)
		}
		return nil
	}

	sess, err := store.LoadGame(ctx, st, c.Session, game.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := display.Export(g.out(), sess); err != nil {
		return err
	}
	if c.Write == "" {
		return nil
	}

	day, err := parseDay(c.Date)
	if err != nil {
		return err
	}
	path := filepath.Join(c.Write, display.ExportFilename(sess, day))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := display.Export(f, sess); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("Wrote session log", "file", path)
	return nil
}
