package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/store"
	"github.com/lox/riichibook/internal/upload"
)

// UploadCmd sends a finished session to the configured game recorder
type UploadCmd struct {
	Session string `arg:"" help:"Session id"`
	Date    string `help:"Game date (YYYY-MM-DD), default today"`
}

func (c *UploadCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	if cfg.Upload == nil {
		return errors.New("no upload block in the config file")
	}
	day, err := parseDay(c.Date)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, closeStore, err := g.openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	sess, err := store.LoadGame(ctx, st, c.Session, game.WithLogger(logger))
	if err != nil {
		return err
	}

	client := upload.New(cfg.Upload.URL, cfg.Upload.Token, upload.WithLogger(logger))
	id, err := upload.UploadGame(ctx, client, sess, day)
	if err != nil {
		return err
	}
	if err := store.SaveGame(ctx, st, c.Session, sess); err != nil {
		return fmt.Errorf("uploaded as %s but saving the session failed: %w", id, err)
	}
	fmt.Fprintf(g.out(), "Uploaded %s as %s\n", c.Session, id)
	return nil
}
