package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/riichibook/cmd/riichibook/shared"
	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/gameid"
	"github.com/lox/riichibook/internal/store"
	"github.com/lox/riichibook/internal/timer"
	"github.com/lox/riichibook/internal/tui"
)

// RecordCmd runs the terminal recorder
type RecordCmd struct {
	Names     []string      `arg:"" optional:"" help:"Player names, in starting wind order unless --winds is given"`
	Session   string        `short:"s" help:"Session id to resume; a new id is generated when empty"`
	Ruleset   string        `short:"r" help:"Ruleset for a new session" default:"mleague"`
	Winds     []string      `help:"Starting wind for each named player"`
	Clock     time.Duration `help:"Hand clock length, 0 disables it" default:"0s"`
	ExportDir string        `help:"Directory for the export command" default:"."`
	LogFile   string        `help:"Write logs here while the recorder owns the terminal"`
}

func (c *RecordCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	logger, closeLog, err := c.recorderLogger(logger.GetLevel())
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := context.Background()
	st, closeStore, err := g.openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	id, sess, err := c.loadOrCreate(ctx, st, func() (*game.Game, error) {
		return newGame(cfg, c.Ruleset, c.Names, c.Winds, logger)
	}, logger)
	if err != nil {
		return err
	}

	opts := []tui.Option{
		tui.WithExportDir(c.ExportDir),
		tui.WithSaver(func(g *game.Game) error {
			return store.SaveGame(ctx, st, id, g)
		}),
	}
	if c.Clock > 0 {
		opts = append(opts, tui.WithTimer(timer.New(quartz.NewReal(), c.Clock)))
	}

	model := tui.New(sess, logger, opts...)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	fmt.Fprintf(g.out(), "Session %s saved\n", id)
	return nil
}

// loadOrCreate resumes c.Session from st, or creates and stores a new game.
func (c *RecordCmd) loadOrCreate(ctx context.Context, st store.Store, create func() (*game.Game, error), logger *log.Logger) (string, *game.Game, error) {
	if c.Session != "" {
		g, err := store.LoadGame(ctx, st, c.Session, game.WithLogger(logger))
		if err == nil {
			logger.Info("Resuming session", "id", c.Session, "hand", g.CurrentHand().Signature())
			return c.Session, g, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", nil, err
		}
	}

	g, err := create()
	if err != nil {
		return "", nil, err
	}
	id := c.Session
	if id == "" {
		id = gameid.New()
	}
	if err := store.SaveGame(ctx, st, id, g); err != nil {
		return "", nil, err
	}
	logger.Info("Created session", "id", id, "ruleset", g.Ruleset().Name)
	return id, g, nil
}

// recorderLogger keeps log lines off the terminal the recorder draws on.
func (c *RecordCmd) recorderLogger(level log.Level) (*log.Logger, func(), error) {
	if c.LogFile == "" {
		return log.NewWithOptions(io.Discard, log.Options{Level: level}), func() {}, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger, err := shared.SetupLoggerTo(f, level.String())
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return logger, func() { _ = f.Close() }, nil
}
