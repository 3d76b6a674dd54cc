package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/riichibook/internal/display"
	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/stats"
	"github.com/lox/riichibook/internal/store"
)

// StatsCmd prints per-player statistics for a stored session
type StatsCmd struct {
	Session string `arg:"" help:"Session id"`
	JSON    bool   `help:"Print the upload record of a finished session as JSON"`
	Date    string `help:"Game date for the record (YYYY-MM-DD), default today"`
}

func (c *StatsCmd) Run(g *Globals) error {
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

	sess, err := store.LoadGame(ctx, st, c.Session, game.WithLogger(logger))
	if err != nil {
		return err
	}

	if !c.JSON {
		return writeStats(g.out(), sess)
	}
	day, err := parseDay(c.Date)
	if err != nil {
		return err
	}
	rec, err := stats.NewRecord(sess, day)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(g.out())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

// writeStats renders the summary table. The score column only appears once
// the game is finished.
func writeStats(w io.Writer, g *game.Game) error {
	styles := display.NewStyles(display.PlainRenderer(w))
	summary := stats.Summarize(g)

	var scores []float64
	headers := []string{"Player", "Points", "Rank", "Riichi", "Agari", "Deal-in", "Tenpai", "Agari pts", "Deal-in pts"}
	if g.IsFinished() {
		var err error
		if scores, err = stats.Scores(g, nil); err != nil {
			return err
		}
		headers = append(headers, "Score")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		})
	for i, s := range summary {
		rank := "-"
		if s.Rank > 0 {
			rank = strconv.Itoa(s.Rank)
		}
		row := []string{
			s.Name,
			strconv.Itoa(s.Points),
			rank,
			strconv.Itoa(s.Riichi),
			strconv.Itoa(s.Agari),
			strconv.Itoa(s.DealIn),
			strconv.Itoa(s.TenpaiOnDraw),
			strconv.Itoa(s.AgariPoints),
			strconv.Itoa(s.DealInPoints),
		}
		if scores != nil {
			row = append(row, strconv.FormatFloat(scores[i], 'f', 1, 64))
		}
		t.Row(row...)
	}
	_, err := fmt.Fprintf(w, "%s\nHands played: %d\n", t.Render(), g.HandsPlayed())
	return err
}
