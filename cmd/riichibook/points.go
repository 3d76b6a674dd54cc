package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lox/riichibook/internal/points"
)

// PointsCmd prints the payments for a han/fu value
type PointsCmd struct {
	Han     string `arg:"" help:"Han count or limit name (mangan, haneman, baiman, sanbaiman, yakuman, ...)"`
	Fu      int    `arg:"" optional:"" help:"Fu, needed below mangan"`
	Ruleset string `help:"Ruleset deciding mangan round up" default:"mleague"`
}

func (c *PointsCmd) Run(g *Globals) error {
	cfg, _, err := g.setup()
	if err != nil {
		return err
	}
	rs, err := cfg.Ruleset(c.Ruleset)
	if err != nil {
		return err
	}
	han, err := points.ParseHan(c.Han)
	if err != nil {
		return err
	}
	return writePoints(g.out(), han, c.Fu, rs.RoundUpMangan)
}

func writePoints(w io.Writer, han points.Han, fu int, roundUpMangan bool) error {
	if han.NeedsFu() && fu == 0 {
		return errors.New("fu is required below mangan")
	}
	key, ok := points.Resolve(han, fu, roundUpMangan)
	if !ok {
		return fmt.Errorf("no entry for %s han %d fu", han, fu)
	}

	label := strings.ToLower(key.Tier.String())
	if !key.IsTier() {
		label = fmt.Sprintf("%d han %d fu", key.Han, key.Fu)
	}
	fmt.Fprintln(w, label)

	if ronND, ok := points.Ron(key, false); ok {
		ronD, _ := points.Ron(key, true)
		fmt.Fprintf(w, "ron    non-dealer %d, dealer %d\n", ronND, ronD)
	} else {
		fmt.Fprintln(w, "ron    not possible")
	}
	if nd, d, ok := points.TsumoNonDealer(key); ok {
		all, _ := points.TsumoDealer(key)
		fmt.Fprintf(w, "tsumo  non-dealer %d/%d, dealer %d all\n", nd, d, all)
	} else {
		fmt.Fprintln(w, "tsumo  not possible")
	}
	return nil
}
