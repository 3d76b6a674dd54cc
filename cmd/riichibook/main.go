package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Points  PointsCmd        `cmd:"" help:"Look up the payment for a hand value"`
	Record  RecordCmd        `cmd:"" help:"Record a live session in the terminal"`
	Replay  ReplayCmd        `cmd:"" help:"Apply a command script to a new session"`
	Show    ShowCmd          `cmd:"" help:"Print a stored session log, or list stored sessions"`
	Stats   StatsCmd         `cmd:"" help:"Per-player statistics for a stored session"`
	Upload  UploadCmd        `cmd:"" help:"Send a finished session to the game recorder"`
	Serve   ServeCmd         `cmd:"" help:"Host live sessions over WebSocket"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("riichibook"),
		kong.Description("Score keeper for riichi mahjong sessions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
