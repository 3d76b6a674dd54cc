// Package game keeps the score of a riichi mahjong session.
//
// The main type is Game, which owns the seated Players, the Hand in play and
// an append-only log of snapshots taken after each hand.
//
// # Basic Usage
//
//	g, err := game.NewGame(ruleset.MLeague,
//	    []string{"Alice", "Bob", "Carol", "Dave"},
//	    []seat.Wind{seat.East, seat.South, seat.West, seat.North})
//	g.Start()
//	g.StartCurrentHand()
//	g.PlayerRiichi(seat.West)
//	g.FinishCurrentHand(game.Ron{
//	    DealIn: seat.North,
//	    Wins:   []game.RonWin{{Winner: seat.West, Han: points.HanCount(3), Fu: 40}},
//	})
//	g.SaveHandLog()
//	g.SetUpNextHandOrFinishGame()
//
// Han and fu are inputs; the package only turns them into points.
//
// # Errors
//
// Calling an operation from the wrong state returns an error wrapping
// ErrIllegalTransition and changes nothing. Bad hand results come back as a
// *ValidationError with the hand still in play. ErrInvariant means the
// scoring itself went wrong.
//
// # Concurrency
//
// A Game is not safe for concurrent use; hosts serving many sessions hold
// one lock per Game.
package game
