// Package store persists session snapshots written by the game codec.
//
// A Store only moves bytes. SaveGame and LoadGame wrap any Store with the
// encoding of a *game.Game.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lox/riichibook/internal/game"
)

// ErrNotFound is returned by Load and Delete for an unknown id.
var ErrNotFound = errors.New("snapshot not found")

// Store keeps one snapshot per session id.
type Store interface {
	Save(ctx context.Context, id string, data []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// SaveGame encodes g and stores it under id.
func SaveGame(ctx context.Context, s Store, id string, g *game.Game) error {
	data, err := game.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	return s.Save(ctx, id, data)
}

// LoadGame reads and decodes the session stored under id.
func LoadGame(ctx context.Context, s Store, id string, opts ...game.Option) (*game.Game, error) {
	data, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := game.Unmarshal(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return g, nil
}

// checkID rejects ids that could escape a directory or a key namespace.
func checkID(id string) error {
	if id == "" {
		return errors.New("empty session id")
	}
	if strings.ContainsAny(id, `/\:*?`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}
