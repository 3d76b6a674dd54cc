// Package upload posts finished games to the remote game recorder.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/riichibook/internal/game"
	"github.com/lox/riichibook/internal/stats"
)

// ErrAlreadyUploaded is returned by UploadGame for a game that has an id.
var ErrAlreadyUploaded = errors.New("game already uploaded")

// Recorder stores a game record remotely and returns its id.
type Recorder interface {
	RecordGame(ctx context.Context, rec stats.GameRecord) (string, error)
}

// Request is the body of a record_game call.
type Request struct {
	Action string           `json:"action"`
	Token  string           `json:"token"`
	Game   stats.GameRecord `json:"game"`
}

// Client talks to the recorder over HTTP.
type Client struct {
	url    string
	token  string
	http   *http.Client
	logger *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 30s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger for requests.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger.WithPrefix("upload") }
}

// New returns a client for the recorder at url.
func New(url, token string, opts ...Option) *Client {
	c := &Client{
		url:    url,
		token:  token,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecordGame posts rec and returns the id the recorder assigned. The
// response may be a JSON object carrying "id" or "game_id", or the bare id.
func (c *Client) RecordGame(ctx context.Context, rec stats.GameRecord) (string, error) {
	body, err := json.Marshal(Request{Action: "record_game", Token: c.token, Game: rec})
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Recording game", "url", c.url, "date", rec.GameDate, "hands", rec.GameHandCount)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("record game: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("record game: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	id := parseID(data)
	if id == "" {
		return "", errors.New("record game: response carries no id")
	}
	c.logger.Info("Game recorded", "id", id)
	return id, nil
}

func parseID(data []byte) string {
	var obj struct {
		ID     string `json:"id"`
		GameID string `json:"game_id"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		if obj.ID != "" {
			return obj.ID
		}
		return obj.GameID
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(data))
}

// UploadGame records a finished game played on day and tags it with the
// returned id.
func UploadGame(ctx context.Context, r Recorder, g *game.Game, day time.Time) (string, error) {
	if g.IsUploaded() {
		return "", fmt.Errorf("%w as %s", ErrAlreadyUploaded, g.UploadID())
	}
	rec, err := stats.NewRecord(g, day)
	if err != nil {
		return "", err
	}
	id, err := r.RecordGame(ctx, rec)
	if err != nil {
		return "", err
	}
	if err := g.SetUploadID(id); err != nil {
		return "", err
	}
	return id, nil
}
