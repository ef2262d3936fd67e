package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/angel-problem/game/engine"
	"github.com/wricardo/angel-problem/game/service"
)

// Client talks to the game server's REST API
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// CreateSession opens a table on the server
func (c *Client) CreateSession(ctx context.Context, opts service.CreateSessionOptions) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", opts, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &info, nil
}

// GetState fetches the current snapshot of a table
func (c *Client) GetState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	var snap engine.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+sessionID+"/state", nil, &snap); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return &snap, nil
}

// DeleteSession removes a table
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+sessionID, nil, nil)
}

// Watcher creates one ai_vs_ai table per game and polls it until the game is
// decided or Timeout passes.
type Watcher struct {
	Client  *Client
	Preset  string
	Power   int
	Poll    time.Duration
	Timeout time.Duration
	Logger  *zap.Logger
}

// Play runs one game on the server. A game still undecided at the timeout is
// reported without a winner.
func (w *Watcher) Play(ctx context.Context) (GameResult, error) {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := w.Client.CreateSession(ctx, service.CreateSessionOptions{
		Preset: w.Preset,
		Mode:   engine.AIVsAI,
		Power:  w.Power,
	})
	if err != nil {
		return GameResult{}, err
	}
	defer func() {
		if err := w.Client.DeleteSession(context.Background(), info.ID); err != nil {
			logger.Warn("failed to delete session", zap.String("session_id", info.ID), zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	ticker := time.NewTicker(w.Poll)
	defer ticker.Stop()

	var generation uint64
	if info.State != nil {
		generation = info.State.Generation
	}

	last := info.State
	for {
		select {
		case <-ctx.Done():
			logger.Debug("table timed out", zap.String("session_id", info.ID))
			return resultFrom(last, engine.SideNone), nil
		case <-ticker.C:
		}

		snap, err := w.Client.GetState(ctx, info.ID)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			return GameResult{}, err
		}

		// Only an entrapment resets a table on its own
		if snap.Generation != generation {
			logger.Debug("table reset after entrapment", zap.String("session_id", info.ID))
			return resultFrom(last, engine.SideDemon), nil
		}
		if !snap.Active {
			logger.Debug("table finished", zap.String("session_id", info.ID), zap.String("winner", string(snap.Winner)))
			return resultFrom(snap, snap.Winner), nil
		}
		last = snap
	}
}

func resultFrom(snap *engine.Snapshot, winner engine.Side) GameResult {
	if snap == nil {
		return GameResult{Winner: winner}
	}
	return GameResult{
		Winner:       winner,
		AngelMoves:   snap.AngelMoves,
		BlocksPlaced: snap.BlocksPlaced,
		Distance:     snap.Distance,
	}
}
