// internal/roomclient/client.go
package roomclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jason-s-yu/newsquiz/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 10 * time.Second

// Client is a thin request/response wrapper around the room service. It keeps
// no game state and never retries; retry policy belongs to callers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry

	// fetches coalesces concurrent room fetches for the same code into one request.
	fetches      singleflight.Group
	fetchTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		if hc.Timeout > 0 {
			c.fetchTimeout = hc.Timeout
		}
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) { c.log = logger.WithField("component", "roomclient") }
}

// New builds a client for the service rooted at baseURL, e.g. "http://localhost:8000/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: defaultTimeout},
		fetchTimeout: defaultTimeout,
		log:          logrus.StandardLogger().WithField("component", "roomclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateRoom creates a room hosted by playerName.
func (c *Client) CreateRoom(ctx context.Context, playerName string) (*models.JoinResult, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, &ValidationError{Field: "playerName", Message: "Please enter your name"}
	}
	var out models.JoinResult
	body := map[string]string{"player_name": playerName}
	if err := c.do(ctx, "create room", http.MethodPost, "/rooms/create", nil, body, &out); err != nil {
		return nil, err
	}
	if out.Room == nil || out.PlayerID == "" {
		return nil, &RemoteError{StatusCode: http.StatusOK, Message: "Malformed create response"}
	}
	return &out, nil
}

// JoinRoom joins the room identified by code.
func (c *Client) JoinRoom(ctx context.Context, code, playerName string) (*models.JoinResult, error) {
	code = models.NormalizeCode(code)
	playerName = strings.TrimSpace(playerName)
	if code == "" || playerName == "" {
		return nil, &ValidationError{Field: "code", Message: "Please enter your name and the room code"}
	}
	var out models.JoinResult
	body := map[string]string{"code": code, "player_name": playerName}
	if err := c.do(ctx, "join room", http.MethodPost, "/rooms/join", nil, body, &out); err != nil {
		return nil, err
	}
	if out.Room == nil || out.PlayerID == "" {
		return nil, &RemoteError{StatusCode: http.StatusOK, Message: "Malformed join response"}
	}
	return &out, nil
}

// StartGame asks the service to start the match. Only the host may do so.
func (c *Client) StartGame(ctx context.Context, code, playerID string) (*models.RoomSnapshot, error) {
	var out models.RoomSnapshot
	q := url.Values{"player_id": {playerID}}
	if err := c.do(ctx, "start game", http.MethodPost, roomPath(code, "start"), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitGuess submits one guess for the player's current round.
func (c *Client) SubmitGuess(ctx context.Context, code, playerID, guess string) (*models.GuessResult, error) {
	var out models.GuessResult
	body := map[string]string{"player_id": playerID, "guess": guess}
	if err := c.do(ctx, "submit guess", http.MethodPost, roomPath(code, "guess"), nil, body, &out); err != nil {
		return nil, err
	}
	// older services return the updated player rather than a score field
	if out.Score == 0 && out.Player != nil {
		out.Score = out.Player.Score
	}
	return &out, nil
}

// LeaveRoom removes the player from the room. Callers treat it as best-effort.
func (c *Client) LeaveRoom(ctx context.Context, code, playerID string) error {
	q := url.Values{"player_id": {playerID}}
	return c.do(ctx, "leave room", http.MethodPost, roomPath(code, "leave"), q, nil, nil)
}

// FetchRoom returns the latest snapshot of a room. Concurrent calls for the
// same code share one request, so the result may have been produced before
// the call was made. Use RefreshRoom when the snapshot must reflect an action
// that just completed.
func (c *Client) FetchRoom(ctx context.Context, code string) (*models.RoomSnapshot, error) {
	code = models.NormalizeCode(code)
	return c.sharedFetch(ctx, code)
}

// RefreshRoom always issues a new request. Callers that arrive while it is
// outstanding share it.
func (c *Client) RefreshRoom(ctx context.Context, code string) (*models.RoomSnapshot, error) {
	code = models.NormalizeCode(code)
	c.fetches.Forget(code)
	return c.sharedFetch(ctx, code)
}

// sharedFetch runs the request detached from any one caller's context so a
// cancelled caller does not fail the others. Each caller still stops waiting
// when its own ctx is done.
func (c *Client) sharedFetch(ctx context.Context, code string) (*models.RoomSnapshot, error) {
	ch := c.fetches.DoChan(code, func() (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		var out models.RoomSnapshot
		if err := c.do(reqCtx, "fetch room", http.MethodGet, roomPath(code, ""), nil, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	select {
	case <-ctx.Done():
		return nil, &TransportError{Op: "fetch room", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.RoomSnapshot), nil
	}
}

// FetchLeaderboard returns the room leaderboard in service order.
func (c *Client) FetchLeaderboard(ctx context.Context, code string) ([]models.LeaderboardEntry, error) {
	var out struct {
		Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	}
	if err := c.do(ctx, "fetch leaderboard", http.MethodGet, roomPath(code, "leaderboard"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Leaderboard, nil
}

// Health reports service status.
func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var out models.Health
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func roomPath(code, action string) string {
	p := "/rooms/" + url.PathEscape(models.NormalizeCode(code))
	if action != "" {
		p += "/" + action
	}
	return p
}

// do issues one request and decodes the JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rerr := &RemoteError{StatusCode: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
		c.log.WithFields(logrus.Fields{
			"op":     op,
			"status": resp.StatusCode,
		}).Debugf("room service error: %s", rerr.Message)
		return rerr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RemoteError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("Unexpected response from server (%s)", op)}
	}
	return nil
}

// errorMessage extracts a human readable message from an error payload.
func errorMessage(data []byte, status int) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := payload[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("request failed (%d)", status)
}
