// internal/models/room.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the game-progression state of a room. It only moves forward:
// lobby -> playing -> finished.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Rank orders statuses so regressions can be detected. Unknown statuses rank -1.
func (s Status) Rank() int {
	switch s {
	case StatusLobby:
		return 0
	case StatusPlaying:
		return 1
	case StatusFinished:
		return 2
	}
	return -1
}

// UnmarshalJSON accepts "waiting" as an alias for lobby, which is what older
// versions of the room service send.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "waiting", "lobby":
		*s = StatusLobby
	case "playing":
		*s = StatusPlaying
	case "finished":
		*s = StatusFinished
	default:
		*s = Status(raw)
	}
	return nil
}

// Question is the question currently being asked in a room.
type Question struct {
	ID           int      `json:"id"`
	Text         string   `json:"text"`
	Hints        []string `json:"hints"`
	ArticleTitle string   `json:"article_title,omitempty"`
	Difficulty   int      `json:"difficulty,omitempty"`
}

// Article is the final-reveal payload, populated once a room is finished.
type Article struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

// RoomSnapshot is the full state of one room as returned by a single fetch.
// Snapshots are treated as immutable once received; writers replace them
// wholesale or copy before modifying.
type RoomSnapshot struct {
	Code            string    `json:"code"`
	HostID          string    `json:"host_id"`
	Status          Status    `json:"status"`
	Players         []Player  `json:"players"`
	CurrentQuestion *Question `json:"current_question,omitempty"`
	CurrentRound    int       `json:"current_round"`
	MaxRounds       int       `json:"max_rounds"`
	IsLoading       bool      `json:"is_loading"`
	LoadingMessage  string    `json:"loading_message,omitempty"`
	Article         *Article  `json:"article,omitempty"`
}

// NormalizeCode trims and upper-cases a join code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Player returns the player with the given id.
func (r *RoomSnapshot) Player(id string) (Player, bool) {
	if r == nil {
		return Player{}, false
	}
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// AllFinished reports whether every player in the room has finished.
// An empty room is never considered finished.
func (r *RoomSnapshot) AllFinished() bool {
	if r == nil || len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.HasFinished {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can derive a modified snapshot
// without touching one that may still be referenced elsewhere.
func (r *RoomSnapshot) Clone() *RoomSnapshot {
	if r == nil {
		return nil
	}
	c := *r
	c.Players = append([]Player(nil), r.Players...)
	if r.CurrentQuestion != nil {
		q := *r.CurrentQuestion
		q.Hints = append([]string(nil), r.CurrentQuestion.Hints...)
		c.CurrentQuestion = &q
	}
	if r.Article != nil {
		a := *r.Article
		c.Article = &a
	}
	return &c
}
