package models

import "github.com/google/uuid"

// MatchRecord is what the client reports about a finished match, for the
// historian to persist.
type MatchRecord struct {
	ID          uuid.UUID          `json:"id"`
	RoomCode    string             `json:"room_code"`
	PlayerID    string             `json:"player_id"`
	PlayerName  string             `json:"player_name"`
	Article     *Article           `json:"article,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	FinishedAt  int64              `json:"finished_at"` // epoch millis
}
