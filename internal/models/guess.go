package models

// GuessResult is the service's verdict on a single guess. Correct=false does
// not consume the attempt: the player may retry the same round.
type GuessResult struct {
	Correct   bool    `json:"correct"`
	Feedback  string  `json:"feedback"`
	Score     int     `json:"score"`
	Finished  bool    `json:"finished"`
	NextRound int     `json:"next_round"`
	Player    *Player `json:"player,omitempty"`
}

// JoinResult is returned by both create and join.
type JoinResult struct {
	Room     *RoomSnapshot `json:"room"`
	PlayerID string        `json:"player_id"`
}

// LeaderboardEntry is one row of the room leaderboard.
type LeaderboardEntry struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	Score           int    `json:"score"`
	IsHost          bool   `json:"is_host"`
	CurrentRound    int    `json:"current_round"`
	MaxRounds       int    `json:"max_rounds"`
	HasFinished     bool   `json:"has_finished"`
	ProgressPercent int    `json:"progress_percent"`
}

// Health is the room service health report.
type Health struct {
	Status         string `json:"status"`
	AIEngineStatus string `json:"ai_engine_status,omitempty"`
	Ollama         string `json:"ollama,omitempty"`
	ArticlesCount  int    `json:"articles_count,omitempty"`
	RoomsCount     int    `json:"rooms_count,omitempty"`
}

// EngineStatus returns the AI engine readiness under either field name.
func (h Health) EngineStatus() string {
	if h.AIEngineStatus != "" {
		return h.AIEngineStatus
	}
	return h.Ollama
}
