package models

// Player is one participant as reported by the room service.
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IsHost       bool   `json:"is_host"`
	Score        int    `json:"score"`
	CurrentRound int    `json:"current_round"` // 1-indexed, personal to this player
	HasFinished  bool   `json:"has_finished"`
	Connected    bool   `json:"connected"`
}
