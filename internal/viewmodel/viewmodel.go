// Package viewmodel derives display-ready values from room snapshots. It holds
// no state and knows nothing about how values are painted.
package viewmodel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jason-s-yu/newsquiz/internal/models"
)

// PlayerRow is one entry in the lobby roster.
type PlayerRow struct {
	ID     string
	Name   string
	IsHost bool
	IsYou  bool
}

// LobbyView is everything the lobby screen shows.
type LobbyView struct {
	Code        string
	Players     []PlayerRow
	PlayerCount int
	CanStart    bool // only the local host sees the start affordance
	StatusBadge string
}

// GameView is the local player's question area.
type GameView struct {
	Code         string
	Round        int
	MaxRounds    int
	RoundLabel   string
	Score        int
	QuestionText string
	HintCount    int
	Finished     bool
	StatusBadge  string
}

// LeaderboardRow is one ranked line of a scoreboard.
type LeaderboardRow struct {
	Rank            int
	Name            string
	Score           int
	IsHost          bool
	IsYou           bool
	Finished        bool
	Progress        string
	ProgressPercent int
}

// ResultView is the final reveal.
type ResultView struct {
	ArticleTitle  string
	ArticleSource string
	ArticleURL    string
	WinnerName    string
	Leaderboard   []LeaderboardRow
}

// Lobby builds the lobby roster for playerID.
func Lobby(snap *models.RoomSnapshot, playerID string) LobbyView {
	v := LobbyView{}
	if snap == nil {
		return v
	}
	v.Code = snap.Code
	v.StatusBadge = StatusBadge(snap.Status)
	for _, p := range snap.Players {
		v.Players = append(v.Players, PlayerRow{
			ID:     p.ID,
			Name:   p.Name,
			IsHost: p.IsHost,
			IsYou:  p.ID == playerID,
		})
		if p.ID == playerID && p.IsHost {
			v.CanStart = true
		}
	}
	v.PlayerCount = len(v.Players)
	return v
}

// Game builds the question area for playerID. Each player may be on a
// different round, so the round shown is the local player's.
func Game(snap *models.RoomSnapshot, playerID string) GameView {
	v := GameView{}
	if snap == nil {
		return v
	}
	v.Code = snap.Code
	v.MaxRounds = snap.MaxRounds
	v.StatusBadge = StatusBadge(snap.Status)

	round := snap.CurrentRound
	if p, ok := snap.Player(playerID); ok {
		v.Score = p.Score
		v.Finished = p.HasFinished
		if p.CurrentRound > 0 {
			round = p.CurrentRound
		}
	}
	v.Round = ClampRound(round, snap.MaxRounds)
	v.RoundLabel = fmt.Sprintf("Question %d/%d", v.Round, snap.MaxRounds)

	if q := snap.CurrentQuestion; q != nil && !v.Finished {
		v.QuestionText = q.Text
		v.HintCount = len(q.Hints)
	}
	return v
}

// QuestionKey identifies the question the local player is on, for the hint scheduler.
// It is empty when there is nothing to show.
func QuestionKey(snap *models.RoomSnapshot, playerID string) string {
	if snap == nil || snap.CurrentQuestion == nil || snap.Status != models.StatusPlaying {
		return ""
	}
	v := Game(snap, playerID)
	if v.Finished {
		return ""
	}
	return fmt.Sprintf("%d:%s", v.Round, snap.CurrentQuestion.Text)
}

// ClampRound bounds a 1-indexed round to [1, max]. A max of 0 only clamps the lower bound.
func ClampRound(round, max int) int {
	if round < 1 {
		round = 1
	}
	if max > 0 && round > max {
		round = max
	}
	return round
}

// StatusBadge is the short label shown for a room status.
func StatusBadge(s models.Status) string {
	switch s {
	case models.StatusLobby:
		return "Waiting for players"
	case models.StatusPlaying:
		return "In progress"
	case models.StatusFinished:
		return "Finished"
	}
	return strings.ToUpper(string(s))
}

// LiveScores ranks the snapshot's players by score for the in-game scoreboard.
func LiveScores(snap *models.RoomSnapshot, playerID string) []LeaderboardRow {
	if snap == nil {
		return nil
	}
	entries := make([]models.LeaderboardEntry, 0, len(snap.Players))
	for _, p := range snap.Players {
		entries = append(entries, models.LeaderboardEntry{
			ID:           p.ID,
			Name:         p.Name,
			Score:        p.Score,
			IsHost:       p.IsHost,
			CurrentRound: p.CurrentRound,
			MaxRounds:    snap.MaxRounds,
			HasFinished:  p.HasFinished,
		})
	}
	return Leaderboard(entries, playerID)
}

// Leaderboard sorts entries by score (desc) then name and fills derived fields.
// Equal scores share a rank.
func Leaderboard(entries []models.LeaderboardEntry, playerID string) []LeaderboardRow {
	sorted := append([]models.LeaderboardEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score == sorted[j].Score {
			return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
		}
		return sorted[i].Score > sorted[j].Score
	})

	rows := make([]LeaderboardRow, 0, len(sorted))
	for i, e := range sorted {
		rank := i + 1
		if i > 0 && e.Score == sorted[i-1].Score {
			rank = rows[i-1].Rank
		}
		pct := progressPercent(e)
		row := LeaderboardRow{
			Rank:            rank,
			Name:            e.Name,
			Score:           e.Score,
			IsHost:          e.IsHost,
			IsYou:           playerID != "" && e.ID == playerID,
			Finished:        e.HasFinished,
			ProgressPercent: pct,
		}
		switch {
		case e.HasFinished:
			row.Progress = "Finished"
		case e.MaxRounds > 0:
			row.Progress = fmt.Sprintf("%d/%d", ClampRound(e.CurrentRound, e.MaxRounds), e.MaxRounds)
		}
		rows = append(rows, row)
	}
	return rows
}

func progressPercent(e models.LeaderboardEntry) int {
	if e.HasFinished {
		return 100
	}
	if e.ProgressPercent > 0 {
		return clampPercent(e.ProgressPercent)
	}
	if e.MaxRounds <= 0 || e.CurrentRound <= 1 {
		return 0
	}
	// rounds completed so far
	return clampPercent((e.CurrentRound - 1) * 100 / e.MaxRounds)
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Result builds the final reveal from the finished snapshot and leaderboard.
func Result(snap *models.RoomSnapshot, entries []models.LeaderboardEntry, playerID string) ResultView {
	v := ResultView{Leaderboard: Leaderboard(entries, playerID)}
	if snap != nil && snap.Article != nil {
		v.ArticleTitle = snap.Article.Title
		v.ArticleSource = snap.Article.Source
		v.ArticleURL = snap.Article.URL
	}
	if len(v.Leaderboard) > 0 {
		v.WinnerName = v.Leaderboard[0].Name
	}
	return v
}
