package viewmodel

import (
	"testing"

	"github.com/jason-s-yu/newsquiz/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playingSnap() *models.RoomSnapshot {
	return &models.RoomSnapshot{
		Code:   "ABC123",
		HostID: "p1",
		Status: models.StatusPlaying,
		Players: []models.Player{
			{ID: "p1", Name: "Ana", IsHost: true, Score: 100, CurrentRound: 3},
			{ID: "p2", Name: "Bo", Score: 300, CurrentRound: 2},
		},
		CurrentQuestion: &models.Question{Text: "Which city?", Hints: []string{"a", "b"}},
		CurrentRound:    1,
		MaxRounds:       5,
	}
}

func TestLobbyCanStartOnlyForHost(t *testing.T) {
	snap := playingSnap()
	snap.Status = models.StatusLobby

	host := Lobby(snap, "p1")
	assert.True(t, host.CanStart)
	assert.Equal(t, 2, host.PlayerCount)
	assert.True(t, host.Players[0].IsYou)

	guest := Lobby(snap, "p2")
	assert.False(t, guest.CanStart)
	assert.Equal(t, "Waiting for players", guest.StatusBadge)
}

func TestGameUsesLocalPlayersRound(t *testing.T) {
	snap := playingSnap()

	v := Game(snap, "p1")
	assert.Equal(t, 3, v.Round)
	assert.Equal(t, "Question 3/5", v.RoundLabel)
	assert.Equal(t, 100, v.Score)
	assert.Equal(t, "Which city?", v.QuestionText)
	assert.Equal(t, 2, v.HintCount)

	v = Game(snap, "p2")
	assert.Equal(t, 2, v.Round)
}

func TestGameClampsRound(t *testing.T) {
	snap := playingSnap()
	snap.Players[0].CurrentRound = 9
	assert.Equal(t, "Question 5/5", Game(snap, "p1").RoundLabel)

	snap.Players[0].CurrentRound = 0
	snap.CurrentRound = 0
	assert.Equal(t, 1, Game(snap, "p1").Round)

	assert.Equal(t, 7, ClampRound(7, 0))
}

func TestQuestionKey(t *testing.T) {
	snap := playingSnap()
	assert.Equal(t, "3:Which city?", QuestionKey(snap, "p1"))
	assert.Equal(t, "2:Which city?", QuestionKey(snap, "p2"))

	snap.Players[0].HasFinished = true
	assert.Empty(t, QuestionKey(snap, "p1"))

	snap.Status = models.StatusLobby
	assert.Empty(t, QuestionKey(snap, "p2"))
	assert.Empty(t, QuestionKey(nil, "p2"))
}

func TestLeaderboardOrderingAndTies(t *testing.T) {
	entries := []models.LeaderboardEntry{
		{ID: "c", Name: "carol", Score: 200, CurrentRound: 2, MaxRounds: 4},
		{ID: "a", Name: "Ana", Score: 500, HasFinished: true},
		{ID: "b", Name: "Bo", Score: 200, CurrentRound: 3, MaxRounds: 4},
	}
	rows := Leaderboard(entries, "b")
	require.Len(t, rows, 3)

	assert.Equal(t, "Ana", rows[0].Name)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "Finished", rows[0].Progress)
	assert.Equal(t, 100, rows[0].ProgressPercent)

	assert.Equal(t, "Bo", rows[1].Name)
	assert.Equal(t, "carol", rows[2].Name)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, 2, rows[2].Rank)
	assert.True(t, rows[1].IsYou)
	assert.Equal(t, "3/4", rows[1].Progress)
	assert.Equal(t, 50, rows[1].ProgressPercent)

	// input order untouched
	assert.Equal(t, "carol", entries[0].Name)
}

func TestLiveScoresAndResult(t *testing.T) {
	snap := playingSnap()
	rows := LiveScores(snap, "p1")
	require.Len(t, rows, 2)
	assert.Equal(t, "Bo", rows[0].Name)
	assert.True(t, rows[1].IsYou)

	snap.Status = models.StatusFinished
	snap.Article = &models.Article{Title: "Big News", Source: "Wire", URL: "https://example.com/a"}
	res := Result(snap, []models.LeaderboardEntry{{Name: "Ana", Score: 10}, {Name: "Bo", Score: 40}}, "p1")
	assert.Equal(t, "Big News", res.ArticleTitle)
	assert.Equal(t, "Bo", res.WinnerName)

	empty := Result(nil, nil, "")
	assert.Empty(t, empty.WinnerName)
}

func TestStatusBadge(t *testing.T) {
	assert.Equal(t, "In progress", StatusBadge(models.StatusPlaying))
	assert.Equal(t, "Finished", StatusBadge(models.StatusFinished))
}
