package render

import (
	"bytes"
	"testing"

	"github.com/jason-s-yu/newsquiz/internal/game"
	"github.com/jason-s-yu/newsquiz/internal/screen"
	"github.com/jason-s-yu/newsquiz/internal/viewmodel"
	"github.com/stretchr/testify/assert"
)

func TestTextRendersLobbyAndGame(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)

	r.ShowScreen(screen.Lobby)
	r.RenderLobby(viewmodel.LobbyView{
		Code:        "ABC123",
		PlayerCount: 2,
		CanStart:    true,
		StatusBadge: "Waiting for players",
		Players: []viewmodel.PlayerRow{
			{Name: "Ana", IsHost: true, IsYou: true},
			{Name: "Bo"},
		},
	})
	r.RenderGame(viewmodel.GameView{RoundLabel: "Question 2/5", Score: 100, QuestionText: "Which city?"})
	r.ShowHint(0, "Europe")

	out := buf.String()
	assert.Contains(t, out, "== LOBBY ==")
	assert.Contains(t, out, "Ana [host] (you)")
	assert.Contains(t, out, "type 'start'")
	assert.Contains(t, out, "Question 2/5  |  score 100")
	assert.Contains(t, out, "Q: Which city?")
	assert.Contains(t, out, "Hint 1: Europe")
}

func TestTextResultsAndNotices(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)

	r.RenderResults(viewmodel.ResultView{
		ArticleTitle:  "Summit ends in accord",
		ArticleSource: "Wire",
		WinnerName:    "Ana",
		Leaderboard: []viewmodel.LeaderboardRow{
			{Rank: 1, Name: "Ana", Score: 300, Progress: "Finished", IsYou: true},
			{Rank: 2, Name: "Bo", Score: 100, Progress: "2/3"},
		},
	})
	r.Notify(game.NoticeWarning, "Not quite")

	out := buf.String()
	assert.Contains(t, out, "The article was: Summit ends in accord (Wire)")
	assert.Contains(t, out, "Winner: Ana")
	assert.Contains(t, out, "1. Ana 300 (Finished) <- you")
	assert.Contains(t, out, "2. Bo 100 (2/3)")
	assert.Contains(t, out, "[warning] Not quite")
}

func TestTextLoadingPrintsOnce(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf)
	r.ShowLoading("Generating questions...")
	r.ShowLoading("Generating questions...")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Generating")))

	r.HideLoading()
	r.SetInputEnabled(true)
	assert.True(t, r.InputEnabled())
	r.SetNextQuestion(3, true)
	assert.Contains(t, buf.String(), "question 3")
}
