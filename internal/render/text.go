// internal/render/text.go
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jason-s-yu/newsquiz/internal/game"
	"github.com/jason-s-yu/newsquiz/internal/screen"
	"github.com/jason-s-yu/newsquiz/internal/viewmodel"
)

// Text is a line-oriented terminal renderer.
type Text struct {
	mu           sync.Mutex
	w            io.Writer
	inputEnabled bool
	nextRound    int
	loading      bool
}

var _ game.Renderer = (*Text)(nil)

// NewText writes to w.
func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) println(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, s)
}

func (t *Text) ShowScreen(s screen.Screen) {
	var hint string
	switch s {
	case screen.Home:
		hint = "commands: create | join <CODE> <name> | health | quit"
	case screen.Create:
		hint = "commands: name <your name> | back"
	case screen.Lobby:
		hint = "commands: start | leave"
	case screen.Game:
		hint = "commands: guess <answer> | next | leave"
	case screen.Result:
		hint = "commands: new | quit"
	}
	t.println("\n== " + strings.ToUpper(s.String()) + " ==\n" + hint)
}

func (t *Text) ShowLoading(message string) {
	t.mu.Lock()
	already := t.loading
	t.loading = true
	t.mu.Unlock()
	if !already {
		t.println("... " + message)
	}
}

func (t *Text) HideLoading() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = false
}

func (t *Text) RenderLobby(v viewmodel.LobbyView) {
	var b strings.Builder
	b.WriteString("Room ")
	b.WriteString(v.Code)
	b.WriteString(" (")
	b.WriteString(v.StatusBadge)
	b.WriteString(") players: ")
	b.WriteString(strconv.Itoa(v.PlayerCount))
	for _, p := range v.Players {
		b.WriteString("\n  - ")
		b.WriteString(p.Name)
		if p.IsHost {
			b.WriteString(" [host]")
		}
		if p.IsYou {
			b.WriteString(" (you)")
		}
	}
	if v.CanStart {
		b.WriteString("\nYou are the host: type 'start' when everyone is here.")
	} else {
		b.WriteString("\nWaiting for the host to start...")
	}
	t.println(b.String())
}

func (t *Text) RenderGame(v viewmodel.GameView) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  |  score %d", v.RoundLabel, v.Score)
	if v.Finished {
		b.WriteString("\nYou have finished. Waiting for the others...")
	} else if v.QuestionText != "" {
		b.WriteString("\nQ: ")
		b.WriteString(v.QuestionText)
	}
	t.println(b.String())
}

func (t *Text) RenderScores(rows []viewmodel.LeaderboardRow) {
	t.println(formatBoard("Scores", rows))
}

func (t *Text) RenderResults(v viewmodel.ResultView) {
	var b strings.Builder
	if v.ArticleTitle != "" {
		fmt.Fprintf(&b, "The article was: %s", v.ArticleTitle)
		if v.ArticleSource != "" {
			fmt.Fprintf(&b, " (%s)", v.ArticleSource)
		}
		if v.ArticleURL != "" {
			b.WriteString("\n  ")
			b.WriteString(v.ArticleURL)
		}
	}
	if len(v.Leaderboard) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Winner: %s\n", v.WinnerName)
		b.WriteString(formatBoard("Final leaderboard", v.Leaderboard))
	}
	if b.Len() > 0 {
		t.println(b.String())
	}
}

func (t *Text) ClearHints() {}

func (t *Text) ShowHint(index int, hint string) {
	t.println(fmt.Sprintf("Hint %d: %s", index+1, hint))
}

func (t *Text) ClearInput() {}

func (t *Text) SetInputEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputEnabled = enabled
}

// InputEnabled reports whether guesses are currently accepted.
func (t *Text) InputEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputEnabled
}

func (t *Text) SetNextQuestion(round int, visible bool) {
	t.mu.Lock()
	if !visible {
		t.nextRound = 0
		t.mu.Unlock()
		return
	}
	t.nextRound = round
	t.mu.Unlock()
	t.println(fmt.Sprintf("Type 'next' for question %d.", round))
}

func (t *Text) Notify(kind game.NoticeKind, message string) {
	t.println(fmt.Sprintf("[%s] %s", kind, message))
}

func formatBoard(title string, rows []viewmodel.LeaderboardRow) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString(":")
	for _, r := range rows {
		fmt.Fprintf(&b, "\n  %d. %s %d", r.Rank, r.Name, r.Score)
		if r.Progress != "" {
			fmt.Fprintf(&b, " (%s)", r.Progress)
		}
		if r.IsYou {
			b.WriteString(" <- you")
		}
	}
	return b.String()
}
