// internal/game/renderer.go
package game

import (
	"context"

	"github.com/jason-s-yu/newsquiz/internal/models"
	"github.com/jason-s-yu/newsquiz/internal/screen"
	"github.com/jason-s-yu/newsquiz/internal/viewmodel"
)

// NoticeKind classifies a transient, auto-dismissing notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeSuccess:
		return "success"
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	}
	return "info"
}

// Renderer paints screens and widgets. Implementations must be safe for use
// from several goroutines and must not call back into Game.
type Renderer interface {
	ShowScreen(s screen.Screen)
	ShowLoading(message string)
	HideLoading()

	RenderLobby(v viewmodel.LobbyView)
	RenderGame(v viewmodel.GameView)
	RenderScores(rows []viewmodel.LeaderboardRow)
	RenderResults(v viewmodel.ResultView)

	ClearHints()
	ShowHint(index int, hint string)

	ClearInput()
	SetInputEnabled(enabled bool)
	// SetNextQuestion shows or hides the "next question" affordance bound to round.
	SetNextQuestion(round int, visible bool)

	Notify(kind NoticeKind, message string)
}

// RoomAPI is the room service as seen by the game.
type RoomAPI interface {
	CreateRoom(ctx context.Context, playerName string) (*models.JoinResult, error)
	JoinRoom(ctx context.Context, code, playerName string) (*models.JoinResult, error)
	StartGame(ctx context.Context, code, playerID string) (*models.RoomSnapshot, error)
	SubmitGuess(ctx context.Context, code, playerID, guess string) (*models.GuessResult, error)
	LeaveRoom(ctx context.Context, code, playerID string) error
	FetchRoom(ctx context.Context, code string) (*models.RoomSnapshot, error)
	RefreshRoom(ctx context.Context, code string) (*models.RoomSnapshot, error)
	FetchLeaderboard(ctx context.Context, code string) ([]models.LeaderboardEntry, error)
	Health(ctx context.Context) (*models.Health, error)
}

// ResultRecorder receives a record of every match the local player saw finish.
type ResultRecorder interface {
	RecordMatch(ctx context.Context, rec models.MatchRecord) error
}
