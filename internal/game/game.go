// internal/game/game.go
package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/newsquiz/internal/hints"
	"github.com/jason-s-yu/newsquiz/internal/models"
	"github.com/jason-s-yu/newsquiz/internal/poller"
	"github.com/jason-s-yu/newsquiz/internal/roomclient"
	"github.com/jason-s-yu/newsquiz/internal/screen"
	"github.com/jason-s-yu/newsquiz/internal/session"
	"github.com/jason-s-yu/newsquiz/internal/submit"
	"github.com/jason-s-yu/newsquiz/internal/viewmodel"
	"github.com/sirupsen/logrus"
)

// DefaultHintInterval is used when Options.HintInterval is not set.
const DefaultHintInterval = 15 * time.Second

// Options configures a Game.
type Options struct {
	PollInterval time.Duration
	HintInterval time.Duration
	ResultsDelay time.Duration
	Logger       *logrus.Logger

	// Recorder, if set, receives a record of each finished match.
	Recorder ResultRecorder
}

// Game ties the room client, store, synchronizer, submission controller,
// hint scheduler and screen machine together. Screen transitions and renders
// triggered by user actions, poll results and the results timer run under mu,
// one step at a time. Timed hint reveals are the exception: they go straight
// from the scheduler's goroutine to the Renderer under the scheduler's own
// lock, which is why Renderer must be safe for concurrent use.
type Game struct {
	mu sync.Mutex

	api      RoomAPI
	view     Renderer
	store    *session.Store
	screens  *screen.Machine
	poller   *poller.Synchronizer
	hints    *hints.Scheduler
	submit   *submit.Controller
	recorder ResultRecorder
	log      *logrus.Entry

	resultsDelay time.Duration
	playerName   string
}

// New builds a Game on the Home screen.
func New(api RoomAPI, view Renderer, opts Options) *Game {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	hintInterval := opts.HintInterval
	if hintInterval <= 0 {
		hintInterval = DefaultHintInterval
	}
	resultsDelay := opts.ResultsDelay
	if resultsDelay <= 0 {
		resultsDelay = submit.DefaultResultsDelay
	}

	g := &Game{
		api:          api,
		view:         view,
		store:        session.NewStore(),
		screens:      screen.NewMachine(),
		recorder:     opts.Recorder,
		log:          logger.WithField("component", "game"),
		resultsDelay: resultsDelay,
	}
	g.screens.OnEnter = func(_, to screen.Screen) { g.view.ShowScreen(to) }
	// taking mu here would invert the mu -> hints lock order
	g.hints = hints.NewScheduler(hintInterval, func(_ string, index int, hint string) {
		g.view.ShowHint(index, hint)
	})
	g.poller = poller.New(api, g.store, opts.PollInterval, logger)
	g.poller.Visible = g.screens.Current
	g.poller.Emit = g.handleSyncEvent
	g.submit = submit.New(api, g.store, resultsDelay, logger)
	g.submit.OnResultsDue = func(epoch uint64) {
		g.enterResults(context.Background(), epoch)
	}
	return g
}

// Screen returns the visible screen.
func (g *Game) Screen() screen.Screen {
	return g.screens.Current()
}

// Session returns a copy of the local session, if one is open.
func (g *Game) Session() (session.State, bool) {
	return g.store.Current()
}

// Polling reports whether the synchronizer is running.
func (g *Game) Polling() bool {
	return g.poller.Running()
}

// OpenCreate moves from Home to the create-room form.
func (g *Game) OpenCreate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, err := g.screens.Transition(screen.Create)
	return err
}

// Back returns from the create-room form to Home.
func (g *Game) Back() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.screens.Is(screen.Create) {
		return screen.ErrInvalidTransition
	}
	_, err := g.screens.Transition(screen.Home)
	return err
}

// CreateRoom creates a room hosted by the local player and enters the lobby.
func (g *Game) CreateRoom(ctx context.Context, playerName string) error {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return g.fail(&roomclient.ValidationError{Field: "playerName", Message: "Please enter your name"})
	}
	res, err := g.api.CreateRoom(ctx, playerName)
	if err != nil {
		return g.fail(err)
	}
	return g.openSession(res, playerName)
}

// JoinRoom joins an existing room and enters the lobby.
func (g *Game) JoinRoom(ctx context.Context, code, playerName string) error {
	code = models.NormalizeCode(code)
	playerName = strings.TrimSpace(playerName)
	if code == "" || playerName == "" {
		return g.fail(&roomclient.ValidationError{Field: "code", Message: "Please enter your name and the room code"})
	}
	res, err := g.api.JoinRoom(ctx, code, playerName)
	if err != nil {
		return g.fail(err)
	}
	return g.openSession(res, playerName)
}

func (g *Game) openSession(res *models.JoinResult, playerName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// a previous session (if any) is torn down without telling the service
	g.teardownUnsafe()
	if cur := g.screens.Current(); cur != screen.Home && cur != screen.Create {
		_, _ = g.screens.Transition(screen.Home)
	}

	g.store.Open(res.Room.Code, res.PlayerID, res.Room)
	g.playerName = playerName
	if _, err := g.screens.Transition(screen.Lobby); err != nil {
		g.store.Close()
		return err
	}
	g.renderCurrentUnsafe()
	g.poller.Start()

	g.log.WithFields(logrus.Fields{
		"room":   res.Room.Code,
		"player": res.PlayerID,
	}).Info("joined room")
	return nil
}

// StartGame asks the service to start the match. Only the host may start.
func (g *Game) StartGame(ctx context.Context) error {
	st, ok := g.store.Current()
	if !ok {
		return g.fail(session.ErrNoSession)
	}
	if p, ok := st.LocalPlayer(); !ok || !p.IsHost {
		return g.fail(&roomclient.ValidationError{Field: "host", Message: "Only the host can start the game"})
	}

	g.view.ShowLoading("Generating questions...")
	snap, err := g.api.StartGame(ctx, st.RoomCode, st.PlayerID)
	g.view.HideLoading()
	if err != nil {
		return g.fail(err)
	}

	prev, err := g.store.Replace(st.Epoch, snap)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return nil
		}
		g.log.WithError(err).Warn("start response not applied")
		return nil
	}
	events := poller.Reconcile(prev, snap, g.screens.Current())
	for _, ev := range events {
		ev.Epoch = st.Epoch
		g.handleSyncEvent(ev)
	}
	return nil
}

// SubmitGuess submits the local player's answer for the current round.
func (g *Game) SubmitGuess(ctx context.Context, guess string) error {
	if !g.screens.Is(screen.Game) {
		return screen.ErrInvalidTransition
	}
	st, ok := g.store.Current()
	if !ok {
		return session.ErrNoSession
	}

	g.view.SetInputEnabled(false)
	out, err := g.submit.Submit(ctx, guess)
	switch {
	case errors.Is(err, submit.ErrInFlight), errors.Is(err, submit.ErrInputClosed):
		// rejected without a request; the UI already reflects the pending state
		return err
	case errors.Is(err, roomclient.ErrStaleResponse):
		return nil
	case err != nil:
		g.view.SetInputEnabled(true)
		return g.fail(err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.store.Valid(st.Epoch) {
		return nil
	}

	res := out.Result
	switch out.State {
	case submit.Incorrect:
		msg := res.Feedback
		if msg == "" {
			msg = "Not quite. Try again!"
		}
		g.view.Notify(NoticeWarning, msg)
		g.view.SetInputEnabled(true)

	case submit.Correct:
		g.view.ClearInput()
		g.renderScoresUnsafe()
		g.view.SetInputEnabled(false)
		g.view.SetNextQuestion(out.NextRound, true)
		g.view.Notify(NoticeSuccess, feedbackOr(res.Feedback, "Correct!"))

	case submit.Finished:
		g.view.ClearInput()
		g.view.SetInputEnabled(false)
		g.view.SetNextQuestion(0, false)
		g.hints.Cancel()
		g.renderScoresUnsafe()
		g.view.Notify(NoticeSuccess, feedbackOr(res.Feedback, "You finished all the questions!"))
		if out.AllFinished {
			g.view.Notify(NoticeInfo, "Everyone is done. Revealing results...")
		} else {
			g.view.Notify(NoticeInfo, "Waiting for the other players to finish...")
		}
	}
	return nil
}

// NextQuestion follows the "next question" affordance: re-fetches the room
// and shows the new round. It never submits a guess.
func (g *Game) NextQuestion(ctx context.Context) error {
	if _, err := g.submit.NextQuestion(ctx); err != nil {
		if errors.Is(err, roomclient.ErrStaleResponse) {
			return nil
		}
		if errors.Is(err, submit.ErrNotAwaitingNext) {
			return err
		}
		return g.fail(err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.screens.Is(screen.Game) {
		return nil
	}
	g.view.SetNextQuestion(0, false)
	g.renderGameUnsafe()
	g.view.SetInputEnabled(true)
	return nil
}

// Leave tears the session down, returns Home, and tells the service on a
// best-effort basis. A failed leave call never keeps the player in the room.
func (g *Game) Leave(ctx context.Context) error {
	st, ok := g.store.Current()

	g.mu.Lock()
	g.teardownUnsafe()
	if _, err := g.screens.Transition(screen.Home); err != nil {
		g.log.WithError(err).Debug("leave transition")
	}
	g.mu.Unlock()

	if !ok {
		return nil
	}
	if err := g.api.LeaveRoom(ctx, st.RoomCode, st.PlayerID); err != nil {
		g.log.WithError(err).WithField("room", st.RoomCode).Warn("leave room failed")
	}
	return nil
}

// NewGame returns from the results screen to Home.
func (g *Game) NewGame() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.screens.Is(screen.Result) {
		return screen.ErrInvalidTransition
	}
	g.teardownUnsafe()
	_, err := g.screens.Transition(screen.Home)
	return err
}

// Close stops every timer. The session is dropped without contacting the service.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teardownUnsafe()
}

// Health reports the service status as a notice.
func (g *Game) Health(ctx context.Context) (*models.Health, error) {
	h, err := g.api.Health(ctx)
	if err != nil {
		return nil, g.fail(err)
	}
	engine := h.EngineStatus()
	if engine == "" {
		engine = "unknown"
	}
	g.view.Notify(NoticeInfo, "Server: "+h.Status+", AI engine: "+engine)
	return h, nil
}

// teardownUnsafe stops polling and timers and destroys the session. Assumes mu is held.
func (g *Game) teardownUnsafe() {
	g.poller.Stop()
	g.hints.Cancel()
	g.submit.Reset()
	g.store.Close()
	g.playerName = ""
	g.view.HideLoading()
	g.view.SetNextQuestion(0, false)
	g.view.ClearHints()
}

// handleSyncEvent applies one synchronizer event. Events from a session that
// has since been closed are dropped.
func (g *Game) handleSyncEvent(ev poller.Event) {
	if ev.Type == poller.EventEnterResults {
		g.enterResults(context.Background(), ev.Epoch)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.store.Valid(ev.Epoch) {
		return
	}

	switch ev.Type {
	case poller.EventLoadingShow:
		msg := ev.Message
		if msg == "" {
			msg = "Loading..."
		}
		g.view.ShowLoading(msg)
	case poller.EventLoadingHide:
		g.view.HideLoading()
	case poller.EventEnterGame:
		changed, err := g.screens.Transition(screen.Game)
		if err != nil {
			g.log.WithError(err).Warn("cannot enter game")
			return
		}
		if changed {
			g.submit.Reset()
			g.view.SetNextQuestion(0, false)
			g.renderGameUnsafe()
			g.view.SetInputEnabled(true)
		}
	case poller.EventRefresh:
		g.renderCurrentUnsafe()
	}
}

// enterResults shows the results screen once per session, then loads the
// final leaderboard.
func (g *Game) enterResults(ctx context.Context, epoch uint64) {
	g.mu.Lock()
	if !g.store.Valid(epoch) {
		g.mu.Unlock()
		return
	}
	changed, err := g.screens.Transition(screen.Result)
	if err != nil || !changed {
		g.mu.Unlock()
		return
	}
	g.poller.Stop()
	g.hints.Cancel()
	g.submit.Reset()
	g.view.HideLoading()
	g.view.SetInputEnabled(false)
	g.view.SetNextQuestion(0, false)

	st, _ := g.store.Current()
	g.view.RenderResults(viewmodel.Result(st.Snapshot, nil, st.PlayerID))
	playerName := g.playerName
	g.mu.Unlock()

	entries, err := g.api.FetchLeaderboard(ctx, st.RoomCode)
	if err != nil {
		g.log.WithError(err).WithField("room", st.RoomCode).Warn("final leaderboard unavailable, using last snapshot")
		entries = entriesFromSnapshot(st.Snapshot)
	}

	g.mu.Lock()
	if !g.store.Valid(epoch) || !g.screens.Is(screen.Result) {
		g.mu.Unlock()
		return
	}
	g.view.RenderResults(viewmodel.Result(st.Snapshot, entries, st.PlayerID))
	g.mu.Unlock()

	g.recordMatch(ctx, st, playerName, entries)
}

func (g *Game) recordMatch(ctx context.Context, st session.State, playerName string, entries []models.LeaderboardEntry) {
	if g.recorder == nil {
		return
	}
	rec := models.MatchRecord{
		ID:          uuid.New(),
		RoomCode:    st.RoomCode,
		PlayerID:    st.PlayerID,
		PlayerName:  playerName,
		Leaderboard: entries,
		FinishedAt:  time.Now().UnixMilli(),
	}
	if st.Snapshot != nil {
		rec.Article = st.Snapshot.Article
	}
	if err := g.recorder.RecordMatch(ctx, rec); err != nil {
		g.log.WithError(err).WithField("room", st.RoomCode).Warn("failed to record match")
	}
}

// renderCurrentUnsafe re-renders the visible screen. Assumes mu is held.
func (g *Game) renderCurrentUnsafe() {
	switch g.screens.Current() {
	case screen.Lobby:
		st, ok := g.store.Current()
		if !ok {
			return
		}
		g.view.RenderLobby(viewmodel.Lobby(st.Snapshot, st.PlayerID))
	case screen.Game:
		g.renderGameUnsafe()
	}
}

// renderGameUnsafe renders the local player's question area and scoreboard.
// While the player must choose "next question", or has finished, only the
// scoreboard is refreshed. Assumes mu is held.
func (g *Game) renderGameUnsafe() {
	st, ok := g.store.Current()
	if !ok {
		return
	}
	g.renderScoresUnsafe()

	switch g.submit.State() {
	case submit.Correct, submit.Finished:
		return
	}

	v := viewmodel.Game(st.Snapshot, st.PlayerID)
	g.view.RenderGame(v)
	if v.Finished {
		g.hints.Cancel()
		g.view.SetInputEnabled(false)
		return
	}

	key := viewmodel.QuestionKey(st.Snapshot, st.PlayerID)
	if key == g.hints.Key() {
		return
	}
	g.view.ClearHints()
	if key == "" {
		g.hints.Cancel()
		return
	}
	g.hints.Load(key, st.Snapshot.CurrentQuestion.Hints)
}

func (g *Game) renderScoresUnsafe() {
	st, ok := g.store.Current()
	if !ok {
		return
	}
	g.view.RenderScores(viewmodel.LiveScores(st.Snapshot, st.PlayerID))
}

// fail surfaces err as a transient notice and returns it.
func (g *Game) fail(err error) error {
	if err == nil || errors.Is(err, roomclient.ErrStaleResponse) {
		return err
	}
	g.view.Notify(NoticeError, roomclient.UserMessage(err))
	return err
}

func feedbackOr(feedback, fallback string) string {
	if strings.TrimSpace(feedback) == "" {
		return fallback
	}
	return feedback
}

func entriesFromSnapshot(snap *models.RoomSnapshot) []models.LeaderboardEntry {
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
	return entries
}
