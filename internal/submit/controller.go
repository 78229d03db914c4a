// internal/submit/controller.go
package submit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/newsquiz/internal/models"
	"github.com/jason-s-yu/newsquiz/internal/roomclient"
	"github.com/jason-s-yu/newsquiz/internal/session"
	"github.com/sirupsen/logrus"
)

// DefaultResultsDelay is the grace period between everyone finishing and the results screen.
const DefaultResultsDelay = 3 * time.Second

var (
	// ErrInFlight rejects a guess while another one is outstanding.
	ErrInFlight = errors.New("a guess is already being submitted")
	// ErrInputClosed rejects a guess while the player must move on or has finished.
	ErrInputClosed = errors.New("answer input is closed")
	// ErrNotAwaitingNext is returned by NextQuestion when no correct answer is pending.
	ErrNotAwaitingNext = errors.New("no next question pending")
)

// State is the controller's position in one question attempt.
type State int

const (
	Idle State = iota
	Submitting
	Incorrect
	Correct  // answered correctly; waiting for the player to ask for the next question
	Finished // answered the last round; input stays closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Incorrect:
		return "incorrect"
	case Correct:
		return "correct"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// API is the part of the room service the controller talks to. RefreshRoom
// must issue a new request: a snapshot taken before the guess was accepted
// would show the old round.
type API interface {
	SubmitGuess(ctx context.Context, code, playerID, guess string) (*models.GuessResult, error)
	RefreshRoom(ctx context.Context, code string) (*models.RoomSnapshot, error)
}

// Outcome describes a completed guess.
type Outcome struct {
	Result      *models.GuessResult
	State       State
	NextRound   int
	AllFinished bool // set only when State is Finished
}

// Controller executes guess attempts against the current question. At most
// one guess is in flight at a time.
type Controller struct {
	api          API
	store        *session.Store
	resultsDelay time.Duration
	log          *logrus.Entry

	// OnResultsDue is called once, ResultsDelay after the local player finished
	// and every player is done. It runs on a timer goroutine.
	OnResultsDue func(epoch uint64)

	mu        sync.Mutex
	state     State
	nextRound int
	gen       uint64
	timer     *time.Timer
}

// New builds an idle controller.
func New(api API, store *session.Store, resultsDelay time.Duration, logger *logrus.Logger) *Controller {
	if resultsDelay <= 0 {
		resultsDelay = DefaultResultsDelay
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Controller{
		api:          api,
		store:        store,
		resultsDelay: resultsDelay,
		log:          logger.WithField("component", "submit"),
	}
}

// State returns the current attempt state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// AwaitingNext reports whether the "next question" affordance is active.
func (c *Controller) AwaitingNext() bool {
	return c.State() == Correct
}

// NextRound is the round the "next question" affordance is bound to.
func (c *Controller) NextRound() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextRound
}

// Reset returns the controller to Idle and cancels a pending results timer.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = Idle
	c.nextRound = 0
}

// Submit sends one guess. Empty guesses and guesses made while another is in
// flight are rejected without a request. A transport or service failure leaves
// the controller Idle, as if the attempt never happened.
func (c *Controller) Submit(ctx context.Context, guess string) (Outcome, error) {
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return Outcome{}, &roomclient.ValidationError{Field: "guess", Message: "Please enter an answer"}
	}
	st, ok := c.store.Current()
	if !ok {
		return Outcome{}, session.ErrNoSession
	}

	c.mu.Lock()
	switch c.state {
	case Submitting:
		c.mu.Unlock()
		return Outcome{}, ErrInFlight
	case Correct, Finished:
		c.mu.Unlock()
		return Outcome{}, ErrInputClosed
	}
	if !c.store.TryBeginSubmit(st.Epoch) {
		c.mu.Unlock()
		return Outcome{}, ErrInFlight
	}
	c.state = Submitting
	gen := c.gen
	c.mu.Unlock()

	res, err := c.api.SubmitGuess(ctx, st.RoomCode, st.PlayerID, guess)
	c.store.EndSubmit(st.Epoch)

	c.mu.Lock()
	stale := gen != c.gen || !c.store.Valid(st.Epoch)
	if stale {
		c.mu.Unlock()
		return Outcome{}, roomclient.ErrStaleResponse
	}
	if err != nil {
		c.state = Idle
		c.mu.Unlock()
		return Outcome{}, err
	}
	if !res.Correct {
		c.state = Incorrect
		c.mu.Unlock()
		return Outcome{Result: res, State: Incorrect}, nil
	}
	if res.Finished {
		c.state = Finished
	} else {
		c.state = Correct
		c.nextRound = res.NextRound
	}
	c.mu.Unlock()

	if err := c.store.UpdateLocalPlayer(st.Epoch, func(p *models.Player) {
		p.Score = res.Score
		if res.Finished {
			p.HasFinished = true
		} else if res.NextRound > p.CurrentRound {
			p.CurrentRound = res.NextRound
		}
	}); err != nil {
		c.log.WithError(err).Debug("local player missing from snapshot")
	}

	if !res.Finished {
		return Outcome{Result: res, State: Correct, NextRound: res.NextRound}, nil
	}

	all := c.checkAllFinished(ctx, st)
	if all {
		c.scheduleResults(st.Epoch, gen)
	}
	return Outcome{Result: res, State: Finished, AllFinished: all}, nil
}

// checkAllFinished queries the room once after the local player finished.
// A failed query counts as "not all finished"; polling will catch up.
func (c *Controller) checkAllFinished(ctx context.Context, st session.State) bool {
	snap, err := c.api.RefreshRoom(ctx, st.RoomCode)
	if err != nil {
		c.log.WithError(err).WithField("room", st.RoomCode).Warn("could not check whether all players finished")
		return false
	}
	if _, err := c.store.Replace(st.Epoch, snap); err != nil {
		c.log.WithError(err).Debug("finished-check snapshot not applied")
	}
	return snap.Status == models.StatusFinished || snap.AllFinished()
}

func (c *Controller) scheduleResults(epoch, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.resultsDelay, func() {
		c.mu.Lock()
		current := gen == c.gen
		c.timer = nil
		cb := c.OnResultsDue
		c.mu.Unlock()
		if current && cb != nil && c.store.Valid(epoch) {
			cb(epoch)
		}
	})
}

// NextQuestion re-fetches the room after a correct answer so the question
// area can show the next round. It does not submit anything. On failure the
// affordance stays active so the player can try again.
func (c *Controller) NextQuestion(ctx context.Context) (*models.RoomSnapshot, error) {
	st, ok := c.store.Current()
	if !ok {
		return nil, session.ErrNoSession
	}
	c.mu.Lock()
	if c.state != Correct {
		c.mu.Unlock()
		return nil, ErrNotAwaitingNext
	}
	round := c.nextRound
	gen := c.gen
	c.mu.Unlock()

	snap, err := c.api.RefreshRoom(ctx, st.RoomCode)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || !c.store.Valid(st.Epoch) {
		return nil, roomclient.ErrStaleResponse
	}
	if _, err := c.store.Replace(st.Epoch, snap); err != nil {
		c.log.WithError(err).Debug("next-question snapshot not applied")
	}
	// the service may not have advanced the player yet; never show an older round
	if err := c.store.UpdateLocalPlayer(st.Epoch, func(p *models.Player) {
		if p.CurrentRound < round {
			p.CurrentRound = round
		}
	}); err != nil {
		c.log.WithError(err).Debug("local player missing from snapshot")
	}
	c.state = Idle
	c.nextRound = 0
	return c.store.Snapshot(), nil
}
