// internal/poller/synchronizer.go
package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jason-s-yu/newsquiz/internal/models"
	"github.com/jason-s-yu/newsquiz/internal/roomclient"
	"github.com/jason-s-yu/newsquiz/internal/screen"
	"github.com/jason-s-yu/newsquiz/internal/session"
	"github.com/sirupsen/logrus"
)

// DefaultInterval is the steady-state polling period.
const DefaultInterval = 2 * time.Second

// ErrBusy is returned by Tick when a fetch is already outstanding.
var ErrBusy = errors.New("room fetch already in flight")

// Fetcher fetches one room snapshot.
type Fetcher interface {
	FetchRoom(ctx context.Context, code string) (*models.RoomSnapshot, error)
}

// Synchronizer is the steady-state polling loop. It keeps a single repeating
// timer, never has more than one fetch outstanding, and reconciles each
// successful fetch into the store.
type Synchronizer struct {
	fetcher  Fetcher
	store    *session.Store
	interval time.Duration
	log      *logrus.Entry

	// Visible reports the visible screen. Defaults to Home.
	Visible func() screen.Screen

	// Emit receives reconciliation events in order, from the polling goroutine.
	Emit func(Event)

	mu       sync.Mutex
	running  bool
	gen      uint64 // bumps on Start/Stop; results from older generations are discarded
	cancel   context.CancelFunc
	inFlight atomic.Bool
}

// New builds a stopped synchronizer.
func New(fetcher Fetcher, store *session.Store, interval time.Duration, logger *logrus.Logger) *Synchronizer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Synchronizer{
		fetcher:  fetcher,
		store:    store,
		interval: interval,
		log:      logger.WithField("component", "poller"),
	}
}

// Start begins polling. Calling Start on a running synchronizer does nothing.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.gen++
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.loop(ctx, s.gen)
}

// Stop cancels the timer. An outstanding fetch may complete, but its result
// is discarded. Stop never blocks, so it is safe to call from Emit.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopUnsafe()
}

func (s *Synchronizer) stopUnsafe() {
	if !s.running {
		return
	}
	s.running = false
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Running reports whether the loop is active.
func (s *Synchronizer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tick performs one poll outside the timer, e.g. right after a user action.
// It is subject to the same single in-flight rule as timer ticks.
func (s *Synchronizer) Tick(ctx context.Context) error {
	s.mu.Lock()
	gen, running := s.gen, s.running
	s.mu.Unlock()
	if !running {
		return roomclient.ErrStaleResponse
	}
	return s.poll(ctx, gen)
}

func (s *Synchronizer) loop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.poll(ctx, gen)
			if err != nil && !errors.Is(err, roomclient.ErrStaleResponse) && !errors.Is(err, ErrBusy) && !errors.Is(err, session.ErrRegression) {
				// steady-state failures are never surfaced; keep polling
				s.log.WithError(err).Warn("room poll failed")
			}
		}
	}
}

func (s *Synchronizer) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.gen == gen
}

// poll fetches once and applies the result.
func (s *Synchronizer) poll(ctx context.Context, gen uint64) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.inFlight.Store(false)

	st, ok := s.store.Current()
	if !ok {
		return roomclient.ErrStaleResponse
	}

	next, err := s.fetcher.FetchRoom(ctx, st.RoomCode)
	if !s.current(gen) {
		// stopped while the fetch was outstanding
		return roomclient.ErrStaleResponse
	}
	if err != nil {
		return err
	}

	prev, err := s.store.Replace(st.Epoch, next)
	switch {
	case errors.Is(err, session.ErrNoSession):
		return roomclient.ErrStaleResponse
	case errors.Is(err, session.ErrRegression):
		s.log.WithFields(logrus.Fields{
			"room":     st.RoomCode,
			"status":   next.Status,
			"previous": statusOf(prev),
		}).Warn("discarding regressive room snapshot")
		return err
	case err != nil:
		return err
	}

	visible := screen.Home
	if s.Visible != nil {
		visible = s.Visible()
	}
	events := Reconcile(prev, next, visible)

	for _, ev := range events {
		if ev.Type == EventEnterResults {
			s.mu.Lock()
			if s.gen == gen {
				s.stopUnsafe()
			}
			s.mu.Unlock()
		}
	}

	if s.Emit != nil {
		for _, ev := range events {
			ev.Epoch = st.Epoch
			s.Emit(ev)
		}
	}
	return nil
}

func statusOf(snap *models.RoomSnapshot) models.Status {
	if snap == nil {
		return ""
	}
	return snap.Status
}
