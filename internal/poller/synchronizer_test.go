// internal/poller/synchronizer_test.go
package poller

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jason-s-yu/newsquiz/internal/models"
	"github.com/jason-s-yu/newsquiz/internal/roomclient"
	"github.com/jason-s-yu/newsquiz/internal/screen"
	"github.com/jason-s-yu/newsquiz/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher returns queued results; when gate is set, each fetch waits on it.
type fakeFetcher struct {
	mu      sync.Mutex
	results []*models.RoomSnapshot
	err     error
	gate    chan struct{}
	started chan struct{}
	calls   atomic.Int32
}

func (f *fakeFetcher) FetchRoom(ctx context.Context, code string) (*models.RoomSnapshot, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return nil, errors.New("no result queued")
	}
	next := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return next, nil
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) emit(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return types(l.events)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

func newTestSync(t *testing.T, f *fakeFetcher, visible screen.Screen) (*Synchronizer, *session.Store, uint64, *eventLog) {
	t.Helper()
	store := session.NewStore()
	epoch := store.Open("ABC123", "p1", snapWith(models.StatusLobby, false))
	s := New(f, store, time.Hour, quietLogger())
	log := &eventLog{}
	s.Visible = func() screen.Screen { return visible }
	s.Emit = log.emit
	t.Cleanup(s.Stop)
	return s, store, epoch, log
}

func TestTickAppliesSnapshot(t *testing.T) {
	next := snapWith(models.StatusPlaying, false)
	f := &fakeFetcher{results: []*models.RoomSnapshot{next}}
	s, store, epoch, log := newTestSync(t, f, screen.Lobby)
	s.Start()

	require.NoError(t, s.Tick(context.Background()))
	assert.Same(t, next, store.Snapshot())
	assert.Equal(t, []EventType{EventEnterGame}, log.types())
	assert.Equal(t, epoch, log.events[0].Epoch)
}

func TestTickRequiresRunning(t *testing.T) {
	f := &fakeFetcher{results: []*models.RoomSnapshot{snapWith(models.StatusLobby, false)}}
	s, _, _, _ := newTestSync(t, f, screen.Lobby)

	assert.ErrorIs(t, s.Tick(context.Background()), roomclient.ErrStaleResponse)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestSingleFetchInFlight(t *testing.T) {
	f := &fakeFetcher{
		results: []*models.RoomSnapshot{snapWith(models.StatusLobby, false)},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	s, _, _, _ := newTestSync(t, f, screen.Lobby)
	s.Start()

	done := make(chan error, 1)
	go func() { done <- s.Tick(context.Background()) }()
	<-f.started

	assert.ErrorIs(t, s.Tick(context.Background()), ErrBusy)
	close(f.gate)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestFetchFailureLeavesSnapshot(t *testing.T) {
	f := &fakeFetcher{err: &roomclient.TransportError{Op: "fetch room", Err: errors.New("refused")}}
	s, store, _, log := newTestSync(t, f, screen.Lobby)
	before := store.Snapshot()
	s.Start()

	err := s.Tick(context.Background())
	var te *roomclient.TransportError
	assert.ErrorAs(t, err, &te)
	assert.Same(t, before, store.Snapshot())
	assert.Empty(t, log.types())
	assert.True(t, s.Running())
}

func TestStopDiscardsOutstandingFetch(t *testing.T) {
	f := &fakeFetcher{
		results: []*models.RoomSnapshot{snapWith(models.StatusPlaying, false)},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	s, store, _, log := newTestSync(t, f, screen.Lobby)
	s.Start()

	done := make(chan error, 1)
	go func() { done <- s.Tick(context.Background()) }()
	<-f.started

	s.Stop()
	store.Close()
	close(f.gate)

	assert.ErrorIs(t, <-done, roomclient.ErrStaleResponse)
	assert.Empty(t, log.types())
	assert.False(t, s.Running())
	assert.Nil(t, store.Snapshot())
}

func TestClosedSessionDiscardsFetch(t *testing.T) {
	f := &fakeFetcher{
		results: []*models.RoomSnapshot{snapWith(models.StatusPlaying, false)},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	s, store, _, log := newTestSync(t, f, screen.Lobby)
	s.Start()

	done := make(chan error, 1)
	go func() { done <- s.Tick(context.Background()) }()
	<-f.started

	// the player left and joined another room while the fetch was outstanding
	store.Open("XYZ999", "p9", snapWith(models.StatusLobby, false))
	close(f.gate)

	assert.ErrorIs(t, <-done, roomclient.ErrStaleResponse)
	assert.Empty(t, log.types())
	assert.Equal(t, models.StatusLobby, store.Snapshot().Status)
}

func TestRegressiveSnapshotIgnored(t *testing.T) {
	playing := snapWith(models.StatusPlaying, false)
	f := &fakeFetcher{results: []*models.RoomSnapshot{playing, snapWith(models.StatusLobby, false)}}
	s, store, _, log := newTestSync(t, f, screen.Game)
	s.Start()

	require.NoError(t, s.Tick(context.Background()))
	assert.ErrorIs(t, s.Tick(context.Background()), session.ErrRegression)
	assert.Same(t, playing, store.Snapshot())
	assert.Equal(t, []EventType{EventRefresh}, log.types())
}

func TestFinishedStopsPolling(t *testing.T) {
	f := &fakeFetcher{results: []*models.RoomSnapshot{snapWith(models.StatusFinished, false)}}
	s, _, _, log := newTestSync(t, f, screen.Game)
	s.Start()

	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []EventType{EventLoadingHide, EventEnterResults}, log.types())
	assert.False(t, s.Running())
	assert.ErrorIs(t, s.Tick(context.Background()), roomclient.ErrStaleResponse)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestLoopPollsOnInterval(t *testing.T) {
	f := &fakeFetcher{results: []*models.RoomSnapshot{snapWith(models.StatusLobby, false)}}
	store := session.NewStore()
	store.Open("ABC123", "p1", snapWith(models.StatusLobby, false))
	s := New(f, store, 10*time.Millisecond, quietLogger())
	s.Start()
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return f.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
	n := f.calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.LessOrEqual(t, f.calls.Load(), n+1)
}
