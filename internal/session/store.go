// internal/session/store.go
package session

import (
	"errors"
	"sync"

	"github.com/jason-s-yu/newsquiz/internal/models"
)

var (
	// ErrNoSession is returned when no room is open, or when the epoch a
	// writer captured no longer matches the open session.
	ErrNoSession = errors.New("no active room session")

	// ErrRegression is returned for a snapshot that would move status or the
	// local player's round backwards, or that belongs to another room.
	ErrRegression = errors.New("snapshot regresses room state")
)

// State is the client-only view of the local player's session. It is never
// sent to the service.
type State struct {
	RoomCode     string
	PlayerID     string
	Snapshot     *models.RoomSnapshot
	IsSubmitting bool

	// Epoch identifies this session. Writers capture it before an async call
	// and present it on write so responses from a torn-down session are dropped.
	Epoch uint64
}

// LocalPlayer returns the local player's entry in the current snapshot.
func (s State) LocalPlayer() (models.Player, bool) {
	return s.Snapshot.Player(s.PlayerID)
}

// Store owns the current room snapshot and local session state. It is the only
// place they live; readers always go through it.
type Store struct {
	mu      sync.Mutex
	current *State
	epoch   uint64
}

// NewStore returns an empty store with no open session.
func NewStore() *Store {
	return &Store{}
}

// Open starts a new session after a successful create/join and returns its epoch.
// Any previous session is discarded.
func (s *Store) Open(code, playerID string, snap *models.RoomSnapshot) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.current = &State{
		RoomCode: models.NormalizeCode(code),
		PlayerID: playerID,
		Snapshot: snap,
		Epoch:    s.epoch,
	}
	return s.epoch
}

// Close destroys the session. Later writes carrying its epoch fail.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.current = nil
}

// Current returns a copy of the session state.
func (s *Store) Current() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return State{}, false
	}
	return *s.current, true
}

// Snapshot returns the current snapshot, or nil if no session is open.
func (s *Store) Snapshot() *models.RoomSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.Snapshot
}

// Valid reports whether epoch still identifies the open session.
func (s *Store) Valid(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validUnsafe(epoch)
}

func (s *Store) validUnsafe(epoch uint64) bool {
	return s.current != nil && s.current.Epoch == epoch
}

// Replace swaps in next as the current snapshot (last write wins) and returns
// the snapshot it replaced. Snapshots for another room, with a status earlier
// than the current one, or that move the local player back a round are
// rejected with ErrRegression.
func (s *Store) Replace(epoch uint64, next *models.RoomSnapshot) (*models.RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validUnsafe(epoch) {
		return nil, ErrNoSession
	}
	prev := s.current.Snapshot
	if next == nil {
		return prev, ErrRegression
	}
	if models.NormalizeCode(next.Code) != s.current.RoomCode {
		return prev, ErrRegression
	}
	if prev != nil && next.Status.Rank() < prev.Status.Rank() {
		return prev, ErrRegression
	}
	if localRegressed(prev, next, s.current.PlayerID) {
		return prev, ErrRegression
	}
	s.current.Snapshot = next
	return prev, nil
}

// localRegressed reports whether next puts the local player on an earlier
// round than prev while the room status is unchanged. A fetch that left before
// a correct guess landed looks like this. Services that do not report
// per-player rounds send 0, which is never treated as a regression.
func localRegressed(prev, next *models.RoomSnapshot, playerID string) bool {
	if prev == nil || next.Status != prev.Status {
		return false
	}
	was, ok := prev.Player(playerID)
	if !ok {
		return false
	}
	now, ok := next.Player(playerID)
	if !ok || now.CurrentRound == 0 {
		return false
	}
	return now.CurrentRound < was.CurrentRound
}

// UpdateLocalPlayer applies fn to a copy of the local player's entry and
// stores the resulting snapshot copy. The previous snapshot is left untouched.
func (s *Store) UpdateLocalPlayer(epoch uint64, fn func(p *models.Player)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validUnsafe(epoch) {
		return ErrNoSession
	}
	snap := s.current.Snapshot.Clone()
	if snap == nil {
		return ErrNoSession
	}
	for i := range snap.Players {
		if snap.Players[i].ID == s.current.PlayerID {
			fn(&snap.Players[i])
			s.current.Snapshot = snap
			return nil
		}
	}
	return ErrNoSession
}

// TryBeginSubmit sets the in-flight guess flag. It returns false if a guess is
// already in flight or the session is gone.
func (s *Store) TryBeginSubmit(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validUnsafe(epoch) || s.current.IsSubmitting {
		return false
	}
	s.current.IsSubmitting = true
	return true
}

// EndSubmit clears the in-flight guess flag if the session is still open.
func (s *Store) EndSubmit(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.validUnsafe(epoch) {
		s.current.IsSubmitting = false
	}
}
