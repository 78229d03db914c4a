// internal/hints/scheduler.go
package hints

import (
	"sync"
	"time"
)

// RevealFunc is called for every hint shown. It runs with the scheduler lock
// held so that a cancel can never race a reveal; it must not call back into
// the Scheduler.
type RevealFunc func(key string, index int, hint string)

// Scheduler reveals a question's hints one at a time: hint 0 immediately,
// then each following hint Interval after the previous one.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration
	onReveal RevealFunc

	key      string
	hints    []string
	next     int    // index of the next hint to reveal
	gen      uint64 // bumps on every Load/Cancel; timers from older generations are ignored
	timer    *time.Timer
	revealed []string
}

// NewScheduler builds a scheduler with the given reveal interval.
func NewScheduler(interval time.Duration, onReveal RevealFunc) *Scheduler {
	if onReveal == nil {
		onReveal = func(string, int, string) {}
	}
	return &Scheduler{interval: interval, onReveal: onReveal}
}

// Load starts revealing hints for the question identified by key. Any reveal
// chain for a previous question is cancelled first. Loading the key that is
// already active is a no-op and returns false.
func (s *Scheduler) Load(key string, hints []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == s.key && s.hints != nil {
		return false
	}
	s.cancelUnsafe()
	s.key = key
	s.hints = append([]string{}, hints...)
	s.revealNextUnsafe(s.gen)
	return true
}

// Cancel stops the current chain and resets the index. No hint from the
// cancelled question is revealed afterwards, even if its timer already fired.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelUnsafe()
}

// Key returns the key of the active question, or "" if none.
func (s *Scheduler) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Revealed returns the hints shown so far for the active question.
func (s *Scheduler) Revealed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.revealed...)
}

// cancelUnsafe assumes lock is held.
func (s *Scheduler) cancelUnsafe() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.key = ""
	s.hints = nil
	s.next = 0
	s.revealed = nil
}

// revealNextUnsafe shows the next hint and schedules the one after it.
// Assumes lock is held.
func (s *Scheduler) revealNextUnsafe(gen uint64) {
	if gen != s.gen || s.next >= len(s.hints) {
		return
	}
	idx := s.next
	hint := s.hints[idx]
	s.next++
	s.revealed = append(s.revealed, hint)
	s.onReveal(s.key, idx, hint)

	if s.next >= len(s.hints) {
		s.timer = nil
		return
	}
	s.timer = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// a stale timer from a cancelled question must not reveal anything
		s.revealNextUnsafe(gen)
	})
}
