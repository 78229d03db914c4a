// internal/hints/scheduler_test.go
package hints

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type revealLog struct {
	mu   sync.Mutex
	keys []string
	hint []string
}

func (r *revealLog) record(key string, _ int, hint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	r.hint = append(r.hint, hint)
}

func (r *revealLog) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...), append([]string(nil), r.hint...)
}

func TestFirstHintIsImmediate(t *testing.T) {
	log := &revealLog{}
	s := NewScheduler(time.Hour, log.record)

	require.True(t, s.Load("1:q", []string{"a", "b", "c"}))
	_, hints := log.snapshot()
	assert.Equal(t, []string{"a"}, hints)
	assert.Equal(t, []string{"a"}, s.Revealed())
	s.Cancel()
}

func TestHintsRevealInOrder(t *testing.T) {
	log := &revealLog{}
	s := NewScheduler(10*time.Millisecond, log.record)
	s.Load("1:q", []string{"a", "b", "c"})

	require.Eventually(t, func() bool {
		_, hints := log.snapshot()
		return len(hints) == 3
	}, time.Second, 5*time.Millisecond)

	_, hints := log.snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, hints)

	// nothing past the last hint
	time.Sleep(30 * time.Millisecond)
	_, hints = log.snapshot()
	assert.Len(t, hints, 3)
}

func TestLoadingNewQuestionCancelsOldChain(t *testing.T) {
	log := &revealLog{}
	s := NewScheduler(20*time.Millisecond, log.record)

	s.Load("1:first", []string{"a1", "a2", "a3"})
	s.Load("2:second", []string{"b1", "b2"})

	require.Eventually(t, func() bool {
		_, hints := log.snapshot()
		return len(hints) == 3
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	keys, hints := log.snapshot()
	assert.Equal(t, []string{"a1", "b1", "b2"}, hints)
	for _, k := range keys[1:] {
		assert.Equal(t, "2:second", k)
	}
	assert.Equal(t, "2:second", s.Key())
}

func TestSameKeyIsNoop(t *testing.T) {
	log := &revealLog{}
	s := NewScheduler(time.Hour, log.record)

	require.True(t, s.Load("1:q", []string{"a", "b"}))
	assert.False(t, s.Load("1:q", []string{"a", "b"}))

	_, hints := log.snapshot()
	assert.Equal(t, []string{"a"}, hints)
	s.Cancel()
}

func TestCancelStopsReveals(t *testing.T) {
	log := &revealLog{}
	s := NewScheduler(10*time.Millisecond, log.record)
	s.Load("1:q", []string{"a", "b", "c"})
	s.Cancel()

	time.Sleep(50 * time.Millisecond)
	_, hints := log.snapshot()
	assert.Equal(t, []string{"a"}, hints)
	assert.Empty(t, s.Key())
	assert.Empty(t, s.Revealed())
}

func TestEmptyHintList(t *testing.T) {
	log := &revealLog{}
	s := NewScheduler(time.Millisecond, log.record)
	assert.True(t, s.Load("1:q", nil))
	_, hints := log.snapshot()
	assert.Empty(t, hints)
}
