// internal/screen/machine_test.go
package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineFlow(t *testing.T) {
	m := NewMachine()
	var entered []Screen
	m.OnEnter = func(_, to Screen) { entered = append(entered, to) }

	assert.Equal(t, Home, m.Current())
	for _, to := range []Screen{Create, Lobby, Game, Result, Home} {
		changed, err := m.Transition(to)
		require.NoError(t, err)
		assert.True(t, changed)
	}
	assert.Equal(t, []Screen{Create, Lobby, Game, Result, Home}, entered)
}

func TestTransitionToSameScreenIsNoop(t *testing.T) {
	m := NewMachine()
	calls := 0
	m.OnEnter = func(_, _ Screen) { calls++ }

	_, err := m.Transition(Lobby)
	require.NoError(t, err)
	changed, err := m.Transition(Lobby)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, calls)
}

func TestInvalidTransitions(t *testing.T) {
	cases := []struct {
		from, to Screen
	}{
		{Home, Game},
		{Home, Result},
		{Create, Game},
		{Result, Lobby},
		{Game, Lobby},
	}
	for _, tc := range cases {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			m := &Machine{current: tc.from}
			changed, err := m.Transition(tc.to)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.False(t, changed)
			assert.True(t, m.Is(tc.from))
		})
	}
}

func TestLobbyCanJumpToResult(t *testing.T) {
	// a room that finished while the lobby was visible
	m := &Machine{current: Lobby}
	_, err := m.Transition(Result)
	require.NoError(t, err)
	assert.True(t, m.Is(Result))
}
