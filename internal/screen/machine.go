// internal/screen/machine.go
package screen

import (
	"errors"
	"fmt"
	"sync"
)

// Screen is one of the mutually exclusive visible screens.
type Screen int

const (
	Home Screen = iota
	Create
	Lobby
	Game
	Result
)

func (s Screen) String() string {
	switch s {
	case Home:
		return "home"
	case Create:
		return "create"
	case Lobby:
		return "lobby"
	case Game:
		return "game"
	case Result:
		return "result"
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

// ErrInvalidTransition is returned for a transition the machine does not allow.
var ErrInvalidTransition = errors.New("invalid screen transition")

// allowed lists legal transitions. Home is reachable from anywhere (leave / new game).
var allowed = map[Screen][]Screen{
	Home:   {Create, Lobby},
	Create: {Lobby, Home},
	Lobby:  {Game, Result, Home},
	Game:   {Result, Home},
	Result: {Home},
}

// Machine tracks which screen is visible. Exactly one screen is visible at a time.
type Machine struct {
	mu      sync.Mutex
	current Screen

	// OnEnter is invoked after a successful transition, outside the lock.
	OnEnter func(from, to Screen)
}

// NewMachine starts on Home.
func NewMachine() *Machine {
	return &Machine{current: Home}
}

// Current returns the visible screen.
func (m *Machine) Current() Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Is reports whether s is the visible screen.
func (m *Machine) Is(s Screen) bool {
	return m.Current() == s
}

// Transition moves to the given screen. Transitioning to the visible screen
// is a no-op and reports changed=false.
func (m *Machine) Transition(to Screen) (changed bool, err error) {
	m.mu.Lock()
	from := m.current
	if from == to {
		m.mu.Unlock()
		return false, nil
	}
	if !canTransition(from, to) {
		m.mu.Unlock()
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.current = to
	onEnter := m.OnEnter
	m.mu.Unlock()

	if onEnter != nil {
		onEnter(from, to)
	}
	return true, nil
}

func canTransition(from, to Screen) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
