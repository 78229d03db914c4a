// internal/poller/reconcile.go
package poller

import (
	"github.com/jason-s-yu/newsquiz/internal/models"
	"github.com/jason-s-yu/newsquiz/internal/screen"
)

// EventType names a transition the synchronizer asks the UI to perform.
type EventType string

const (
	EventLoadingShow  EventType = "loading_overlay_show"
	EventLoadingHide  EventType = "loading_overlay_hide"
	EventEnterGame    EventType = "enter_game"
	EventEnterResults EventType = "enter_results"
	EventRefresh      EventType = "refresh"
)

// Event is emitted after a snapshot has been applied to the store.
type Event struct {
	Type     EventType
	Message  string // loading message for EventLoadingShow
	Snapshot *models.RoomSnapshot
	Epoch    uint64 // session the snapshot was applied to
}

// Reconcile diffs prev against next and returns the events to fire, in order.
// visible is the screen shown when next arrived. prev may be nil.
func Reconcile(prev, next *models.RoomSnapshot, visible screen.Screen) []Event {
	if next == nil {
		return nil
	}
	var events []Event
	prevLoading := prev != nil && prev.IsLoading
	hidden := false

	switch {
	case next.IsLoading && !prevLoading:
		events = append(events, Event{Type: EventLoadingShow, Message: next.LoadingMessage})
	case !next.IsLoading && prevLoading:
		events = append(events, Event{Type: EventLoadingHide})
		hidden = true
	}

	switch {
	case next.Status == models.StatusPlaying && visible == screen.Lobby:
		events = append(events, Event{Type: EventEnterGame})
	case next.Status == models.StatusFinished:
		if !hidden {
			events = append(events, Event{Type: EventLoadingHide})
		}
		events = append(events, Event{Type: EventEnterResults})
	default:
		events = append(events, Event{Type: EventRefresh})
	}

	for i := range events {
		events[i].Snapshot = next
	}
	return events
}
