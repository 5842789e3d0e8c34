package service

import "sync"

// EventKind distinguishes transient notices from the one event that must not
// be missed: loss of access to a baby.
type EventKind int

const (
	EventInfo EventKind = iota
	EventSuccess
	EventError
	// EventAccessRevoked is published exactly once per purge; subscribers
	// surface it as a blocking notice, not a toast.
	EventAccessRevoked
)

type Event struct {
	Kind    EventKind
	Message string
	BabyID  string // set for baby-scoped events
}

// Events is a small fan-out bus for user-facing sync notices. Channels are
// buffered and sends never block: a slow subscriber drops notices rather than
// stalling the sync loop.
type Events struct {
	mu   sync.Mutex
	subs []chan Event
}

func NewEvents() *Events { return &Events{} }

func (ev *Events) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	ev.mu.Lock()
	ev.subs = append(ev.subs, ch)
	ev.mu.Unlock()
	return ch
}

func (ev *Events) Publish(e Event) {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	for _, ch := range ev.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
