package store

import "sync"

// Notifier is the explicit publish/subscribe surface behind live queries:
// the UI subscribes to the tables a query reads and re-runs the query on
// every notification. Sends never block; a slow subscriber coalesces
// invalidations instead of stalling writers.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[int]chan struct{})}
}

// Subscribe registers interest in one or more tables. The returned channel
// receives a signal whenever any of them changes; the returned func cancels
// the subscription.
func (n *Notifier) Subscribe(tables ...string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	for _, t := range tables {
		if n.subs[t] == nil {
			n.subs[t] = make(map[int]chan struct{})
		}
		n.subs[t][id] = ch
	}
	n.mu.Unlock()

	unsubscribe := func() {
		n.mu.Lock()
		for _, t := range tables {
			delete(n.subs[t], id)
		}
		n.mu.Unlock()
	}
	return ch, unsubscribe
}

// Notify signals every subscriber of the given tables.
func (n *Notifier) Notify(tables ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	seen := make(map[chan struct{}]bool)
	for _, t := range tables {
		for _, ch := range n.subs[t] {
			if seen[ch] {
				continue
			}
			seen[ch] = true
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}
