package authclient

import "sync"

// notifier fans session-change events out to registered callbacks.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event, *Session)
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]func(Event, *Session))}
}

func (n *notifier) subscribe(fn func(Event, *Session)) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *notifier) emit(event Event, session *Session) {
	n.mu.Lock()
	fns := make([]func(Event, *Session), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}
