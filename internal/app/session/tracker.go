package session

import (
	"sync"

	"github.com/fixgearlabs/fixgear-cart/pkg/logger"
)

// Tracker observes the authenticated identity bound to one device. An empty
// identity means anonymous. Subscribers are notified at most once per actual
// transition; setting the same identity again delivers nothing.
type Tracker struct {
	mu      sync.Mutex
	current string
	subs    map[int]func(identity string)
	nextSub int
}

func NewTracker() *Tracker {
	return &Tracker{
		subs: make(map[int]func(identity string)),
	}
}

// Current returns the last known identity, empty when anonymous.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Set records a new identity and notifies subscribers of the transition.
// Deliveries happen under the tracker lock so transitions are observed in
// order and never duplicated.
func (t *Tracker) Set(identity string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if identity == t.current {
		return
	}

	logger.Debug("Identity transition", map[string]interface{}{
		"from": t.current,
		"to":   identity,
	})

	t.current = identity
	for _, fn := range t.subs {
		fn(identity)
	}
}

// Subscribe registers a callback for identity transitions and returns the
// matching unsubscribe. After unsubscribe returns, the callback is never
// invoked again.
func (t *Tracker) Subscribe(fn func(identity string)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}
