package identity

import (
	"sync"

	"chitchat/domain"
)

// Handle is the identity-change stream of one client instance. The
// gateway creates one per connection, establishes the verified identity
// on it, and clears it again at sign-out. Dependents subscribe through
// OnIdentityChange; the first delivered state releases their loading
// gates.
type Handle struct {
	mu        sync.Mutex
	current   *domain.User
	known     bool // true once the first state has been established
	nextID    int
	listeners map[int]func(user *domain.User)

	// deliverMu serializes callback invocations across broadcasts and
	// replays, so a replay of an older state can never land after a
	// fresher broadcast. Callbacks must not call Establish or SignOut.
	deliverMu sync.Mutex
}

func NewHandle() *Handle {
	return &Handle{listeners: make(map[int]func(user *domain.User))}
}

// OnIdentityChange registers a callback for sign-in/sign-out events.
// If a state is already known, it is replayed to the new subscriber
// before this returns, so late subscribers are never stuck waiting.
// The replay re-reads the state under the delivery lock: a broadcast
// racing the subscription is either fully delivered before the replay,
// or the replay already carries its state. The returned cancel is
// idempotent.
func (h *Handle) OnIdentityChange(fn func(user *domain.User)) (cancel func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners[id] = fn
	replay := h.known
	h.mu.Unlock()

	if replay {
		h.deliverMu.Lock()
		h.mu.Lock()
		state := h.current
		h.mu.Unlock()
		fn(state)
		h.deliverMu.Unlock()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Establish publishes a signed-in identity to all subscribers.
func (h *Handle) Establish(user *domain.User) {
	h.broadcast(user)
}

// SignOut publishes the signed-out state. Subscribers receive nil and
// fall back to their unauthenticated view.
func (h *Handle) SignOut() {
	h.broadcast(nil)
}

func (h *Handle) broadcast(user *domain.User) {
	h.mu.Lock()
	h.current = user
	h.known = true
	fns := make([]func(user *domain.User), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	// Callbacks run outside the state lock; a listener may unsubscribe
	// from within its own callback. The delivery lock keeps broadcasts
	// and replays in order.
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()
	for _, fn := range fns {
		fn(user)
	}
}

// CurrentUser returns the last established identity, nil when signed out
// or not yet known.
func (h *Handle) CurrentUser() *domain.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}
