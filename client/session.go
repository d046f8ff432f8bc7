// Package client implements the conversation-synchronization core of
// the messaging client: session state, the live roster, the per-channel
// conversation controller, message submission, and profile editing.
// It talks to the identity provider, document store, and object store
// exclusively through the contract interfaces and owns every
// subscription lifecycle, so listeners can neither leak nor race.
package client

import (
	"sync"

	"chitchat/contract"
	"chitchat/domain"
)

// Session tracks the signed-in identity of one client instance.
// Construction subscribes to the identity provider's change stream; the
// first delivered state, signed in or not, releases the Ready gate so
// dependents only render once the answer is known. A provider failure
// surfaces as a nil CurrentUser, pushing the caller to the
// unauthenticated view; there are no retries.
type Session struct {
	mu         sync.RWMutex
	current    *domain.User
	ready      chan struct{}
	readyOnce  sync.Once
	cancelOnce sync.Once
	cancel     func()
}

func NewSession(source contract.IdentitySource) *Session {
	s := &Session{ready: make(chan struct{})}
	s.cancel = source.OnIdentityChange(func(user *domain.User) {
		s.mu.Lock()
		s.current = user
		s.mu.Unlock()
		s.readyOnce.Do(func() { close(s.ready) })
	})
	return s
}

// CurrentUser returns the signed-in user, or nil before sign-in and
// after sign-out.
func (s *Session) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Ready is closed once the first identity state is known.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Close detaches from the identity stream. Safe to call more than once.
func (s *Session) Close() {
	s.cancelOnce.Do(s.cancel)
}
