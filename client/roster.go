package client

import (
	"sync"

	"chitchat/contract"
	"chitchat/domain"
)

// Roster is the live list of every other registered user, for peer
// selection. Each store snapshot replaces the whole list; ordering is
// store-defined and the presentation layer may re-sort.
//
// Track releases the previous query before opening a new one, so a
// change of signed-in user can never leave a stale listener feeding the
// list. Snapshots arriving after Close or after a re-Track are dropped
// by the generation guard.
type Roster struct {
	mu       sync.Mutex
	source   contract.RosterSource
	users    []domain.User
	onUpdate func(users []domain.User)
	cancel   func()
	gen      uint64
	closed   bool
}

// NewRoster builds an idle roster; nothing is subscribed until Track.
// onUpdate may be nil; when set it fires outside the roster lock after
// each applied snapshot.
func NewRoster(source contract.RosterSource, onUpdate func(users []domain.User)) *Roster {
	return &Roster{source: source, onUpdate: onUpdate}
}

// Track opens the live roster query for userID, first releasing any
// query opened for a previous user.
func (r *Roster) Track(userID string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	gen := r.gen
	snapshots, cancel := r.source.WatchRoster(userID)
	r.cancel = cancel
	r.mu.Unlock()

	go r.pump(gen, snapshots)
}

func (r *Roster) pump(gen uint64, snapshots <-chan []domain.User) {
	for snapshot := range snapshots {
		r.mu.Lock()
		if r.closed || gen != r.gen {
			// Late snapshot from a released query: never applied.
			r.mu.Unlock()
			return
		}
		r.users = snapshot
		onUpdate := r.onUpdate
		r.mu.Unlock()

		if onUpdate != nil {
			onUpdate(snapshot)
		}
	}
}

// Users returns the latest applied snapshot.
func (r *Roster) Users() []domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users
}

// Close releases the subscription and empties the list. Terminal.
func (r *Roster) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.users = nil
}
