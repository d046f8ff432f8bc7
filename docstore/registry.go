package docstore

import (
	"sync"

	"chitchat/domain"
)

// rosterWatcher is one live roster query. Snapshots arrive on out with
// latest-wins conflation: a slow consumer only ever misses intermediate
// states, never the freshest one.
//
// Every push carries the store version observed before its read. A push
// whose version is older than one already delivered lost the race
// against a fresher reader (typically the subscriber's own initial
// snapshot racing the notifier) and is dropped, so the last state a
// watcher holds can never go backwards.
type rosterWatcher struct {
	id        uint64
	excludeID string

	mu          sync.Mutex
	out         chan []domain.User
	lastVersion uint64
	closed      bool
}

func (w *rosterWatcher) push(users []domain.User, version uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if version < w.lastVersion {
		return
	}
	w.lastVersion = version
	for {
		select {
		case w.out <- users:
			return
		default:
			// Drop the stale snapshot still sitting in the buffer.
			select {
			case <-w.out:
			default:
			}
		}
	}
}

func (w *rosterWatcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.out)
}

// channelWatcher is one live conversation query, same semantics as
// rosterWatcher, version guard included.
type channelWatcher struct {
	id      uint64
	channel domain.ChannelID

	mu          sync.Mutex
	out         chan []domain.Message
	lastVersion uint64
	closed      bool
}

func (w *channelWatcher) push(messages []domain.Message, version uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if version < w.lastVersion {
		return
	}
	w.lastVersion = version
	for {
		select {
		case w.out <- messages:
			return
		default:
			select {
			case <-w.out:
			default:
			}
		}
	}
}

func (w *channelWatcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.out)
}

// Registry tracks every live query currently open against the store.
// It only manages membership; snapshot computation and delivery belong
// to the Notifier. Closing a watcher through the registry is idempotent,
// so a cancel func can be called more than once without harm.
type Registry struct {
	mu              sync.RWMutex
	nextID          uint64
	rosterWatchers  map[uint64]*rosterWatcher
	channelWatchers map[domain.ChannelID]map[uint64]*channelWatcher
}

func NewRegistry() *Registry {
	return &Registry{
		rosterWatchers:  make(map[uint64]*rosterWatcher),
		channelWatchers: make(map[domain.ChannelID]map[uint64]*channelWatcher),
	}
}

func (r *Registry) addRosterWatcher(excludeID string) *rosterWatcher {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	w := &rosterWatcher{
		id:        r.nextID,
		excludeID: excludeID,
		out:       make(chan []domain.User, 1),
	}
	r.rosterWatchers[w.id] = w
	return w
}

func (r *Registry) removeRosterWatcher(id uint64) {
	r.mu.Lock()
	w, ok := r.rosterWatchers[id]
	delete(r.rosterWatchers, id)
	r.mu.Unlock()
	if ok {
		w.close()
	}
}

func (r *Registry) addChannelWatcher(ch domain.ChannelID) *channelWatcher {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	w := &channelWatcher{
		id:      r.nextID,
		channel: ch,
		out:     make(chan []domain.Message, 1),
	}
	if _, ok := r.channelWatchers[ch]; !ok {
		r.channelWatchers[ch] = make(map[uint64]*channelWatcher)
	}
	r.channelWatchers[ch][w.id] = w
	return w
}

func (r *Registry) removeChannelWatcher(ch domain.ChannelID, id uint64) {
	r.mu.Lock()
	var w *channelWatcher
	if members, ok := r.channelWatchers[ch]; ok {
		w = members[id]
		delete(members, id)
		// No empty sets left behind, to avoid leaking channel entries
		if len(members) == 0 {
			delete(r.channelWatchers, ch)
		}
	}
	r.mu.Unlock()
	if w != nil {
		w.close()
	}
}

func (r *Registry) getRosterWatchers() []*rosterWatcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	watchers := make([]*rosterWatcher, 0, len(r.rosterWatchers))
	for _, w := range r.rosterWatchers {
		watchers = append(watchers, w)
	}
	return watchers
}

func (r *Registry) getChannelWatchers(ch domain.ChannelID) []*channelWatcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.channelWatchers[ch]
	if !ok {
		return nil
	}
	watchers := make([]*channelWatcher, 0, len(members))
	for _, w := range members {
		watchers = append(watchers, w)
	}
	return watchers
}
