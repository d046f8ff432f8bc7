package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"chitchat/domain"
	"chitchat/repositories"

	"github.com/samber/lo"
)

// mutation describes a store write that may invalidate live queries.
// A users mutation touches every roster watcher; a message mutation
// touches the watchers of one channel only.
type mutation struct {
	users   bool
	channel domain.ChannelID
}

// Notifier recomputes and pushes full snapshots to live watchers after
// each store mutation.
//
// It provides best-effort fan-out: each individual watcher receives
// monotonically fresher snapshots, but there is no ordering promise
// across watchers and no durability; a watcher that cancels mid-flight
// simply stops receiving. The Notifier is not a message broker.
//
// It runs as a single supervised worker goroutine, so snapshot
// computation is serialized and per-watcher monotonicity falls out of
// the loop structure.
type Notifier struct {
	log      *slog.Logger
	registry *Registry
	users    *repositories.UserRepository
	messages *repositories.MessageRepository
	version  *atomic.Uint64
	events   chan mutation
}

func NewNotifier(log *slog.Logger, registry *Registry,
	users *repositories.UserRepository, messages *repositories.MessageRepository,
	version *atomic.Uint64, bufferSize int) *Notifier {
	return &Notifier{
		log:      log,
		registry: registry,
		users:    users,
		messages: messages,
		version:  version,
		events:   make(chan mutation, bufferSize),
	}
}

// notify enqueues a mutation for fan-out. When the buffer is full the
// mutation is dropped with a warning; the next mutation on the same
// topic recomputes the full snapshot anyway, so watchers converge.
func (n *Notifier) notify(m mutation) {
	select {
	case n.events <- m:
	default:
		n.log.Warn("Notifier buffer full, dropping mutation",
			"users", m.users, "channel", string(m.channel))
	}
}

func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case m := <-n.events:
			n.fanout(m)
		case <-ctx.Done():
			n.log.Debug("Context done, stopping notifier")
			return nil
		}
	}
}

func (n *Notifier) fanout(m mutation) {
	if m.users {
		n.fanoutRoster()
		return
	}
	n.fanoutChannel(m.channel)
}

func (n *Notifier) fanoutRoster() {
	watchers := n.registry.getRosterWatchers()
	if len(watchers) == 0 {
		return
	}
	// The version is read before the store read: the snapshot then
	// contains every write counted in it, which is what the watcher's
	// version guard relies on.
	version := n.version.Load()
	all, err := n.users.ListUsers("")
	if err != nil {
		// A failed listener surfaces as an empty list, never as a stale one.
		n.log.Error(fmt.Sprintf("Roster snapshot failed: %v", err))
		for _, w := range watchers {
			w.push(nil, version)
		}
		return
	}
	for _, w := range watchers {
		w.push(filterRoster(all, w.excludeID), version)
	}
}

func (n *Notifier) fanoutChannel(ch domain.ChannelID) {
	watchers := n.registry.getChannelWatchers(ch)
	if len(watchers) == 0 {
		return
	}
	version := n.version.Load()
	messages, err := n.messages.GetMessages(ch)
	if err != nil {
		n.log.Error(fmt.Sprintf("Channel snapshot failed for %s: %v", ch, err))
		for _, w := range watchers {
			w.push(nil, version)
		}
		return
	}
	for _, w := range watchers {
		w.push(messages, version)
	}
}

func filterRoster(all []domain.User, excludeID string) []domain.User {
	if excludeID == "" {
		return all
	}
	return lo.Filter(all, func(u domain.User, _ int) bool {
		return u.ID != excludeID
	})
}
