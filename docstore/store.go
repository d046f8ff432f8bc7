// Package docstore is the document-store collaborator: profile records
// and per-channel message logs over BadgerDB, with live queries that
// push complete snapshots to their subscribers.
//
// Delivery contract: each live query receives monotonically fresher
// snapshots of its own result set. Nothing is promised across queries:
// callers that switch between channels must release the old query
// before opening the new one.
package docstore

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"chitchat/contract"
	"chitchat/domain"
	"chitchat/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type Store struct {
	log      *slog.Logger
	users    *repositories.UserRepository
	messages *repositories.MessageRepository
	registry *Registry
	notifier *Notifier

	// version counts committed mutations. Every snapshot push is tagged
	// with the version loaded before its read, and watchers drop pushes
	// older than what they already delivered. This is what keeps an
	// initial snapshot read on the subscriber's goroutine from
	// overwriting a fresher one the notifier pushed in between.
	version atomic.Uint64
}

func New(log *slog.Logger, db *badger.DB, bufferSize int) *Store {
	users := repositories.NewUserRepository(db)
	messages := repositories.NewMessageRepository(db)
	registry := NewRegistry()
	s := &Store{
		log:      log,
		users:    users,
		messages: messages,
		registry: registry,
	}
	s.notifier = NewNotifier(log, registry, users, messages, &s.version, bufferSize)
	return s
}

// Notifier exposes the fan-out worker so the caller can run it under
// supervision. Live queries stay silent until it runs.
func (s *Store) Notifier() contract.Worker {
	return s.notifier
}

func (s *Store) GetUser(_ context.Context, id string) (domain.User, error) {
	return s.users.GetUser(id)
}

func (s *Store) SetUser(_ context.Context, user domain.User) error {
	if err := s.users.SetUser(user); err != nil {
		return err
	}
	s.version.Add(1)
	s.notifier.notify(mutation{users: true})
	return nil
}

func (s *Store) UpdateUser(_ context.Context, id string, fields domain.ProfileFields) error {
	if err := s.users.UpdateUser(id, fields); err != nil {
		return err
	}
	s.version.Add(1)
	s.notifier.notify(mutation{users: true})
	return nil
}

// AppendMessage assigns the server timestamp and a message id, persists
// the record, and wakes the channel's watchers. The caller's CreatedAt
// and ID are overwritten: the store is the single source of truth for
// both.
func (s *Store) AppendMessage(_ context.Context, ch domain.ChannelID, msg domain.Message) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now().UTC()
	if err := s.messages.StoreMessage(ch, msg); err != nil {
		return err
	}
	s.version.Add(1)
	s.notifier.notify(mutation{channel: ch})
	return nil
}

// WatchRoster opens a live query over every user except excludeID.
// The initial snapshot is pushed synchronously so a new subscriber never
// renders an empty roster while waiting for the first mutation.
func (s *Store) WatchRoster(excludeID string) (<-chan []domain.User, func()) {
	w := s.registry.addRosterWatcher(excludeID)
	version := s.version.Load()
	if users, err := s.users.ListUsers(excludeID); err == nil {
		w.push(users, version)
	} else {
		s.log.Error("Initial roster snapshot failed", "error", err)
		w.push(nil, version)
	}
	cancel := func() { s.registry.removeRosterWatcher(w.id) }
	return w.out, cancel
}

// WatchChannel opens a live query over one conversation, ascending by
// creation time. Same initial-snapshot and cancel semantics as
// WatchRoster.
func (s *Store) WatchChannel(ch domain.ChannelID) (<-chan []domain.Message, func()) {
	w := s.registry.addChannelWatcher(ch)
	version := s.version.Load()
	if messages, err := s.messages.GetMessages(ch); err == nil {
		w.push(messages, version)
	} else {
		s.log.Error("Initial channel snapshot failed", "channel", string(ch), "error", err)
		w.push(nil, version)
	}
	cancel := func() { s.registry.removeChannelWatcher(ch, w.id) }
	return w.out, cancel
}
