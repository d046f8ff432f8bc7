//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chitchat/domain"
)

// IdentitySource delivers sign-in/sign-out events for one client
// instance. The callback receives the signed-in user, or nil after a
// sign-out or a provider failure. The returned cancel function detaches
// the callback and is safe to call more than once.
type IdentitySource interface {
	OnIdentityChange(fn func(user *domain.User)) (cancel func())
}

// RosterSource opens a live query over every user except excludeID.
// Each value on the channel is a complete snapshot replacing the
// previous one. Cancel releases the listener; the channel is closed
// afterwards.
type RosterSource interface {
	WatchRoster(excludeID string) (<-chan []domain.User, func())
}

// ChannelSource opens a live query over one conversation channel,
// ordered ascending by server-assigned creation time. Same snapshot and
// cancel semantics as RosterSource.
type ChannelSource interface {
	WatchChannel(ch domain.ChannelID) (<-chan []domain.Message, func())
}

// MessageAppender appends one message to a channel. The store assigns
// the creation timestamp; the caller's CreatedAt is ignored.
type MessageAppender interface {
	AppendMessage(ctx context.Context, ch domain.ChannelID, msg domain.Message) error
}

// ProfileStore is the one-shot document access used by profile editing.
type ProfileStore interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	UpdateUser(ctx context.Context, id string, fields domain.ProfileFields) error
}

// ProfileFieldsUpdater mirrors profile mutations into the identity
// provider's own record, after the document store write.
type ProfileFieldsUpdater interface {
	UpdateProfileFields(ctx context.Context, id string, fields domain.ProfileFields) error
}

// BlobStore accepts a binary upload and returns a retrievable URL.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, key string) (url string, err error)
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
