package repositories

import (
	"encoding/json"
	"fmt"

	"chitchat/domain"

	"github.com/dgraph-io/badger/v4"
)

// MessageRepository persists the append-only message log in BadgerDB.
// The key is formatted as "msg:{channel}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order equals creation order).
//  2. Prevent data loss by using the message uuid as a collision
//     disconnector if two messages land on the same nanosecond.
//
// Channel ids are concatenated uuid pairs and never contain ':', so the
// separators are unambiguous.
type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func messageKey(ch domain.ChannelID, msg domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", ch, msg.CreatedAt.UnixNano(), msg.ID))
}

// StoreMessage appends one message to a channel's log. CreatedAt must
// already carry the server-assigned timestamp.
func (r *MessageRepository) StoreMessage(ch domain.ChannelID, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(ch, msg), data)
	})
}

// GetMessages returns the full log of one channel in ascending creation
// order. Thanks to the padded timestamp in the key, a forward prefix
// scan is already chronological.
func (r *MessageRepository) GetMessages(ch domain.ChannelID) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", ch))
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var msg domain.Message
				if err := json.Unmarshal(val, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
