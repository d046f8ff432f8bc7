package client

import (
	"context"
	"sync"

	"chitchat/contract"
	"chitchat/domain"
	"chitchat/errors"
)

// Composer owns the draft buffer and message submission. On a
// successful send the draft clears; on failure it stays intact so the
// user can retry manually. There is no deduplication: two quick sends
// produce two records, accepted behavior.
type Composer struct {
	mu       sync.Mutex
	appender contract.MessageAppender
	draft    string
}

func NewComposer(appender contract.MessageAppender) *Composer {
	return &Composer{appender: appender}
}

func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Send appends the current draft to the given channel. The store
// assigns the timestamp; the draft is cleared only after the append
// succeeded, and only if the user has not typed something new while the
// call was in flight.
func (c *Composer) Send(ctx context.Context, ch domain.ChannelID, senderID, recipientID string) error {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()

	if draft == "" {
		return errors.ErrEmptyMessage
	}
	if ch == "" {
		return errors.ErrNoChannel
	}

	msg := domain.Message{
		Text:        draft,
		SenderID:    senderID,
		RecipientID: recipientID,
	}
	if err := c.appender.AppendMessage(ctx, ch, msg); err != nil {
		return err
	}

	c.mu.Lock()
	if c.draft == draft {
		c.draft = ""
	}
	c.mu.Unlock()
	return nil
}
