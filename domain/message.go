// Package domain contains core concepts of the messaging system.
// This file defines Message events and related rules.
// Messages are immutable once appended and are never edited or deleted.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one immutable chat entry inside a channel.
// CreatedAt is assigned by the document store at append time; a zero
// value means the server timestamp has not been observed yet.
type Message struct {
	ID          uuid.UUID `json:"id"`
	Text        string    `json:"text"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	CreatedAt   time.Time `json:"created_at"`
}
