package client

import (
	"sync"

	"chitchat/contract"
	"chitchat/domain"
	"chitchat/errors"
)

// ConversationState is the lifecycle of the conversation view:
// Idle (no peer selected) → Subscribing (listener attached, first
// snapshot pending) → Live (rendering snapshots). Selecting a new peer
// goes back through Subscribing; closing the chat returns to Idle.
type ConversationState int

const (
	StateIdle ConversationState = iota
	StateSubscribing
	StateLive
)

func (s ConversationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribing:
		return "subscribing"
	case StateLive:
		return "live"
	default:
		return "unknown"
	}
}

// Conversation owns the single live message listener of one view
// instance. The invariant it enforces structurally: at most one
// listener is ever attached, and a listener is fully released before
// its successor attaches. Without that, a late snapshot from the old
// channel could overwrite the new channel's state, the cross-talk bug
// this controller exists to prevent.
//
// Messages inside a snapshot are already ordered ascending by the
// store-assigned creation time; the controller replaces its list
// wholesale and never reorders locally, so a store-side reorder in a
// later snapshot is tolerated by construction.
type Conversation struct {
	mu       sync.Mutex
	source   contract.ChannelSource
	state    ConversationState
	channel  domain.ChannelID
	peerID   string
	messages []domain.Message
	onUpdate func(ch domain.ChannelID, messages []domain.Message)
	cancel   func()
	gen      uint64
	closed   bool
}

// NewConversation builds an idle controller. onUpdate may be nil; when
// set it fires outside the lock after each applied snapshot.
func NewConversation(source contract.ChannelSource, onUpdate func(ch domain.ChannelID, messages []domain.Message)) *Conversation {
	return &Conversation{source: source, onUpdate: onUpdate}
}

// Select resolves the channel shared with peerID and switches the live
// listener to it. The previous listener is released before the new one
// attaches. Returns the resolved channel so the caller can address
// sends to it.
func (c *Conversation) Select(selfID, peerID string) (domain.ChannelID, error) {
	ch, err := domain.ResolveChannel(selfID, peerID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", errors.ErrSubscriptionClosed
	}
	c.release()
	c.gen++
	gen := c.gen
	c.state = StateSubscribing
	c.channel = ch
	c.peerID = peerID
	c.messages = nil
	snapshots, cancel := c.source.WatchChannel(ch)
	c.cancel = cancel
	c.mu.Unlock()

	go c.pump(gen, ch, snapshots)
	return ch, nil
}

func (c *Conversation) pump(gen uint64, ch domain.ChannelID, snapshots <-chan []domain.Message) {
	for snapshot := range snapshots {
		c.mu.Lock()
		if c.closed || gen != c.gen {
			// The guard that makes peer switches safe: this listener
			// was released, its snapshots are dead on arrival.
			c.mu.Unlock()
			return
		}
		c.state = StateLive
		c.messages = snapshot
		onUpdate := c.onUpdate
		c.mu.Unlock()

		if onUpdate != nil {
			onUpdate(ch, snapshot)
		}
	}
}

// CloseChat is the explicit "close chat" action: back to Idle, listener
// released, messages cleared. The controller can Select again later.
func (c *Conversation) CloseChat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.release()
	c.gen++
	c.state = StateIdle
	c.channel = ""
	c.peerID = ""
	c.messages = nil
}

// Teardown is terminal: the owning view unmounted. No listener survives
// and no further Select is accepted.
func (c *Conversation) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.release()
	c.state = StateIdle
	c.channel = ""
	c.peerID = ""
	c.messages = nil
}

// release must run with c.mu held.
func (c *Conversation) release() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Conversation) State() ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Channel returns the active channel key, empty when Idle.
func (c *Conversation) Channel() domain.ChannelID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// PeerID returns the selected peer, empty when Idle.
func (c *Conversation) PeerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerID
}

// Messages returns the latest applied snapshot, ascending by creation
// time.
func (c *Conversation) Messages() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messages
}
