package identity

import (
	"sync"
	"testing"
	"time"

	"chitchat/domain"

	"github.com/stretchr/testify/require"
)

func Test_Handle_Broadcast_And_SignOut(t *testing.T) {
	req := require.New(t)
	handle := NewHandle()

	var mu sync.Mutex
	var states []*domain.User
	cancel := handle.OnIdentityChange(func(user *domain.User) {
		mu.Lock()
		states = append(states, user)
		mu.Unlock()
	})
	defer cancel()

	alice := &domain.User{ID: "u1", DisplayName: "Alice"}
	handle.Establish(alice)
	handle.SignOut()

	mu.Lock()
	defer mu.Unlock()
	req.Len(states, 2)
	req.Equal(alice, states[0])
	req.Nil(states[1])
	req.Nil(handle.CurrentUser())
}

func Test_Handle_Replays_Known_State_To_Late_Subscriber(t *testing.T) {
	req := require.New(t)
	handle := NewHandle()

	alice := &domain.User{ID: "u1", DisplayName: "Alice"}
	handle.Establish(alice)

	// Subscribing after sign-in must release the loading gate before
	// OnIdentityChange returns; no waiting involved.
	var received *domain.User
	cancel := handle.OnIdentityChange(func(user *domain.User) {
		received = user
	})
	defer cancel()

	req.Equal(alice, received)
}

func Test_Handle_Replay_Never_Overwrites_Fresher_Broadcast(t *testing.T) {
	req := require.New(t)
	handle := NewHandle()

	alice := &domain.User{ID: "u1", DisplayName: "Alice"}
	bob := &domain.User{ID: "u2", DisplayName: "Bob"}
	handle.Establish(alice)

	// A broadcast right after subscription: whatever interleaving the
	// scheduler picks, the subscriber's last observed state must be the
	// latest broadcast, never the replayed older one.
	var mu sync.Mutex
	var last *domain.User
	cancel := handle.OnIdentityChange(func(user *domain.User) {
		mu.Lock()
		last = user
		mu.Unlock()
	})
	defer cancel()

	handle.Establish(bob)

	mu.Lock()
	defer mu.Unlock()
	req.Equal(bob, last)
}

func Test_Handle_No_Replay_Before_First_State(t *testing.T) {
	req := require.New(t)
	handle := NewHandle()

	received := make(chan *domain.User, 1)
	cancel := handle.OnIdentityChange(func(user *domain.User) {
		received <- user
	})
	defer cancel()

	select {
	case user := <-received:
		req.Failf("unexpected replay", "got %v", user)
	case <-time.After(100 * time.Millisecond):
	}
}

func Test_Handle_Cancel_Detaches_And_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	handle := NewHandle()

	var mu sync.Mutex
	calls := 0
	cancel := handle.OnIdentityChange(func(user *domain.User) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	handle.Establish(&domain.User{ID: "u1"})
	cancel()
	cancel()
	handle.Establish(&domain.User{ID: "u2"})

	mu.Lock()
	defer mu.Unlock()
	req.Equal(1, calls)
}
