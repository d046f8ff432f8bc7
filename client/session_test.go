package client

import (
	"testing"
	"time"

	"chitchat/domain"
	"chitchat/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Session_Gates_Until_First_State(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockIdentitySource(ctrl)
	var deliver func(user *domain.User)
	source.EXPECT().
		OnIdentityChange(gomock.Any()).
		DoAndReturn(func(fn func(user *domain.User)) func() {
			deliver = fn
			return func() {}
		})

	session := NewSession(source)
	defer session.Close()

	// Nothing is known yet: the gate must hold
	select {
	case <-session.Ready():
		req.Fail("session ready before any identity state")
	case <-time.After(50 * time.Millisecond):
	}
	req.Nil(session.CurrentUser())

	// First state releases the gate
	alice := &domain.User{ID: "u1", DisplayName: "Alice"}
	deliver(alice)

	select {
	case <-session.Ready():
	case <-time.After(time.Second):
		req.Fail("session never became ready")
	}
	req.Equal(alice, session.CurrentUser())
}

func Test_Session_Nil_State_Also_Releases_Gate(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockIdentitySource(ctrl)
	var deliver func(user *domain.User)
	source.EXPECT().
		OnIdentityChange(gomock.Any()).
		DoAndReturn(func(fn func(user *domain.User)) func() {
			deliver = fn
			return func() {}
		})

	session := NewSession(source)
	defer session.Close()

	// A signed-out answer is still an answer
	deliver(nil)

	select {
	case <-session.Ready():
	case <-time.After(time.Second):
		req.Fail("session never became ready")
	}
	req.Nil(session.CurrentUser())
}

func Test_Session_Close_Detaches_Once(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	source := mocks.NewMockIdentitySource(ctrl)
	cancels := 0
	source.EXPECT().
		OnIdentityChange(gomock.Any()).
		DoAndReturn(func(fn func(user *domain.User)) func() {
			return func() { cancels++ }
		})

	session := NewSession(source)
	session.Close()
	session.Close()
	req.Equal(1, cancels)
}
