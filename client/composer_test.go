package client

import (
	"context"
	"fmt"
	"testing"

	"chitchat/domain"
	"chitchat/errors"
	"chitchat/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Composer_Send_Clears_Draft_On_Success(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	appender := mocks.NewMockMessageAppender(ctrl)
	appender.EXPECT().
		AppendMessage(gomock.Any(), domain.ChannelID("u2u1"), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.ChannelID, msg domain.Message) error {
			req.Equal("hello", msg.Text)
			req.Equal("u1", msg.SenderID)
			req.Equal("u2", msg.RecipientID)
			return nil
		})

	composer := NewComposer(appender)
	composer.SetDraft("hello")

	req.NoError(composer.Send(context.Background(), "u2u1", "u1", "u2"))
	req.Empty(composer.Draft())
}

func Test_Composer_Send_Keeps_Draft_On_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	appender := mocks.NewMockMessageAppender(ctrl)
	appender.EXPECT().
		AppendMessage(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("store unavailable"))

	composer := NewComposer(appender)
	composer.SetDraft("hello")

	err := composer.Send(context.Background(), "u2u1", "u1", "u2")
	req.Error(err)
	// The user can retry without retyping
	req.Equal("hello", composer.Draft())
}

func Test_Composer_Send_Validations(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No append may ever happen for an invalid send
	appender := mocks.NewMockMessageAppender(ctrl)
	composer := NewComposer(appender)

	err := composer.Send(context.Background(), "u2u1", "u1", "u2")
	req.ErrorIs(err, errors.ErrEmptyMessage)

	composer.SetDraft("hello")
	err = composer.Send(context.Background(), "", "u1", "u2")
	req.ErrorIs(err, errors.ErrNoChannel)
	req.Equal("hello", composer.Draft())
}

func Test_Composer_InFlight_Typing_Not_Lost(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var composer *Composer
	appender := mocks.NewMockMessageAppender(ctrl)
	appender.EXPECT().
		AppendMessage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.ChannelID, _ domain.Message) error {
			// The user types again while the append is in flight
			composer.SetDraft("newer text")
			return nil
		})
	composer = NewComposer(appender)

	composer.SetDraft("hello")
	req.NoError(composer.Send(context.Background(), "u2u1", "u1", "u2"))
	req.Equal("newer text", composer.Draft())
}
