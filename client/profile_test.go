package client

import (
	"context"
	"fmt"
	"testing"

	"chitchat/domain"
	"chitchat/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newEditorMocks(ctrl *gomock.Controller) (*mocks.MockProfileStore, *mocks.MockBlobStore, *mocks.MockProfileFieldsUpdater) {
	return mocks.NewMockProfileStore(ctrl), mocks.NewMockBlobStore(ctrl), mocks.NewMockProfileFieldsUpdater(ctrl)
}

func Test_ProfileEditor_Load_And_Local_Edits(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, blobs, identity := newEditorMocks(ctrl)
	store.EXPECT().
		GetUser(gomock.Any(), "u1").
		Return(domain.User{ID: "u1", DisplayName: "Alice", Email: "alice@example.com"}, nil)

	editor := NewProfileEditor(store, blobs, identity)
	profile, err := editor.Load(context.Background(), "u1")
	req.NoError(err)
	req.Equal("Alice", profile.DisplayName)
	req.False(editor.Editing())

	// Local mutations never touch the store
	editor.SetDisplayName("Alice in Chains")
	editor.AttachPhoto([]byte{0xFF, 0xD8})
	req.True(editor.Editing())
	req.Equal("Alice in Chains", editor.Profile().DisplayName)
}

func Test_ProfileEditor_Save_Order_Upload_Store_Identity(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, blobs, identity := newEditorMocks(ctrl)
	store.EXPECT().
		GetUser(gomock.Any(), "u1").
		Return(domain.User{ID: "u1", DisplayName: "Alice"}, nil)

	photo := []byte{0xFF, 0xD8, 0xFF}
	gomock.InOrder(
		blobs.EXPECT().
			Upload(gomock.Any(), photo, "avatar-u1").
			Return("/media/avatar-u1.jpg", nil),
		store.EXPECT().
			UpdateUser(gomock.Any(), "u1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, fields domain.ProfileFields) error {
				req.Equal("Alice in Chains", *fields.DisplayName)
				req.Equal("/media/avatar-u1.jpg", *fields.PhotoURL)
				return nil
			}),
		identity.EXPECT().
			UpdateProfileFields(gomock.Any(), "u1", gomock.Any()).
			Return(nil),
	)

	editor := NewProfileEditor(store, blobs, identity)
	_, err := editor.Load(context.Background(), "u1")
	req.NoError(err)

	editor.SetDisplayName("Alice in Chains")
	editor.AttachPhoto(photo)

	saved, err := editor.Save(context.Background())
	req.NoError(err)
	req.Equal("/media/avatar-u1.jpg", saved.PhotoURL)
	req.False(editor.Editing())
}

func Test_ProfileEditor_Partial_Save_Stays_In_Edit_Mode(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, blobs, identity := newEditorMocks(ctrl)
	store.EXPECT().
		GetUser(gomock.Any(), "u1").
		Return(domain.User{ID: "u1", DisplayName: "Alice"}, nil)

	// The upload succeeds, the document write fails: the blob stays
	// orphaned in the object store and the user keeps their edits.
	blobs.EXPECT().
		Upload(gomock.Any(), gomock.Any(), "avatar-u1").
		Return("/media/avatar-u1.jpg", nil)
	store.EXPECT().
		UpdateUser(gomock.Any(), "u1", gomock.Any()).
		Return(fmt.Errorf("store unavailable"))

	editor := NewProfileEditor(store, blobs, identity)
	_, err := editor.Load(context.Background(), "u1")
	req.NoError(err)

	editor.SetDisplayName("Alice in Chains")
	editor.AttachPhoto([]byte{0xFF})

	_, err = editor.Save(context.Background())
	req.Error(err)
	req.True(editor.Editing())
	req.Equal("Alice in Chains", editor.Profile().DisplayName)
}

func Test_ProfileEditor_Save_Without_Photo_Skips_Upload(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, blobs, identity := newEditorMocks(ctrl)
	store.EXPECT().
		GetUser(gomock.Any(), "u1").
		Return(domain.User{ID: "u1", DisplayName: "Alice", PhotoURL: "/media/old.png"}, nil)

	// No Upload expectation: a name-only save must not touch the blobs
	store.EXPECT().
		UpdateUser(gomock.Any(), "u1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fields domain.ProfileFields) error {
			req.Equal("/media/old.png", *fields.PhotoURL)
			return nil
		})
	identity.EXPECT().
		UpdateProfileFields(gomock.Any(), "u1", gomock.Any()).
		Return(nil)

	editor := NewProfileEditor(store, blobs, identity)
	_, err := editor.Load(context.Background(), "u1")
	req.NoError(err)

	editor.SetDisplayName("Alice B.")
	_, err = editor.Save(context.Background())
	req.NoError(err)
	req.False(editor.Editing())
}
