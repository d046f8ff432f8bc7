package client

import (
	"context"
	"sync"

	"chitchat/contract"
	"chitchat/domain"
)

// ProfileEditor is the profile projection: a one-shot fetch into an
// editable local copy, local-only mutations, and an explicit save.
//
// Save order is fixed: pending photo upload first, then the document
// store record, then the identity provider's fields. If the upload
// succeeds but a later write fails, the object store keeps an orphaned
// blob. That is a known, accepted gap; nothing is retried automatically and
// the editor stays in edit mode so the user can try again.
type ProfileEditor struct {
	mu           sync.Mutex
	store        contract.ProfileStore
	blobs        contract.BlobStore
	identity     contract.ProfileFieldsUpdater
	userID       string
	profile      domain.User
	pendingPhoto []byte
	editing      bool
}

func NewProfileEditor(store contract.ProfileStore, blobs contract.BlobStore,
	identity contract.ProfileFieldsUpdater) *ProfileEditor {
	return &ProfileEditor{store: store, blobs: blobs, identity: identity}
}

// Load fetches the profile record once, without a live subscription, and
// populates the editable copy.
func (e *ProfileEditor) Load(ctx context.Context, userID string) (domain.User, error) {
	profile, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}

	e.mu.Lock()
	e.userID = userID
	e.profile = profile
	e.pendingPhoto = nil
	e.editing = false
	e.mu.Unlock()
	return profile, nil
}

// SetDisplayName mutates the local copy only; the store is untouched
// until Save.
func (e *ProfileEditor) SetDisplayName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profile.DisplayName = name
	e.editing = true
}

// AttachPhoto stages image bytes for upload at the next Save.
func (e *ProfileEditor) AttachPhoto(data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingPhoto = data
	e.editing = true
}

// Save commits the local edits: upload, document write, provider write,
// in that order. Only after all of them succeed does the editor flip
// out of edit mode.
func (e *ProfileEditor) Save(ctx context.Context) (domain.User, error) {
	e.mu.Lock()
	userID := e.userID
	profile := e.profile
	pendingPhoto := e.pendingPhoto
	e.mu.Unlock()

	photoURL := profile.PhotoURL
	if pendingPhoto != nil {
		url, err := e.blobs.Upload(ctx, pendingPhoto, "avatar-"+userID)
		if err != nil {
			return domain.User{}, err
		}
		photoURL = url
	}

	fields := domain.ProfileFields{
		DisplayName: &profile.DisplayName,
		PhotoURL:    &photoURL,
	}
	if err := e.store.UpdateUser(ctx, userID, fields); err != nil {
		return domain.User{}, err
	}
	if err := e.identity.UpdateProfileFields(ctx, userID, fields); err != nil {
		return domain.User{}, err
	}

	e.mu.Lock()
	e.profile.PhotoURL = photoURL
	profile = e.profile
	e.pendingPhoto = nil
	e.editing = false
	e.mu.Unlock()
	return profile, nil
}

// Profile returns the current local copy, edits included.
func (e *ProfileEditor) Profile() domain.User {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile
}

// Editing reports whether unsaved local edits exist.
func (e *ProfileEditor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}
