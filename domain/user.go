// Package domain contains core concepts of the messaging system.
// This file defines the User entity, mirrored from the identity provider
// into the document store at registration time.
// No runtime, network, or UI logic should be added here.
package domain

// User is the profile record visible to other participants.
// It is mutated only by its owner and never deleted by this system.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url"` // empty until the owner uploads a picture
}

// ProfileFields carries a partial profile update. Nil fields are left
// untouched by the store and the identity provider.
type ProfileFields struct {
	DisplayName *string
	PhotoURL    *string
}
