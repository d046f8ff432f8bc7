package domain

import "chitchat/errors"

// ChannelID identifies the conversation shared by exactly one unordered
// pair of users. It is derived, never stored as its own entity.
type ChannelID string

// ResolveChannel derives the shared channel key for a pair of user ids.
// The key is the greater id followed by the lesser id under lexicographic
// ordering, so ResolveChannel(a, b) == ResolveChannel(b, a) for all pairs.
//
// Plain concatenation is kept deliberately: it matches the key scheme of
// already-stored conversations, and changing it would be a breaking
// migration. The scheme is NOT injective for arbitrary variable-length
// ids ("1"+"23" collides with "3"+"12" ordering aside); see the
// collision test next to this file. With the uuid-shaped ids issued by
// the identity provider the ambiguity cannot occur in practice.
func ResolveChannel(a, b string) (ChannelID, error) {
	if a == "" || b == "" {
		return "", errors.ErrInvalidIdentity
	}
	if a > b {
		return ChannelID(a + b), nil
	}
	return ChannelID(b + a), nil
}
