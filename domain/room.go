package domain

import "strings"

// Well-known rooms. Conversation rooms are the bare conversation id.
const (
	LoungeRoom   = "lounge"
	PresenceRoom = "presence"

	userAddressPrefix = "user:"
)

// UserAddress is the canonical address reaching every live transport of one identity.
func UserAddress(identityID string) string {
	return userAddressPrefix + identityID
}

// IsUserAddress reports whether room is a canonical per-identity address.
func IsUserAddress(room string) bool {
	return strings.HasPrefix(room, userAddressPrefix)
}
