// Package domain contains core concepts of the realtime core.
// This file defines identities as handed over by the auth collaborator.
package domain

// Identity is the durable account resolved from a bearer credential.
type Identity struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	AvatarRef   string `json:"avatarRef,omitempty"`
	Role        string `json:"role"`
	Banned      bool   `json:"banned"`
	Deactivated bool   `json:"deactivated"`
}

// Rejected tells whether the identity may not open a session.
func (i Identity) Rejected() bool {
	return i.Banned || i.Deactivated
}

// Profile is the public projection embedded in outbound events.
type Profile struct {
	ID          string `json:"id"`
	Handle      string `json:"handle,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarRef   string `json:"avatarRef,omitempty"`
}

func (i Identity) Profile() Profile {
	return Profile{ID: i.ID, Handle: i.Handle, DisplayName: i.DisplayName, AvatarRef: i.AvatarRef}
}
