// Package domain contains core concepts of the realtime core.
// This file defines Message entities and related rules.
package domain

import (
	"slices"
	"time"
)

// SystemSenderID authors departure notices and other server generated messages.
const SystemSenderID = "system"

// Message is owned by exactly one conversation.
// Reactions hold at most one entry per reactor; Readers only grows.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	Content        string     `json:"content,omitempty"`
	MediaRef       string     `json:"mediaRef,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	Reactions      []Reaction `json:"reactions"`
	Readers        []string   `json:"readers"`
}

type Reaction struct {
	UserID string    `json:"userId"`
	Emoji  string    `json:"emoji"`
	At     time.Time `json:"at"`
}

func (m Message) IsEmpty() bool {
	return m.Content == "" && m.MediaRef == ""
}

func (m Message) ReadBy(userID string) bool {
	return slices.Contains(m.Readers, userID)
}

// ReactionOf returns the reaction slot held by userID, if any.
func (m Message) ReactionOf(userID string) (Reaction, bool) {
	for _, r := range m.Reactions {
		if r.UserID == userID {
			return r, true
		}
	}
	return Reaction{}, false
}

// ResolvedMessage is a message enriched with its sender profile, ready for fanout.
type ResolvedMessage struct {
	Message
	Sender Profile `json:"sender"`
}

// ReactionChange is the outcome of a reaction toggle.
type ReactionChange int

const (
	ReactionAdded ReactionChange = iota + 1
	ReactionReplaced
	ReactionRemoved
)

func (r ReactionChange) String() string {
	switch r {
	case ReactionAdded:
		return "added"
	case ReactionReplaced:
		return "replaced"
	case ReactionRemoved:
		return "removed"
	default:
		return "unknown"
	}
}
