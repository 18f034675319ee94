// Package domain contains core concepts of the realtime core.
// This file defines the Conversation aggregate and its membership rules.
package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

const MinParticipants = 2

// Conversation is the persisted aggregate of participants and their ordered history.
// Messages are loaded page by page and never all at once.
type Conversation struct {
	ID           string         `json:"id"`
	Participants []string       `json:"participants"`
	IsGroup      bool           `json:"isGroup"`
	Name         string         `json:"name,omitempty"`
	Unread       map[string]int `json:"unread"`
	Messages     []Message      `json:"messages,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (c Conversation) HasParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}

// Others returns every participant except userID.
func (c Conversation) Others(userID string) []string {
	return lo.Without(c.Participants, userID)
}

// NormalizeMembers builds the unique, sorted participant set including the requester.
// Blank ids are dropped.
func NormalizeMembers(requester string, memberIDs []string) []string {
	all := append([]string{requester}, memberIDs...)
	all = lo.Map(all, func(id string, _ int) string { return strings.TrimSpace(id) })
	members := lo.Uniq(lo.Compact(all))
	slices.Sort(members)
	return members
}

// PairKey identifies the unique direct conversation between two identities,
// independently of the order they are given in.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
