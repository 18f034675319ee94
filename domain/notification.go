// Package domain contains core concepts of the realtime core.
// This file defines notification records, preferences and push subscriptions.
package domain

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationMention NotificationType = "mention"
	NotificationMessage NotificationType = "message"
	NotificationSystem  NotificationType = "system"
	NotificationTag     NotificationType = "tag"
	NotificationGift    NotificationType = "gift"
)

// Debounced types collapse repeated actions into one unread record.
func (t NotificationType) Debounced() bool {
	return t == NotificationLike || t == NotificationFollow
}

// Category is the preference switch gating a type. Empty means never gated.
func (t NotificationType) Category() Category {
	switch t {
	case NotificationLike:
		return CategoryLikes
	case NotificationComment, NotificationMention:
		return CategoryComments
	case NotificationFollow:
		return CategoryFollows
	case NotificationMessage:
		return CategoryMessages
	default:
		return ""
	}
}

// TargetKey is the data payload field naming the object acted upon.
const TargetKey = "target"

type Notification struct {
	ID        string           `json:"id"`
	Recipient string           `json:"recipient"`
	Actor     string           `json:"actor,omitempty"`
	Type      NotificationType `json:"type"`
	Data      map[string]any   `json:"data,omitempty"`
	Message   string           `json:"message,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Target extracts the debounce target from the payload.
func (n Notification) Target() string {
	if n.Data == nil {
		return ""
	}
	target, _ := n.Data[TargetKey].(string)
	return target
}

type Category string

const (
	CategoryLikes    Category = "likes"
	CategoryComments Category = "comments"
	CategoryFollows  Category = "follows"
	CategoryMessages Category = "messages"
)

type Preferences struct {
	UserID   string `json:"userId"`
	Likes    bool   `json:"likes"`
	Comments bool   `json:"comments"`
	Follows  bool   `json:"follows"`
	Messages bool   `json:"messages"`
}

func DefaultPreferences(userID string) Preferences {
	return Preferences{UserID: userID, Likes: true, Comments: true, Follows: true, Messages: true}
}

func (p Preferences) Allows(c Category) bool {
	switch c {
	case CategoryLikes:
		return p.Likes
	case CategoryComments:
		return p.Comments
	case CategoryFollows:
		return p.Follows
	case CategoryMessages:
		return p.Messages
	default:
		return true
	}
}

// PushSubscription holds an opaque descriptor for offline delivery.
type PushSubscription struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Descriptor json.RawMessage `json:"descriptor"`
	CreatedAt  time.Time       `json:"createdAt"`
}
