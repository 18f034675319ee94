// Package event defines the closed set of realtime events exchanged with clients.
// Every outbound payload is one of the types below; nothing else reaches a socket.
package event

import (
	"agora/domain"
	"encoding/json"
	"time"
)

const (
	NameConnected           = "connected"
	NameError               = "error"
	NameRoomJoined          = "room-joined"
	NameRoomLeft            = "room-left"
	NameConversationCreated = "conversation-created"
	NameMessageReceived     = "message-received"
	NameMessageDeleted      = "message-deleted"
	NameMessageRead         = "message-read"
	NameMessageReacted      = "message-reacted"
	NameTyping              = "typing"
	NameUserOnline          = "user-online"
	NameUserOffline         = "user-offline"
	NameNotification        = "notification"
	NameCallIncoming        = "call-incoming"
	NameCallSignal          = "call-signal"
	NameCallRejected        = "call-rejected"
	NameCallEnded           = "call-ended"
	NameLoungeUpdated       = "lounge-updated"
)

// Outbound is implemented only by the event types of this package.
type Outbound interface {
	Name() string
	outbound()
}

// Frame is the wire shape of every realtime message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode serializes evt into a Frame.
func Encode(evt Outbound) ([]byte, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: evt.Name(), Data: data})
}

type Connected struct {
	Identity domain.Profile `json:"identity"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoomJoined struct {
	Room string `json:"room"`
}

type RoomLeft struct {
	Room string `json:"room"`
}

type ConversationCreated struct {
	Conversation domain.Conversation `json:"conversation"`
}

type MessageReceived struct {
	ConversationID string                 `json:"conversationId"`
	Message        domain.ResolvedMessage `json:"message"`
}

type MessageDeleted struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

type MessageRead struct {
	ConversationID string    `json:"conversationId"`
	ReaderID       string    `json:"readerId"`
	MessageIDs     []string  `json:"messageIds"`
	At             time.Time `json:"at"`
}

type MessageReacted struct {
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
	UserID         string `json:"userId"`
	Emoji          string `json:"emoji,omitempty"`
	Change         string `json:"change"`
}

type Typing struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

type UserOnline struct {
	UserID string `json:"userId"`
}

type UserOffline struct {
	UserID string `json:"userId"`
}

type Notification struct {
	Notification domain.Notification `json:"notification"`
}

type CallIncoming struct {
	From    domain.Profile  `json:"from"`
	Room    string          `json:"room"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CallSignal struct {
	From    string          `json:"from"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

type CallRejected struct {
	From string `json:"from"`
	Room string `json:"room"`
}

type CallEnded struct {
	From string `json:"from"`
	Room string `json:"room"`
}

type LoungeMember struct {
	UserID string `json:"userId"`
	Muted  bool   `json:"muted"`
}

type LoungeUpdated struct {
	Members []LoungeMember `json:"members"`
}

func (Connected) Name() string           { return NameConnected }
func (Error) Name() string               { return NameError }
func (RoomJoined) Name() string          { return NameRoomJoined }
func (RoomLeft) Name() string            { return NameRoomLeft }
func (ConversationCreated) Name() string { return NameConversationCreated }
func (MessageReceived) Name() string     { return NameMessageReceived }
func (MessageDeleted) Name() string      { return NameMessageDeleted }
func (MessageRead) Name() string         { return NameMessageRead }
func (MessageReacted) Name() string      { return NameMessageReacted }
func (Typing) Name() string              { return NameTyping }
func (UserOnline) Name() string          { return NameUserOnline }
func (UserOffline) Name() string         { return NameUserOffline }
func (Notification) Name() string        { return NameNotification }
func (CallIncoming) Name() string        { return NameCallIncoming }
func (CallSignal) Name() string          { return NameCallSignal }
func (CallRejected) Name() string        { return NameCallRejected }
func (CallEnded) Name() string           { return NameCallEnded }
func (LoungeUpdated) Name() string       { return NameLoungeUpdated }

func (Connected) outbound()           {}
func (Error) outbound()               {}
func (RoomJoined) outbound()          {}
func (RoomLeft) outbound()            {}
func (ConversationCreated) outbound() {}
func (MessageReceived) outbound()     {}
func (MessageDeleted) outbound()      {}
func (MessageRead) outbound()         {}
func (MessageReacted) outbound()      {}
func (Typing) outbound()              {}
func (UserOnline) outbound()          {}
func (UserOffline) outbound()         {}
func (Notification) outbound()        {}
func (CallIncoming) outbound()        {}
func (CallSignal) outbound()          {}
func (CallRejected) outbound()        {}
func (CallEnded) outbound()           {}
func (LoungeUpdated) outbound()       {}
