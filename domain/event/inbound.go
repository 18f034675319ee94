package event

import "encoding/json"

const (
	InJoinRoom         = "join-room"
	InLeaveRoom        = "leave-room"
	InTyping           = "typing"
	InCallStart        = "call-start"
	InCallSignal       = "call-signal"
	InCallRejected     = "call-rejected"
	InCallEnded        = "call-ended"
	InLoungeJoin       = "lounge-join"
	InLoungeLeave      = "lounge-leave"
	InLoungeToggleMute = "lounge-toggle-mute"
)

type JoinRoom struct {
	Room string `json:"room" validate:"required,max=128"`
}

type LeaveRoom struct {
	Room string `json:"room" validate:"required,max=128"`
}

type TypingInput struct {
	ConversationID string `json:"conversationId" validate:"required,max=128"`
	IsTyping       bool   `json:"isTyping"`
}

type CallStartInput struct {
	To      string          `json:"to" validate:"required,max=128"`
	Room    string          `json:"room" validate:"required,max=128"`
	Kind    string          `json:"kind" validate:"omitempty,oneof=audio video live"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CallSignalInput is forwarded verbatim to either a user or a room.
type CallSignalInput struct {
	To      string          `json:"to,omitempty" validate:"required_without=Room,max=128"`
	Room    string          `json:"room,omitempty" validate:"required_without=To,max=128"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type CallRoomInput struct {
	Room string `json:"room" validate:"required,max=128"`
}
