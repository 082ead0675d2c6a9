package hub

import (
	"encoding/json"
	"time"
)

// Event is the envelope for everything pushed to a client.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Events emitted to clients. All are fire-and-forget; clients never
// acknowledge them.
const (
	EventConnected           = "connected"
	EventUserStatusChange    = "userStatusChange"
	EventIncomingCall        = "incomingCall"
	EventCallAccepted        = "callAccepted"
	EventCallRejected        = "callRejected"
	EventCallEnded           = "callEnded"
	EventNewMessage          = "newMessage"
	EventNewChatRoomMessage  = "newChatRoomMessage"
	EventMessagesRead        = "messagesRead"
	EventMessageDeleted      = "messageDeleted"
	EventTyping              = "typing"
	EventRTCSignal           = "rtcSignal"
	EventNewChatRoom         = "newChatRoom"
	EventChatRoomUpdated     = "chatRoomUpdated"
	EventAddedToChatRoom     = "addedToChatRoom"
	EventRemovedFromChatRoom = "removedFromChatRoom"
	EventChatRoomDeleted     = "chatRoomDeleted"
)

// Events consumed from clients over the socket.
const (
	ClientJoinRoom  = "joinRoom"
	ClientLeaveRoom = "leaveRoom"
	ClientTyping    = "typing"
	ClientRTCSignal = "rtcSignal"
)

// ClientEvent is the inbound socket frame. Fields are a union over all
// client events; the Event tag decides which ones matter.
type ClientEvent struct {
	Event       string          `json:"event"`
	RoomID      string          `json:"roomId,omitempty"`
	RecipientID int             `json:"recipientId,omitempty"`
	IsTyping    bool            `json:"isTyping,omitempty"`
	To          int             `json:"to,omitempty"`
	CallID      string          `json:"callId,omitempty"`
	Type        string          `json:"type,omitempty"`
	Signal      json.RawMessage `json:"signal,omitempty"`
}

// StatusChangePayload announces a presence transition.
type StatusChangePayload struct {
	UserID   int        `json:"userId"`
	Status   string     `json:"status"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// TypingPayload mirrors a typing indicator to the peer or room.
type TypingPayload struct {
	UserID   int    `json:"userId"`
	Name     string `json:"name"`
	RoomID   string `json:"roomId,omitempty"`
	IsTyping bool   `json:"isTyping"`
}

// SignalPayload carries an opaque call-setup blob between two users. The
// server never inspects Signal.
type SignalPayload struct {
	From   int             `json:"from"`
	Signal json.RawMessage `json:"signal"`
	CallID string          `json:"callId"`
	Type   string          `json:"type"`
}
