package models

import "time"

// Message belongs either to a direct pair (RecipientID set) or to a chat
// room (ChatRoomID set), never both.
type Message struct {
	ID          int64     `json:"id"`
	SenderID    int       `json:"sender_id"`
	RecipientID *int      `json:"recipient_id,omitempty"`
	ChatRoomID  *string   `json:"chat_room_id,omitempty"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	Deleted     bool      `json:"deleted"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnreadSenderCount is one row of the per-sender unread breakdown.
type UnreadSenderCount struct {
	SenderID   int    `json:"senderId"`
	SenderName string `json:"senderName"`
	Count      int64  `json:"count"`
}

type SendMessageRequest struct {
	RecipientID int    `json:"recipient_id"`
	Content     string `json:"content"`
}

type SendRoomMessageRequest struct {
	Content string `json:"content"`
}
