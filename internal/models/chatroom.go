package models

import "time"

// ChatRoom is a named multi-user room. Direct conversations do not use
// ChatRoom records; they are addressed through the per-user rooms the hub
// auto-joins every connection to.
type ChatRoom struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatedBy     int       `json:"created_by"`
	Participants  []int     `json:"participants"`
	LastMessageID *int64    `json:"last_message_id"`
	IsGroup       bool      `json:"is_group"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasParticipant reports whether userID is in the participant set.
func (r *ChatRoom) HasParticipant(userID int) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

type CreateChatRoomRequest struct {
	Name         string `json:"name"`
	Participants []int  `json:"participants"`
}

type AddParticipantsRequest struct {
	Participants []int `json:"participants"`
}
