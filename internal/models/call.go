package models

import "time"

// CallStatus is the state tag of a call session. Transitions are guarded by
// the call manager; the persisted record is re-checked on every transition.
type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallOngoing   CallStatus = "ongoing"
	CallCompleted CallStatus = "completed"
	CallRejected  CallStatus = "rejected"
	// CallMissed is representable but has no producing transition: no timer
	// expires an initiated call in this design.
	CallMissed CallStatus = "missed"
)

// Terminal reports whether no further transition is allowed from s.
func (s CallStatus) Terminal() bool {
	switch s {
	case CallCompleted, CallRejected, CallMissed:
		return true
	}
	return false
}

// CallKind is the media kind requested for a call.
type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)

// ValidCallKind reports whether k is a recognized call kind.
func ValidCallKind(k CallKind) bool {
	return k == CallAudio || k == CallVideo
}

// CallSession is the persisted call record. It is immutable once Status is
// terminal; DurationSeconds is only meaningful then.
type CallSession struct {
	ID              string     `json:"id"`
	CallerID        int        `json:"callerId"`
	ReceiverID      int        `json:"receiverId"`
	Kind            CallKind   `json:"type"`
	Status          CallStatus `json:"status"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
	DurationSeconds int64      `json:"durationSeconds"`
}

// Participant reports whether userID is the caller or the receiver.
func (c *CallSession) Participant(userID int) bool {
	return userID == c.CallerID || userID == c.ReceiverID
}

// OtherParticipant returns the participant that is not userID.
func (c *CallSession) OtherParticipant(userID int) int {
	if userID == c.CallerID {
		return c.ReceiverID
	}
	return c.CallerID
}

// CallTransition describes the target of a conditional status update.
type CallTransition struct {
	To              CallStatus
	EndTime         *time.Time
	DurationSeconds int64
}

type InitiateCallRequest struct {
	ReceiverID int      `json:"receiver_id"`
	Type       CallKind `json:"type"`
}
