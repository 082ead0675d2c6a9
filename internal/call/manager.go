package call

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"comms-backend/internal/apperr"
	"comms-backend/internal/hub"
	"comms-backend/internal/models"
)

// Store persists call sessions. TransitionCall applies tr only while the
// stored status still equals expect; it returns apperr.ErrConflict when the
// check fails and apperr.ErrNotFound when the session does not exist. That
// conditional update is what serializes racing transitions on one call id.
type Store interface {
	CreateCall(ctx context.Context, session *models.CallSession) error
	GetCall(ctx context.Context, id string) (*models.CallSession, error)
	TransitionCall(ctx context.Context, id string, expect models.CallStatus, tr models.CallTransition) (*models.CallSession, error)
	ListCallsForUser(ctx context.Context, userID int) ([]models.CallSession, error)
}

// Directory resolves user ids; receivers are validated before a session is
// created.
type Directory interface {
	UserExists(ctx context.Context, id int) (bool, error)
}

// Notifier is the slice of the fan-out router the manager emits through.
type Notifier interface {
	ToUser(userID int, event string, data interface{}, excludeConnID string)
}

// Manager owns the call lifecycle state machine:
//
//	initiated -> ongoing -> completed
//	initiated -> rejected
//
// Terminal sessions never transition again. "missed" is representable but
// has no producing transition here.
type Manager struct {
	store  Store
	users  Directory
	notify Notifier
	log    hclog.Logger

	now func() time.Time
}

func NewManager(store Store, users Directory, notify Notifier, log hclog.Logger) *Manager {
	return &Manager{
		store:  store,
		users:  users,
		notify: notify,
		log:    log,
		now:    time.Now,
	}
}

// RoomID returns the fan-out room for a call, derived from the session id.
func RoomID(callID string) string {
	return "call-" + callID
}

// IncomingCallPayload is sent to the receiver's user-room on initiate.
type IncomingCallPayload struct {
	Call   *models.CallSession `json:"call"`
	RoomID string              `json:"roomId"`
	From   int                 `json:"from"`
}

// AcceptedPayload is sent to the caller's user-room on accept.
type AcceptedPayload struct {
	Call   *models.CallSession `json:"call"`
	RoomID string              `json:"roomId"`
	By     int                 `json:"by"`
}

// RejectedPayload is sent to the caller's user-room on reject.
type RejectedPayload struct {
	CallID string `json:"callId"`
	By     int    `json:"by"`
}

// EndedPayload is sent to the participant that did not end the call.
type EndedPayload struct {
	CallID   string `json:"callId"`
	By       int    `json:"by"`
	Duration int64  `json:"duration"`
}

// Initiate creates a session in initiated and notifies the receiver.
// Exactly one session is created per attempt; concurrent calls between the
// same pair are not deduplicated.
func (m *Manager) Initiate(ctx context.Context, callerID, receiverID int, kind models.CallKind) (*models.CallSession, string, error) {
	if !models.ValidCallKind(kind) {
		return nil, "", fmt.Errorf("%w: invalid call type %q", apperr.ErrInvalidArgument, kind)
	}

	ok, err := m.users.UserExists(ctx, receiverID)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", fmt.Errorf("%w: receiver %d", apperr.ErrNotFound, receiverID)
	}

	session := &models.CallSession{
		ID:         uuid.New().String(),
		CallerID:   callerID,
		ReceiverID: receiverID,
		Kind:       kind,
		Status:     models.CallInitiated,
		StartTime:  m.now(),
	}
	if err := m.store.CreateCall(ctx, session); err != nil {
		return nil, "", err
	}

	roomID := RoomID(session.ID)
	m.notify.ToUser(receiverID, hub.EventIncomingCall, IncomingCallPayload{
		Call:   session,
		RoomID: roomID,
		From:   callerID,
	}, "")

	m.log.Info("call initiated", "call", session.ID, "caller", callerID, "receiver", receiverID, "type", kind)
	return session, roomID, nil
}

// Accept transitions initiated -> ongoing. Only the receiver may accept.
func (m *Manager) Accept(ctx context.Context, callID string, byUserID int) (*models.CallSession, error) {
	session, err := m.store.GetCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if byUserID != session.ReceiverID {
		return nil, fmt.Errorf("%w: only the receiver may accept this call", apperr.ErrForbidden)
	}
	if session.Status != models.CallInitiated {
		return nil, fmt.Errorf("%w: call is already %s", apperr.ErrConflict, session.Status)
	}

	// The conditional update closes the race with a concurrent reject or
	// double-accept: exactly one attempt passes.
	updated, err := m.store.TransitionCall(ctx, callID, models.CallInitiated, models.CallTransition{
		To: models.CallOngoing,
	})
	if err != nil {
		return nil, err
	}

	m.notify.ToUser(updated.CallerID, hub.EventCallAccepted, AcceptedPayload{
		Call:   updated,
		RoomID: RoomID(callID),
		By:     byUserID,
	}, "")

	m.log.Info("call accepted", "call", callID, "by", byUserID)
	return updated, nil
}

// Reject transitions initiated -> rejected with duration 0. Only the
// receiver may reject.
func (m *Manager) Reject(ctx context.Context, callID string, byUserID int) (*models.CallSession, error) {
	session, err := m.store.GetCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if byUserID != session.ReceiverID {
		return nil, fmt.Errorf("%w: only the receiver may reject this call", apperr.ErrForbidden)
	}
	if session.Status != models.CallInitiated {
		return nil, fmt.Errorf("%w: call is already %s", apperr.ErrConflict, session.Status)
	}

	end := m.now()
	updated, err := m.store.TransitionCall(ctx, callID, models.CallInitiated, models.CallTransition{
		To:      models.CallRejected,
		EndTime: &end,
	})
	if err != nil {
		return nil, err
	}

	m.notify.ToUser(updated.CallerID, hub.EventCallRejected, RejectedPayload{
		CallID: callID,
		By:     byUserID,
	}, "")

	m.log.Info("call rejected", "call", callID, "by", byUserID)
	return updated, nil
}

// End transitions ongoing -> completed, computing the duration in whole
// seconds, and notifies the other participant.
func (m *Manager) End(ctx context.Context, callID string, byUserID int) (*models.CallSession, error) {
	session, err := m.store.GetCall(ctx, callID)
	if err != nil {
		return nil, err
	}
	if !session.Participant(byUserID) {
		return nil, fmt.Errorf("%w: not a participant of this call", apperr.ErrForbidden)
	}
	if session.Status != models.CallOngoing {
		return nil, fmt.Errorf("%w: call is %s", apperr.ErrConflict, session.Status)
	}

	end := m.now()
	duration := int64(end.Sub(session.StartTime) / time.Second)
	if duration < 0 {
		duration = 0
	}
	updated, err := m.store.TransitionCall(ctx, callID, models.CallOngoing, models.CallTransition{
		To:              models.CallCompleted,
		EndTime:         &end,
		DurationSeconds: duration,
	})
	if err != nil {
		return nil, err
	}

	m.notify.ToUser(session.OtherParticipant(byUserID), hub.EventCallEnded, EndedPayload{
		CallID:   callID,
		By:       byUserID,
		Duration: updated.DurationSeconds,
	}, "")

	m.log.Info("call ended", "call", callID, "by", byUserID, "duration", updated.DurationSeconds)
	return updated, nil
}

// History returns every session the user took part in, newest start first.
func (m *Manager) History(ctx context.Context, userID int) ([]models.CallSession, error) {
	return m.store.ListCallsForUser(ctx, userID)
}
