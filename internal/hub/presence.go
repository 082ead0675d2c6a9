package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"comms-backend/internal/apperr"
	"comms-backend/internal/models"
)

// PresenceStore persists a user's status and last-seen timestamp.
type PresenceStore interface {
	SetStatus(ctx context.Context, userID int, status string, lastSeen *time.Time) error
}

// Presence derives online/offline transitions from connection lifecycle and
// applies explicit user-initiated status changes. Automatic transitions fire
// only on the first admitted and last removed connection of a user, so
// closing one tab never marks a user offline while another tab is open.
type Presence struct {
	router *Router
	store  PresenceStore
	log    hclog.Logger
}

func NewPresence(router *Router, store PresenceStore, log hclog.Logger) *Presence {
	return &Presence{router: router, store: store, log: log}
}

// ConnectionAdmitted announces the user as online if this was their first
// live connection. Presence broadcasts are global, not room-scoped.
func (p *Presence) ConnectionAdmitted(ctx context.Context, userID int, first bool) {
	if !first {
		return
	}
	if err := p.store.SetStatus(ctx, userID, models.StatusOnline, nil); err != nil {
		p.log.Warn("failed to persist online status", "user", userID, "error", err)
	}
	p.router.BroadcastAll(EventUserStatusChange, StatusChangePayload{
		UserID: userID,
		Status: models.StatusOnline,
	}, "")
}

// ConnectionRemoved announces the user as offline if this was their last
// live connection, stamping lastSeen.
func (p *Presence) ConnectionRemoved(ctx context.Context, userID int, last bool) {
	if !last {
		return
	}
	now := time.Now()
	if err := p.store.SetStatus(ctx, userID, models.StatusOffline, &now); err != nil {
		p.log.Warn("failed to persist offline status", "user", userID, "error", err)
	}
	p.router.BroadcastAll(EventUserStatusChange, StatusChangePayload{
		UserID:   userID,
		Status:   models.StatusOffline,
		LastSeen: &now,
	}, "")
}

// SetManualStatus applies an explicit user-requested status. It broadcasts
// regardless of connection count; a manual offline does not disconnect
// sockets.
func (p *Presence) SetManualStatus(ctx context.Context, userID int, status string) (StatusChangePayload, error) {
	if !models.ValidStatus(status) {
		return StatusChangePayload{}, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidArgument, status)
	}

	var lastSeen *time.Time
	if status == models.StatusOffline {
		now := time.Now()
		lastSeen = &now
	}
	if err := p.store.SetStatus(ctx, userID, status, lastSeen); err != nil {
		return StatusChangePayload{}, err
	}

	change := StatusChangePayload{UserID: userID, Status: status, LastSeen: lastSeen}
	p.router.BroadcastAll(EventUserStatusChange, change, "")
	return change, nil
}
