package hub

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"comms-backend/internal/utils"
)

// Hub is the real-time core: it owns the connection registry, the fan-out
// router, presence, and the signaling relay, and dispatches inbound socket
// events.
type Hub struct {
	Registry *Registry
	Router   *Router
	Presence *Presence
	Relay    *Relay

	log hclog.Logger
}

func New(store PresenceStore, log hclog.Logger) *Hub {
	reg := NewRegistry()
	router := NewRouter(reg, log)
	return &Hub{
		Registry: reg,
		Router:   router,
		Presence: NewPresence(router, store, log.Named("presence")),
		Relay:    NewRelay(router),
		log:      log,
	}
}

// Connect admits an authenticated socket: the registry registers it and
// auto-joins its user-room, presence announces online if it is the user's
// first connection, and the client is told its connection id.
func (h *Hub) Connect(ctx context.Context, wc wireConn, userID int, username string) *Connection {
	conn, first := h.Registry.Admit(userID, username, wc)
	h.log.Info("connection admitted", "user", userID, "conn", conn.ID)

	h.Presence.ConnectionAdmitted(ctx, userID, first)

	if err := conn.Send(Event{Event: EventConnected, Data: map[string]string{"connectionId": conn.ID}}); err != nil {
		h.log.Debug("welcome send failed", "conn", conn.ID, "error", err)
	}
	return conn
}

// Disconnect removes the connection and all its subscriptions; presence
// announces offline only if no other live connection remains for the user.
// Idempotent.
func (h *Hub) Disconnect(ctx context.Context, connID string) {
	userID, last, ok := h.Registry.Remove(connID)
	if !ok {
		return
	}
	h.log.Info("connection removed", "user", userID, "conn", connID)
	h.Presence.ConnectionRemoved(ctx, userID, last)
}

// HandleInbound dispatches one raw socket frame from conn. Malformed or
// unknown frames are dropped; the socket stays open.
func (h *Hub) HandleInbound(ctx context.Context, conn *Connection, raw []byte) {
	var ev ClientEvent
	if err := utils.SafeJSONParse(raw, &ev); err != nil {
		h.log.Debug("malformed client event", "conn", conn.ID, "error", err)
		return
	}

	switch ev.Event {
	case ClientJoinRoom:
		if ev.RoomID == "" {
			return
		}
		h.Registry.Join(conn.ID, ev.RoomID)
	case ClientLeaveRoom:
		if ev.RoomID == "" {
			return
		}
		h.Registry.Leave(conn.ID, ev.RoomID)
	case ClientTyping:
		h.handleTyping(conn, &ev)
	case ClientRTCSignal:
		if ev.To == 0 {
			return
		}
		h.Relay.Relay(conn.UserID, ev.To, ev.CallID, ev.Type, ev.Signal)
	default:
		h.log.Debug("unknown client event", "event", ev.Event, "conn", conn.ID)
	}
}

// handleTyping mirrors a typing indicator either to a chat room (excluding
// the sender's own connection) or directly to a recipient's user-room.
func (h *Hub) handleTyping(conn *Connection, ev *ClientEvent) {
	payload := TypingPayload{
		UserID:   conn.UserID,
		Name:     conn.Username,
		IsTyping: ev.IsTyping,
	}
	switch {
	case ev.RoomID != "":
		payload.RoomID = ev.RoomID
		h.Router.ToRoom(ev.RoomID, EventTyping, payload, conn.ID)
	case ev.RecipientID != 0:
		h.Router.ToUser(ev.RecipientID, EventTyping, payload, conn.ID)
	}
}
