package hub

import (
	"github.com/hashicorp/go-hclog"
)

// Router is the single choke point for event fan-out. Delivery is
// best-effort and fire-and-forget: a connection that fails to receive is
// skipped and the failure is logged, never surfaced to the triggering
// operation. Events fanned out to one connection arrive in the order the
// router processed them; no order is guaranteed across connections.
type Router struct {
	reg *Registry
	log hclog.Logger
}

func NewRouter(reg *Registry, log hclog.Logger) *Router {
	return &Router{reg: reg, log: log}
}

// ToUser delivers an event to every live connection of userID, i.e. the
// user's auto-joined room. excludeConnID may be empty.
func (r *Router) ToUser(userID int, event string, data interface{}, excludeConnID string) {
	r.fanOut(r.reg.LiveConnectionsFor(userID), event, data, excludeConnID)
}

// ToRoom delivers an event to every connection currently subscribed to
// roomID, except excludeConnID ("notify everyone but the sender").
func (r *Router) ToRoom(roomID, event string, data interface{}, excludeConnID string) {
	r.fanOut(r.reg.MembersOf(roomID), event, data, excludeConnID)
}

// BroadcastAll delivers an event to every live connection.
func (r *Router) BroadcastAll(event string, data interface{}, excludeConnID string) {
	r.fanOut(r.reg.AllConnections(), event, data, excludeConnID)
}

func (r *Router) fanOut(conns []*Connection, event string, data interface{}, excludeConnID string) {
	msg := Event{Event: event, Data: data}
	for _, c := range conns {
		if c.ID == excludeConnID {
			continue
		}
		if err := c.Send(msg); err != nil {
			// Likely a connection mid-teardown; its read loop will clean up.
			r.log.Debug("dropping event for connection", "event", event, "conn", c.ID, "error", err)
		}
	}
}
