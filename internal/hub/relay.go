package hub

import "encoding/json"

// Relay forwards opaque call-setup payloads (offers, answers, ICE
// candidates) between two users. It keeps no state and is not part of the
// call state machine: a relay may happen before a session is ongoing, e.g.
// during negotiation.
type Relay struct {
	router *Router
}

func NewRelay(router *Router) *Relay {
	return &Relay{router: router}
}

// Relay forwards the signal unchanged to every connection of toUserID.
func (r *Relay) Relay(fromUserID, toUserID int, callID, kind string, signal json.RawMessage) {
	r.router.ToUser(toUserID, EventRTCSignal, SignalPayload{
		From:   fromUserID,
		Signal: signal,
		CallID: callID,
		Type:   kind,
	}, "")
}
