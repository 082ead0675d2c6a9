package hub

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// writeWait bounds a single delivery attempt to one connection.
const writeWait = 10 * time.Second

// wireConn is the slice of the websocket connection the hub needs.
// *websocket.Conn satisfies it; tests use fakes.
type wireConn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Connection is one live transport session for an authenticated user.
// A user may own several at once (tabs, devices).
type Connection struct {
	ID       string
	UserID   int
	Username string

	conn    wireConn
	writeMu sync.Mutex
}

// Send writes one JSON payload to the connection. Writes are serialized per
// connection and bounded by writeWait, so a stuck peer cannot stall a
// broadcast indefinitely.
func (c *Connection) Send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// UserRoom returns the room every connection of userID is auto-joined to,
// giving every component a stable address for "deliver to this user
// regardless of room".
func UserRoom(userID int) string {
	return strconv.Itoa(userID)
}

// Registry tracks live connections and their room subscriptions. A single
// lock guards both tables, so removing a connection clears all of its
// subscriptions atomically: no fan-out started after Remove returns can
// target the removed connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection            // connID -> connection
	rooms map[string]map[string]*Connection // roomID -> connID -> connection
	subs  map[string]map[string]struct{}    // connID -> roomIDs
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Connection),
		rooms: make(map[string]map[string]*Connection),
		subs:  make(map[string]map[string]struct{}),
	}
}

// Admit registers a new connection for userID and auto-joins it to the
// user's own room. The second return value is true if this is the user's
// first live connection.
func (r *Registry) Admit(userID int, username string, wc wireConn) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	first := !r.onlineLocked(userID)
	c := &Connection{
		ID:       uuid.New().String(),
		UserID:   userID,
		Username: username,
		conn:     wc,
	}
	r.conns[c.ID] = c
	r.joinLocked(c, UserRoom(userID))
	return c, first
}

// Remove drops the connection and every room subscription it holds. It is
// idempotent. The returned last flag is true when this was the user's last
// live connection.
func (r *Registry) Remove(connID string) (userID int, last bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.conns[connID]
	if !exists {
		return 0, false, false
	}

	for roomID := range r.subs[connID] {
		r.leaveLocked(connID, roomID)
	}
	delete(r.subs, connID)
	delete(r.conns, connID)

	return c.UserID, !r.onlineLocked(c.UserID), true
}

// Join subscribes the single connection (not the whole user) to roomID.
// Idempotent; joining an unknown connection is a no-op.
func (r *Registry) Join(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return
	}
	r.joinLocked(c, roomID)
}

// Leave removes the connection's subscription to roomID. Idempotent.
func (r *Registry) Leave(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, roomID)
}

func (r *Registry) joinLocked(c *Connection, roomID string) {
	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = make(map[string]*Connection)
	}
	r.rooms[roomID][c.ID] = c

	if _, ok := r.subs[c.ID]; !ok {
		r.subs[c.ID] = make(map[string]struct{})
	}
	r.subs[c.ID][roomID] = struct{}{}
}

func (r *Registry) leaveLocked(connID, roomID string) {
	if conns, ok := r.rooms[roomID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.rooms, roomID)
		}
	}
	if rooms, ok := r.subs[connID]; ok {
		delete(rooms, roomID)
	}
}

// MembersOf returns a snapshot of the connections subscribed to roomID.
func (r *Registry) MembersOf(roomID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.rooms[roomID]))
	for _, c := range r.rooms[roomID] {
		conns = append(conns, c)
	}
	return conns
}

// LiveConnectionsFor returns a snapshot of every live connection owned by
// userID.
func (r *Registry) LiveConnectionsFor(userID int) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conns []*Connection
	for _, c := range r.conns {
		if c.UserID == userID {
			conns = append(conns, c)
		}
	}
	return conns
}

// IsOnline reports whether userID has at least one live connection.
func (r *Registry) IsOnline(userID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked(userID)
}

func (r *Registry) onlineLocked(userID int) bool {
	for _, c := range r.conns {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// AllConnections returns a snapshot of every live connection.
func (r *Registry) AllConnections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Subscriptions returns a snapshot of the room ids connID is subscribed to.
func (r *Registry) Subscriptions(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.subs[connID]))
	for roomID := range r.subs[connID] {
		rooms = append(rooms, roomID)
	}
	return rooms
}
