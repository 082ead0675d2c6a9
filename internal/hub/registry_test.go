package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSocket records every event written to it; shared by the hub tests.
type fakeSocket struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (f *fakeSocket) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("write failed")
	}
	if ev, ok := v.(Event); ok {
		f.events = append(f.events, ev)
	}
	return nil
}

func (f *fakeSocket) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeSocket) Close() error { return nil }

func (f *fakeSocket) received(name string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Event
	for _, ev := range f.events {
		if ev.Event == name {
			out = append(out, ev)
		}
	}
	return out
}

func TestRegistryOnlineTracksLiveConnections(t *testing.T) {
	reg := NewRegistry()

	assert.False(t, reg.IsOnline(1))
	assert.Empty(t, reg.LiveConnectionsFor(1))

	c1, first := reg.Admit(1, "alice", &fakeSocket{})
	assert.True(t, first)
	assert.True(t, reg.IsOnline(1))

	c2, first := reg.Admit(1, "alice", &fakeSocket{})
	assert.False(t, first, "second device must not count as coming online")
	assert.Len(t, reg.LiveConnectionsFor(1), 2)

	_, last, ok := reg.Remove(c1.ID)
	require.True(t, ok)
	assert.False(t, last, "one device left, user is still online")
	assert.True(t, reg.IsOnline(1))

	userID, last, ok := reg.Remove(c2.ID)
	require.True(t, ok)
	assert.True(t, last)
	assert.Equal(t, 1, userID)
	assert.False(t, reg.IsOnline(1))
	assert.Empty(t, reg.LiveConnectionsFor(1))
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	c, _ := reg.Admit(1, "alice", &fakeSocket{})

	_, _, ok := reg.Remove(c.ID)
	assert.True(t, ok)
	_, _, ok = reg.Remove(c.ID)
	assert.False(t, ok)
	_, _, ok = reg.Remove("never-admitted")
	assert.False(t, ok)
}

func TestRegistryAutoJoinsUserRoom(t *testing.T) {
	reg := NewRegistry()
	c, _ := reg.Admit(7, "bob", &fakeSocket{})

	members := reg.MembersOf(UserRoom(7))
	require.Len(t, members, 1)
	assert.Equal(t, c.ID, members[0].ID)
	assert.Equal(t, []string{UserRoom(7)}, reg.Subscriptions(c.ID))
}

func TestRegistryJoinLeaveScopedToConnection(t *testing.T) {
	reg := NewRegistry()
	c1, _ := reg.Admit(1, "alice", &fakeSocket{})
	c2, _ := reg.Admit(1, "alice", &fakeSocket{})

	reg.Join(c1.ID, "room-x")
	reg.Join(c1.ID, "room-x") // idempotent

	members := reg.MembersOf("room-x")
	require.Len(t, members, 1, "joining is per connection, not per user")
	assert.Equal(t, c1.ID, members[0].ID)

	// leaving with the other connection changes nothing
	reg.Leave(c2.ID, "room-x")
	assert.Len(t, reg.MembersOf("room-x"), 1)

	reg.Leave(c1.ID, "room-x")
	assert.Empty(t, reg.MembersOf("room-x"))
	reg.Leave(c1.ID, "room-x") // idempotent
}

func TestRegistryRemoveClearsAllSubscriptions(t *testing.T) {
	reg := NewRegistry()
	c, _ := reg.Admit(1, "alice", &fakeSocket{})
	reg.Join(c.ID, "room-a")
	reg.Join(c.ID, "room-b")

	_, _, ok := reg.Remove(c.ID)
	require.True(t, ok)

	assert.Empty(t, reg.MembersOf("room-a"))
	assert.Empty(t, reg.MembersOf("room-b"))
	assert.Empty(t, reg.MembersOf(UserRoom(1)))
	assert.Empty(t, reg.Subscriptions(c.ID))
}

func TestRegistryConcurrentAdmitRemove(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			c, _ := reg.Admit(userID, "user", &fakeSocket{})
			reg.Join(c.ID, "shared")
			reg.Remove(c.ID)
		}(i % 5)
	}
	wg.Wait()

	assert.Empty(t, reg.AllConnections())
	assert.Empty(t, reg.MembersOf("shared"))
	for i := 0; i < 5; i++ {
		assert.False(t, reg.IsOnline(i))
	}
}
