package hub

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (*Registry, *Router) {
	reg := NewRegistry()
	return reg, NewRouter(reg, hclog.NewNullLogger())
}

func TestRouterToRoomExcludesSender(t *testing.T) {
	reg, router := newTestRouter()

	s1, s2, s3 := &fakeSocket{}, &fakeSocket{}, &fakeSocket{}
	c1, _ := reg.Admit(1, "alice", s1)
	c2, _ := reg.Admit(2, "bob", s2)
	c3, _ := reg.Admit(3, "carol", s3)
	reg.Join(c1.ID, "room-r")
	reg.Join(c2.ID, "room-r")
	reg.Join(c3.ID, "room-r")

	router.ToRoom("room-r", "typing", "payload", c1.ID)

	assert.Empty(t, s1.received("typing"))
	assert.Len(t, s2.received("typing"), 1)
	assert.Len(t, s3.received("typing"), 1)
}

func TestRouterToUserReachesEveryDevice(t *testing.T) {
	reg, router := newTestRouter()

	s1, s2, other := &fakeSocket{}, &fakeSocket{}, &fakeSocket{}
	reg.Admit(1, "alice", s1)
	reg.Admit(1, "alice", s2)
	reg.Admit(2, "bob", other)

	router.ToUser(1, "newMessage", "hi", "")

	assert.Len(t, s1.received("newMessage"), 1)
	assert.Len(t, s2.received("newMessage"), 1)
	assert.Empty(t, other.received("newMessage"))
}

func TestRouterSkipsFailingConnections(t *testing.T) {
	reg, router := newTestRouter()

	healthy, broken := &fakeSocket{}, &fakeSocket{fail: true}
	c1, _ := reg.Admit(1, "alice", healthy)
	c2, _ := reg.Admit(2, "bob", broken)
	reg.Join(c1.ID, "room-r")
	reg.Join(c2.ID, "room-r")

	// A failing connection must not prevent delivery to the rest.
	router.ToRoom("room-r", "chat", "m1", "")
	router.ToRoom("room-r", "chat", "m2", "")

	assert.Len(t, healthy.received("chat"), 2)
	assert.Empty(t, broken.received("chat"))
}

func TestRouterPerConnectionOrdering(t *testing.T) {
	reg, router := newTestRouter()

	s := &fakeSocket{}
	c, _ := reg.Admit(1, "alice", s)
	reg.Join(c.ID, "room-r")

	for i := 0; i < 10; i++ {
		router.ToRoom("room-r", "seq", i, "")
	}

	got := s.received("seq")
	require.Len(t, got, 10)
	for i, ev := range got {
		assert.Equal(t, i, ev.Data)
	}
}

func TestRouterNoDeliveryAfterRemoval(t *testing.T) {
	reg, router := newTestRouter()

	s := &fakeSocket{}
	c, _ := reg.Admit(1, "alice", s)
	reg.Join(c.ID, "room-r")
	reg.Remove(c.ID)

	router.ToRoom("room-r", "chat", "late", "")
	router.ToUser(1, "chat", "late", "")
	router.BroadcastAll("chat", "late", "")

	assert.Empty(t, s.received("chat"))
}
