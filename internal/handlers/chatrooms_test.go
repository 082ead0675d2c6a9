package handlers

import (
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comms-backend/internal/hub"
	"comms-backend/internal/models"
)

// recordingSocket collects every event pushed to one connection.
type recordingSocket struct {
	mu     sync.Mutex
	events []hub.Event
}

func (s *recordingSocket) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev, ok := v.(hub.Event); ok {
		s.events = append(s.events, ev)
	}
	return nil
}

func (s *recordingSocket) SetWriteDeadline(time.Time) error { return nil }

func (s *recordingSocket) Close() error { return nil }

func (s *recordingSocket) received(name string) []hub.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []hub.Event
	for _, ev := range s.events {
		if ev.Event == name {
			out = append(out, ev)
		}
	}
	return out
}

func TestRoomMessageFanOutSkipsEverySenderDevice(t *testing.T) {
	reg := hub.NewRegistry()
	router := hub.NewRouter(reg, hclog.NewNullLogger())

	// the sender is connected twice; exclusion is by user, not connection
	aliceTab1, aliceTab2 := &recordingSocket{}, &recordingSocket{}
	bobSock, carolSock, daveSock := &recordingSocket{}, &recordingSocket{}, &recordingSocket{}
	reg.Admit(1, "alice", aliceTab1)
	reg.Admit(1, "alice", aliceTab2)
	reg.Admit(2, "bob", bobSock)
	reg.Admit(3, "carol", carolSock)
	reg.Admit(4, "dave", daveSock)

	room := &models.ChatRoom{ID: "room-r", Name: "general", CreatedBy: 1, Participants: []int{1, 2, 3}}
	msg := &models.Message{ID: 11, SenderID: 1, ChatRoomID: &room.ID, Content: "hello"}

	notifyRoomMessage(router, room, 1, msg)

	assert.Empty(t, aliceTab1.received(hub.EventNewChatRoomMessage))
	assert.Empty(t, aliceTab2.received(hub.EventNewChatRoomMessage))
	for _, s := range []*recordingSocket{bobSock, carolSock} {
		got := s.received(hub.EventNewChatRoomMessage)
		require.Len(t, got, 1, "every other participant receives exactly one copy")
		payload := got[0].Data.(fiber.Map)
		assert.Equal(t, "room-r", payload["roomId"])
		assert.Equal(t, msg, payload["message"])
	}
	assert.Empty(t, daveSock.received(hub.EventNewChatRoomMessage),
		"connected non-participants receive nothing")
}

func TestRoomMessageFanOutSkipsOfflineParticipants(t *testing.T) {
	reg := hub.NewRegistry()
	router := hub.NewRouter(reg, hclog.NewNullLogger())

	bobSock := &recordingSocket{}
	reg.Admit(2, "bob", bobSock)
	// carol (3) holds no connection

	room := &models.ChatRoom{ID: "room-r", Name: "general", CreatedBy: 1, Participants: []int{1, 2, 3}}
	msg := &models.Message{ID: 12, SenderID: 1, ChatRoomID: &room.ID, Content: "anyone there"}

	notifyRoomMessage(router, room, 1, msg)

	require.Len(t, bobSock.received(hub.EventNewChatRoomMessage), 1)
}
