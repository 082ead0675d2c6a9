package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubConnectSendsWelcome(t *testing.T) {
	h, _ := newTestHub()

	s := &fakeSocket{}
	conn := h.Connect(context.Background(), s, 1, "alice")

	welcome := s.received(EventConnected)
	require.Len(t, welcome, 1)
	data := welcome[0].Data.(map[string]string)
	assert.Equal(t, conn.ID, data["connectionId"])
}

func TestHubJoinLeaveRoomEvents(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()

	s1, s2 := &fakeSocket{}, &fakeSocket{}
	c1 := h.Connect(ctx, s1, 1, "alice")
	c2 := h.Connect(ctx, s2, 2, "bob")

	h.HandleInbound(ctx, c1, []byte(`{"event":"joinRoom","roomId":"room-r"}`))
	h.HandleInbound(ctx, c2, []byte(`{"event":"joinRoom","roomId":"room-r"}`))
	assert.Len(t, h.Registry.MembersOf("room-r"), 2)

	h.HandleInbound(ctx, c2, []byte(`{"event":"leaveRoom","roomId":"room-r"}`))
	assert.Len(t, h.Registry.MembersOf("room-r"), 1)

	// missing room id is ignored
	h.HandleInbound(ctx, c1, []byte(`{"event":"joinRoom"}`))
	assert.Len(t, h.Registry.MembersOf("room-r"), 1)
}

func TestHubTypingToRoomExcludesSender(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()

	s1, s2 := &fakeSocket{}, &fakeSocket{}
	c1 := h.Connect(ctx, s1, 1, "alice")
	c2 := h.Connect(ctx, s2, 2, "bob")
	h.HandleInbound(ctx, c1, []byte(`{"event":"joinRoom","roomId":"room-r"}`))
	h.HandleInbound(ctx, c2, []byte(`{"event":"joinRoom","roomId":"room-r"}`))

	h.HandleInbound(ctx, c1, []byte(`{"event":"typing","roomId":"room-r","isTyping":true}`))

	assert.Empty(t, s1.received(EventTyping))
	got := s2.received(EventTyping)
	require.Len(t, got, 1)
	payload := got[0].Data.(TypingPayload)
	assert.Equal(t, 1, payload.UserID)
	assert.Equal(t, "alice", payload.Name)
	assert.Equal(t, "room-r", payload.RoomID)
	assert.True(t, payload.IsTyping)
}

func TestHubTypingDirect(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()

	s2 := &fakeSocket{}
	c1 := h.Connect(ctx, &fakeSocket{}, 1, "alice")
	h.Connect(ctx, s2, 2, "bob")

	h.HandleInbound(ctx, c1, []byte(`{"event":"typing","recipientId":2,"isTyping":false}`))

	got := s2.received(EventTyping)
	require.Len(t, got, 1)
	payload := got[0].Data.(TypingPayload)
	assert.Equal(t, 1, payload.UserID)
	assert.Empty(t, payload.RoomID)
	assert.False(t, payload.IsTyping)
}

func TestHubRelaysSignalsOpaque(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()

	s2a, s2b := &fakeSocket{}, &fakeSocket{}
	c1 := h.Connect(ctx, &fakeSocket{}, 1, "alice")
	h.Connect(ctx, s2a, 2, "bob")
	h.Connect(ctx, s2b, 2, "bob")

	raw := `{"event":"rtcSignal","to":2,"callId":"call-abc","type":"offer","signal":{"sdp":"v=0","nested":[1,2,3]}}`
	h.HandleInbound(ctx, c1, []byte(raw))

	for _, s := range []*fakeSocket{s2a, s2b} {
		got := s.received(EventRTCSignal)
		require.Len(t, got, 1, "signal must reach every device of the target user")
		payload := got[0].Data.(SignalPayload)
		assert.Equal(t, 1, payload.From)
		assert.Equal(t, "call-abc", payload.CallID)
		assert.Equal(t, "offer", payload.Type)
		assert.JSONEq(t, `{"sdp":"v=0","nested":[1,2,3]}`, string(payload.Signal))
	}
}

func TestHubIgnoresMalformedAndUnknownFrames(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()

	c1 := h.Connect(ctx, &fakeSocket{}, 1, "alice")

	h.HandleInbound(ctx, c1, []byte(`not json`))
	h.HandleInbound(ctx, c1, []byte(`{"event":"selfDestruct"}`))
	h.HandleInbound(ctx, c1, []byte(`{"event":"rtcSignal"}`)) // missing target

	// connection is still registered and addressable
	assert.True(t, h.Registry.IsOnline(1))
}

func TestClientEventSignalStaysRaw(t *testing.T) {
	var ev ClientEvent
	err := json.Unmarshal([]byte(`{"event":"rtcSignal","to":2,"signal":{"a":1}}`), &ev)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{"a":1}`), ev.Signal)
}
