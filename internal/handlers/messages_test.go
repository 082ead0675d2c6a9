package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comms-backend/internal/models"
)

type stubUnreadSource struct {
	total    int64
	bySender []models.UnreadSenderCount
	gotUser  int
}

func (s *stubUnreadSource) UnreadCounts(_ context.Context, userID int) (int64, []models.UnreadSenderCount, error) {
	s.gotUser = userID
	return s.total, s.bySender, nil
}

func newUnreadApp(source UnreadSource) *fiber.App {
	app := fiber.New()
	app.Get("/api/messages/unread", func(c *fiber.Ctx) error {
		c.Locals("user_id", 7)
		return c.Next()
	}, UnreadMessageCount(source))
	return app
}

func TestUnreadMessageCount(t *testing.T) {
	source := &stubUnreadSource{
		total: 3,
		bySender: []models.UnreadSenderCount{
			{SenderID: 2, SenderName: "bob", Count: 2},
			{SenderID: 3, SenderName: "carol", Count: 1},
		},
	}
	app := newUnreadApp(source)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/messages/unread", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"totalUnread": 3,
		"unreadByUser": [
			{"senderId": 2, "senderName": "bob", "count": 2},
			{"senderId": 3, "senderName": "carol", "count": 1}
		]
	}`, string(body))
	assert.Equal(t, 7, source.gotUser, "counts must be scoped to the authenticated user")
}

func TestUnreadMessageCountEmpty(t *testing.T) {
	app := newUnreadApp(&stubUnreadSource{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/messages/unread", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalUnread": 0, "unreadByUser": []}`, string(body))
}
