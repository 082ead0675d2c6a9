package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"comms-backend/internal/hub"
)

// WebSocketHandler runs one socket session: admit into the hub, pump
// inbound frames, and tear down on close. AuthMiddleware has already
// verified the token by the time this runs.
func WebSocketHandler(h *hub.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID := c.Locals("user_id").(int)
		username := c.Locals("username").(string)

		ctx := context.Background()
		conn := h.Connect(ctx, c, userID, username)
		defer func() {
			h.Disconnect(ctx, conn.ID)
			c.Close()
		}()

		for {
			msgType, msg, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("error: %v", err)
				}
				break
			}
			if msgType != websocket.TextMessage {
				continue
			}
			h.HandleInbound(ctx, conn, msg)
		}
	})
}
