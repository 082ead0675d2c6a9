package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"comms-backend/internal/apperr"
	"comms-backend/internal/hub"
	"comms-backend/internal/models"
	"comms-backend/internal/services"
)

// SendMessage persists a direct message and fans out newMessage to every
// connection of the recipient.
func SendMessage(users *services.UserService, messages *services.MessageService, router *hub.Router) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		var req models.SendMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}
		if req.Content == "" || req.RecipientID == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "recipient_id and content are required"})
		}

		if _, err := users.FindUserByID(c.Context(), req.RecipientID); err != nil {
			return fail(c, err)
		}

		msg, err := messages.CreateDirectMessage(c.Context(), userID, req.RecipientID, req.Content)
		if err != nil {
			return fail(c, err)
		}

		router.ToUser(req.RecipientID, hub.EventNewMessage, msg, "")

		return c.Status(fiber.StatusCreated).JSON(msg)
	}
}

// GetMessages returns the conversation with another user, marks the peer's
// messages as read, and emits a read receipt to the peer.
func GetMessages(users *services.UserService, messages *services.MessageService, router *hub.Router) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		peerID, err := strconv.Atoi(c.Params("userId"))
		if err != nil {
			return fail(c, fmt.Errorf("%w: invalid user id", apperr.ErrInvalidArgument))
		}
		if _, err := users.FindUserByID(c.Context(), peerID); err != nil {
			return fail(c, err)
		}

		conversation, err := messages.ListConversation(c.Context(), userID, peerID)
		if err != nil {
			return fail(c, err)
		}

		updated, err := messages.MarkConversationRead(c.Context(), userID, peerID)
		if err != nil {
			return fail(c, err)
		}
		if updated > 0 {
			router.ToUser(peerID, hub.EventMessagesRead, fiber.Map{"by": userID}, "")
		}

		if conversation == nil {
			conversation = []models.Message{}
		}
		return c.JSON(conversation)
	}
}

// UnreadSource is the slice of the message service the unread endpoint reads.
type UnreadSource interface {
	UnreadCounts(ctx context.Context, userID int) (int64, []models.UnreadSenderCount, error)
}

// UnreadMessageCount reports how many direct messages await the caller,
// total and per sender.
func UnreadMessageCount(messages UnreadSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		total, bySender, err := messages.UnreadCounts(c.Context(), userID)
		if err != nil {
			return fail(c, err)
		}
		if bySender == nil {
			bySender = []models.UnreadSenderCount{}
		}
		return c.JSON(fiber.Map{
			"totalUnread":  total,
			"unreadByUser": bySender,
		})
	}
}

// DeleteMessage soft-deletes one of the caller's own messages and notifies
// the recipient.
func DeleteMessage(messages *services.MessageService, router *hub.Router) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		id, err := strconv.ParseInt(c.Params("messageId"), 10, 64)
		if err != nil {
			return fail(c, fmt.Errorf("%w: invalid message id", apperr.ErrInvalidArgument))
		}

		msg, err := messages.GetMessage(c.Context(), id)
		if err != nil {
			return fail(c, err)
		}
		if msg.SenderID != userID {
			return fail(c, fmt.Errorf("%w: not the sender of this message", apperr.ErrForbidden))
		}

		if err := messages.SoftDeleteMessage(c.Context(), id); err != nil {
			return fail(c, err)
		}

		if msg.RecipientID != nil {
			router.ToUser(*msg.RecipientID, hub.EventMessageDeleted, fiber.Map{"messageId": id}, "")
		}

		return c.JSON(fiber.Map{"message": "Message deleted"})
	}
}
