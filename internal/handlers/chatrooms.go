package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"comms-backend/internal/apperr"
	"comms-backend/internal/hub"
	"comms-backend/internal/models"
	"comms-backend/internal/services"
)

// CreateChatRoom creates a room. The creator is always a participant; every
// other participant is notified with newChatRoom.
func CreateChatRoom(chat *services.ChatService, router *hub.Router) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		var req models.CreateChatRoomRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}
		if req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}

		participants := dedupeWith(userID, req.Participants)

		room, err := chat.CreateChatRoom(c.Context(), req.Name, userID, participants)
		if err != nil {
			return fail(c, err)
		}

		for _, participantID := range room.Participants {
			if participantID == userID {
				continue
			}
			router.ToUser(participantID, hub.EventNewChatRoom, room, "")
		}

		return c.Status(fiber.StatusCreated).JSON(room)
	}
}

// ListChatRooms returns every room the caller participates in.
func ListChatRooms(chat *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		rooms, err := chat.ListChatRoomsForUser(c.Context(), userID)
		if err != nil {
			return fail(c, err)
		}
		if rooms == nil {
			rooms = []models.ChatRoom{}
		}
		return c.JSON(rooms)
	}
}

// GetChatRoom returns a single room; participants only.
func GetChatRoom(chat *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		room, err := chat.GetChatRoom(c.Context(), c.Params("roomId"))
		if err != nil {
			return fail(c, err)
		}
		if !room.HasParticipant(userID) {
			return fail(c, fmt.Errorf("%w: not a participant of this chat room", apperr.ErrForbidden))
		}
		return c.JSON(room)
	}
}

// AddParticipants adds users to a room. Everyone gets chatRoomUpdated; the
// newcomers also get addedToChatRoom.
func AddParticipants(chat *services.ChatService, router *hub.Router) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		var req models.AddParticipantsRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}

		room, err := chat.GetChatRoom(c.Context(), c.Params("roomId"))
		if err != nil {
			return fail(c, err)
		}
		if !room.HasParticipant(userID) && room.CreatedBy != userID {
			return fail(c, fmt.Errorf("%w: not authorized to modify this chat room", apperr.ErrForbidden))
		}

		var newcomers []int
		for _, id := range req.Participants {
			if !room.HasParticipant(id) {
				newcomers = append(newcomers, id)
			}
		}
		if len(newcomers) == 0 {
			return fail(c, fmt.Errorf("%w: all users are already participants", apperr.ErrInvalidArgument))
		}

		if err := chat.AddParticipants(c.Context(), room.ID, newcomers); err != nil {
			return fail(c, err)
		}

		updated, err := chat.GetChatRoom(c.Context(), room.ID)
		if err != nil {
			return fail(c, err)
		}

		for _, participantID := range updated.Participants {
			router.ToUser(participantID, hub.EventChatRoomUpdated, updated, "")
		}
		for _, participantID := range newcomers {
			router.ToUser(participantID, hub.EventAddedToChatRoom, updated, "")
		}

		return c.JSON(updated)
	}
}

// RemoveParticipant removes one user from a room. Only the creator may
// remove others; anyone may remove themselves; the creator cannot be
// removed by someone else. A room falling below two participants is
// deleted.
func RemoveParticipant(chat *services.ChatService, router *hub.Router) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		targetID, err := strconv.Atoi(c.Params("userId"))
		if err != nil {
			return fail(c, fmt.Errorf("%w: invalid user id", apperr.ErrInvalidArgument))
		}

		room, err := chat.GetChatRoom(c.Context(), c.Params("roomId"))
		if err != nil {
			return fail(c, err)
		}
		if room.CreatedBy != userID && targetID != userID {
			return fail(c, fmt.Errorf("%w: not authorized to remove participants", apperr.ErrForbidden))
		}
		if targetID == room.CreatedBy && targetID != userID {
			return fail(c, fmt.Errorf("%w: cannot remove the creator of the chat room", apperr.ErrInvalidArgument))
		}

		if err := chat.RemoveParticipant(c.Context(), room.ID, targetID); err != nil {
			return fail(c, err)
		}

		var remaining []int
		for _, id := range room.Participants {
			if id != targetID {
				remaining = append(remaining, id)
			}
		}

		if len(remaining) < 2 {
			if err := chat.DeleteChatRoom(c.Context(), room.ID); err != nil {
				return fail(c, err)
			}
			for _, participantID := range remaining {
				router.ToUser(participantID, hub.EventChatRoomDeleted, fiber.Map{"roomId": room.ID}, "")
			}
			return c.JSON(fiber.Map{"message": "Chat room deleted due to insufficient participants"})
		}

		updated, err := chat.GetChatRoom(c.Context(), room.ID)
		if err != nil {
			return fail(c, err)
		}
		for _, participantID := range updated.Participants {
			router.ToUser(participantID, hub.EventChatRoomUpdated, updated, "")
		}
		router.ToUser(targetID, hub.EventRemovedFromChatRoom, fiber.Map{"roomId": room.ID}, "")

		return c.JSON(updated)
	}
}

// SendRoomMessage persists a chat-room message, maintains the room's
// lastMessage pointer, and notifies every participant except the sender.
func SendRoomMessage(chat *services.ChatService, messages *services.MessageService, router *hub.Router) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		var req models.SendRoomMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}
		if req.Content == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content is required"})
		}

		room, err := chat.GetChatRoom(c.Context(), c.Params("roomId"))
		if err != nil {
			return fail(c, err)
		}
		if !room.HasParticipant(userID) {
			return fail(c, fmt.Errorf("%w: not a participant of this chat room", apperr.ErrForbidden))
		}

		msg, err := messages.CreateRoomMessage(c.Context(), userID, room.ID, req.Content)
		if err != nil {
			return fail(c, err)
		}
		if err := chat.SetLastMessage(c.Context(), room.ID, msg.ID); err != nil {
			return fail(c, err)
		}

		notifyRoomMessage(router, room, userID, msg)

		return c.Status(fiber.StatusCreated).JSON(msg)
	}
}

// GetRoomMessages returns a room's history; participants only.
func GetRoomMessages(chat *services.ChatService, messages *services.MessageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		room, err := chat.GetChatRoom(c.Context(), c.Params("roomId"))
		if err != nil {
			return fail(c, err)
		}
		if !room.HasParticipant(userID) {
			return fail(c, fmt.Errorf("%w: not a participant of this chat room", apperr.ErrForbidden))
		}

		history, err := messages.ListRoomMessages(c.Context(), room.ID)
		if err != nil {
			return fail(c, err)
		}
		if history == nil {
			history = []models.Message{}
		}
		return c.JSON(history)
	}
}

// notifyRoomMessage fans a room message out to every participant except the
// sender. Exclusion is by user, so none of the sender's devices receive it,
// while every device of the other participants does.
func notifyRoomMessage(router *hub.Router, room *models.ChatRoom, senderID int, msg *models.Message) {
	for _, participantID := range room.Participants {
		if participantID == senderID {
			continue
		}
		router.ToUser(participantID, hub.EventNewChatRoomMessage, fiber.Map{
			"roomId":  room.ID,
			"message": msg,
		}, "")
	}
}

// dedupeWith returns ids with first prepended and duplicates removed,
// keeping first-seen order.
func dedupeWith(first int, ids []int) []int {
	seen := map[int]struct{}{first: {}}
	out := []int{first}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
