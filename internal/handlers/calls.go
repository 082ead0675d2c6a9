package handlers

import (
	"github.com/gofiber/fiber/v2"

	"comms-backend/internal/call"
	"comms-backend/internal/models"
)

// InitiateCall creates a call session and notifies the receiver.
func InitiateCall(calls *call.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		var req models.InitiateCallRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}

		session, roomID, err := calls.Initiate(c.Context(), userID, req.ReceiverID, req.Type)
		if err != nil {
			return fail(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"call":   session,
			"roomId": roomID,
		})
	}
}

// AcceptCall transitions the call to ongoing.
func AcceptCall(calls *call.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		session, err := calls.Accept(c.Context(), c.Params("callId"), userID)
		if err != nil {
			return fail(c, err)
		}

		return c.JSON(fiber.Map{
			"call":   session,
			"roomId": call.RoomID(session.ID),
		})
	}
}

// RejectCall transitions the call to rejected.
func RejectCall(calls *call.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		if _, err := calls.Reject(c.Context(), c.Params("callId"), userID); err != nil {
			return fail(c, err)
		}

		return c.JSON(fiber.Map{"message": "Call rejected"})
	}
}

// EndCall completes an ongoing call and reports its duration.
func EndCall(calls *call.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		session, err := calls.End(c.Context(), c.Params("callId"), userID)
		if err != nil {
			return fail(c, err)
		}

		return c.JSON(fiber.Map{
			"message":  "Call ended",
			"duration": session.DurationSeconds,
		})
	}
}

// CallHistory lists the user's calls, newest first.
func CallHistory(calls *call.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		sessions, err := calls.History(c.Context(), userID)
		if err != nil {
			return fail(c, err)
		}
		if sessions == nil {
			sessions = []models.CallSession{}
		}
		return c.JSON(sessions)
	}
}
