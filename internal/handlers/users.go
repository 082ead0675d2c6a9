package handlers

import (
	"github.com/gofiber/fiber/v2"

	"comms-backend/internal/hub"
	"comms-backend/internal/models"
	"comms-backend/internal/services"
)

// Login verifies credentials and issues a token.
func Login(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}

		res, err := users.Login(c.Context(), req)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

// ListUsers returns the roster with stored presence fields. The presence
// manager keeps status and last_seen current, so no live lookup is needed.
func ListUsers(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authUserID := c.Locals("user_id").(int)

		all, err := users.ListUsers(c.Context())
		if err != nil {
			return fail(c, err)
		}

		resp := make([]models.User, 0, len(all))
		for _, u := range all {
			if u.ID == authUserID {
				continue
			}
			resp = append(resp, u)
		}
		return c.JSON(resp)
	}
}

// UpdateStatus applies an explicit user-requested presence status.
func UpdateStatus(presence *hub.Presence) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(int)

		var req models.UpdateStatusRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
		}

		change, err := presence.SetManualStatus(c.Context(), userID, req.Status)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(change)
	}
}
