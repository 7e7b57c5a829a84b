package middleware

import (
	"pipocanota/auth"
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireSession rejects requests while nobody is logged in on the device
// and exposes the user to handlers as Locals("user")
func RequireSession(sessions *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := sessions.CurrentUser()
		if user == nil {
			return utils.UnauthorizedError("error_unauthorized", "not logged in", nil)
		}
		c.Locals("user", user)
		c.Locals("userId", user.ID)
		return c.Next()
	}
}
