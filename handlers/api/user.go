package api

import (
	"pipocanota/models"
	"pipocanota/storage"

	"github.com/gofiber/fiber/v2"
)

// UserHandler lists the accounts registered on this device, for the
// "choose account" step of the login screen
type UserHandler struct {
	users *storage.UserStorage
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *storage.UserStorage) *UserHandler {
	return &UserHandler{users: users}
}

// GetUsers returns every account without credentials, oldest first
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext())
	if err != nil {
		return storageError(err)
	}

	public := make([]*models.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"users":   public,
	})
}
