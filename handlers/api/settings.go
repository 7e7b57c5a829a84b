package api

import (
	"pipocanota/models"
	"pipocanota/storage"
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
)

// SettingsHandler reads and writes device preferences
type SettingsHandler struct {
	theme *storage.ThemeStorage
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(theme *storage.ThemeStorage) *SettingsHandler {
	return &SettingsHandler{theme: theme}
}

// GetTheme returns the saved theme
func (h *SettingsHandler) GetTheme(c *fiber.Ctx) error {
	theme, err := h.theme.Get(c.UserContext())
	if err != nil {
		return storageError(err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"theme":   theme,
	})
}

// SetTheme saves "light" or "dark"
func (h *SettingsHandler) SetTheme(c *fiber.Ctx) error {
	var req struct {
		Theme models.Theme `json:"theme"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("error_bad_request", "invalid request", err)
	}

	if err := h.theme.Set(c.UserContext(), req.Theme); err != nil {
		return storageError(err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"theme":   req.Theme,
	})
}
