package api

import (
	"pipocanota/auth"
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler exposes register/login/logout for the device session
type AuthHandler struct {
	sessions *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *auth.Service) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Register creates an account and logs it in
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req auth.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("error_bad_request", "invalid request", err)
	}

	user, err := h.sessions.Register(c.UserContext(), req)
	if err != nil {
		return storageError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user.Public(),
	})
}

// Login checks the credentials and starts a session
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("error_bad_request", "invalid request", err)
	}

	user, err := h.sessions.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return storageError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user.Public(),
	})
}

// Logout ends the session; logging out twice is fine
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.Logout(c.UserContext()); err != nil {
		return utils.InternalServerError("failed to clear session", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": utils.T(localizerOf(c), "logged_out"),
	})
}

// Me returns the logged-in user, or null
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := h.sessions.CurrentUser()
	if user == nil {
		return c.JSON(fiber.Map{
			"success":       true,
			"authenticated": false,
			"user":          nil,
		})
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"authenticated": true,
		"user":          user.Public(),
	})
}
