package api

import (
	"pipocanota/models"
	"pipocanota/storage"
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
)

// WatchedHandler manages the logged-in user's watched list
type WatchedHandler struct {
	watched *storage.WatchedStorage
}

// NewWatchedHandler creates a new watched-list handler
func NewWatchedHandler(watched *storage.WatchedStorage) *WatchedHandler {
	return &WatchedHandler{watched: watched}
}

// List returns the list, most recently rated first
func (h *WatchedHandler) List(c *fiber.Ctx) error {
	userID := c.Locals("userId").(string)

	list, err := h.watched.List(c.UserContext(), userID)
	if err != nil {
		return storageError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"movies":  list,
	})
}

// Stats returns count, average and histogram of the ratings
func (h *WatchedHandler) Stats(c *fiber.Ctx) error {
	userID := c.Locals("userId").(string)

	stats, err := h.watched.Stats(c.UserContext(), userID)
	if err != nil {
		return storageError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// Upsert rates a movie, adding it to the list if needed
func (h *WatchedHandler) Upsert(c *fiber.Ctx) error {
	userID := c.Locals("userId").(string)
	id, err := movieIDParam(c)
	if err != nil {
		return err
	}

	var req struct {
		Title      string `json:"title"`
		PosterPath string `json:"posterPath"`
		Overview   string `json:"overview"`
		Rating     *int   `json:"rating"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("error_bad_request", "invalid request", err)
	}
	if req.Rating == nil {
		return utils.BadRequestError("error_invalid_rating", "rating is required", nil)
	}

	entry, err := h.watched.Upsert(c.UserContext(), userID, models.WatchedMovie{
		ID:         id,
		Title:      req.Title,
		PosterPath: req.PosterPath,
		Overview:   req.Overview,
		Rating:     *req.Rating,
	})
	if err != nil {
		return storageError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"movie":   entry,
	})
}

// Remove drops a movie from the list; unknown ids succeed too
func (h *WatchedHandler) Remove(c *fiber.Ctx) error {
	userID := c.Locals("userId").(string)
	id, err := movieIDParam(c)
	if err != nil {
		return err
	}

	if err := h.watched.Remove(c.UserContext(), userID, id); err != nil {
		return storageError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
