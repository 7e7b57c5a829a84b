package api

import (
	"errors"

	"pipocanota/catalog"
	"pipocanota/models"
	"pipocanota/storage"
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
)

// MovieHandler serves catalog search and details
type MovieHandler struct {
	catalog *catalog.Client
	watched *storage.WatchedStorage
}

// NewMovieHandler creates a new movie handler
func NewMovieHandler(client *catalog.Client, watched *storage.WatchedStorage) *MovieHandler {
	return &MovieHandler{catalog: client, watched: watched}
}

// Search looks titles up in the catalog. Catalog failures never become HTTP
// errors; the response carries "degraded": true and no results instead.
func (h *MovieHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")

	results, err := h.catalog.SearchResult(c.UserContext(), query)
	degraded := err != nil
	if degraded {
		utils.Log.WithField("query", query).Warn("Catalog search degraded: %v", err)
		results = []models.MovieSummary{}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"results":    results,
		"degraded":   degraded,
		"configured": h.catalog.Configured(),
	})
}

// Details returns catalog details plus the user's own rating, if any
func (h *MovieHandler) Details(c *fiber.Ctx) error {
	id, err := movieIDParam(c)
	if err != nil {
		return err
	}

	var entry *models.WatchedMovie
	if userID, ok := c.Locals("userId").(string); ok {
		entry, err = h.watched.Get(c.UserContext(), userID, id)
		if err != nil && !errors.Is(err, storage.ErrMovieNotFound) {
			return storageError(err)
		}
	}

	movie, err := h.catalog.Details(c.UserContext(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		return utils.NotFoundError("error_movie_not_found", "movie not found", err)
	}
	degraded := err != nil
	if degraded {
		utils.Log.WithField("movie", id).Warn("Catalog details degraded: %v", err)
	}

	resp := fiber.Map{
		"success":  true,
		"movie":    movie,
		"watched":  entry,
		"degraded": degraded,
	}
	if movie != nil {
		resp["posterUrl"] = h.catalog.PosterURL(movie.PosterPath)
	}
	return c.JSON(resp)
}
