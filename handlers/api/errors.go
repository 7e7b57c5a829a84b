package api

import (
	"errors"

	"pipocanota/storage"
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// ErrorHandler renders every error as {"success": false, "error": ...} in
// the request's language
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	messageID := "error_internal"

	if appErr, ok := utils.AsAppError(err); ok {
		code = appErr.Code
		messageID = appErr.MessageID
		if code >= fiber.StatusInternalServerError {
			utils.Log.WithFields(appErr.Context).Error("Application error on %s %s: %v", c.Method(), c.Path(), appErr)
		} else {
			utils.Log.Debug("Request error on %s %s: %v", c.Method(), c.Path(), appErr)
		}
	} else if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		switch code {
		case fiber.StatusNotFound:
			messageID = "error_404"
		case fiber.StatusInternalServerError:
		default:
			messageID = "error_bad_request"
		}
	} else {
		utils.Log.Error("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   utils.T(localizerOf(c), messageID),
		"code":    messageID,
	})
}

// storageError maps repository errors to API errors
func storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrDuplicateEmail):
		return utils.ConflictError("error_duplicate_email", "email already registered", err)
	case errors.Is(err, storage.ErrInvalidCredentials):
		return utils.UnauthorizedError("error_invalid_credentials", "invalid credentials", err)
	case errors.Is(err, storage.ErrInvalidInput):
		return utils.BadRequestError("error_invalid_input", "invalid input", err)
	case errors.Is(err, storage.ErrInvalidRating):
		return utils.BadRequestError("error_invalid_rating", "invalid rating", err)
	case errors.Is(err, storage.ErrInvalidTheme):
		return utils.BadRequestError("error_invalid_theme", "invalid theme", err)
	case errors.Is(err, storage.ErrMovieNotFound), errors.Is(err, storage.ErrUserNotFound):
		return utils.NotFoundError("error_movie_not_found", "not found", err)
	default:
		return utils.InternalServerError("storage failure", err)
	}
}

// movieIDParam reads the :id route parameter as a positive TMDB id
func movieIDParam(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, utils.BadRequestError("error_invalid_movie_id", "invalid movie id", err)
	}
	return id, nil
}

func localizerOf(c *fiber.Ctx) *i18n.Localizer {
	localizer, _ := c.Locals("localizer").(*i18n.Localizer)
	return localizer
}
