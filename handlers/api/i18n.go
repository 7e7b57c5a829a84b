package api

import (
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
)

// clientMessageIDs are the strings a client needs to render API errors itself
var clientMessageIDs = []string{
	"error_internal",
	"error_404",
	"error_bad_request",
	"error_invalid_input",
	"error_duplicate_email",
	"error_invalid_credentials",
	"error_unauthorized",
	"error_invalid_rating",
	"error_invalid_movie_id",
	"error_movie_not_found",
	"error_invalid_theme",
	"error_invalid_image",
	"error_rate_limited",
	"logged_out",
}

// I18nHandler handles i18n-related requests
type I18nHandler struct{}

// GetTranslations returns the client message table for a language
func (h *I18nHandler) GetTranslations(c *fiber.Ctx) error {
	lang := utils.MatchLanguage(c.Params("lang"))
	localizer := utils.GetLocalizer(lang)

	translations := make(map[string]string, len(clientMessageIDs))
	for _, id := range clientMessageIDs {
		translations[id] = utils.T(localizer, id)
	}

	return c.JSON(fiber.Map{
		"lang":         lang,
		"translations": translations,
	})
}
