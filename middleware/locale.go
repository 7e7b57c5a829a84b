package middleware

import (
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
)

// langCookieAge keeps an explicit ?lang= choice for a year
const langCookieAge = 365 * 24 * 60 * 60

// LocaleMiddleware picks the response language from ?lang=, the lang cookie
// or Accept-Language, in that order. An explicit ?lang= is remembered in the
// cookie.
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var lang string
		switch {
		case c.Query("lang") != "":
			lang = utils.MatchLanguage(c.Query("lang"))
			c.Cookie(&fiber.Cookie{
				Name:     "lang",
				Value:    lang,
				Path:     "/",
				MaxAge:   langCookieAge,
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		case c.Cookies("lang") != "":
			lang = utils.MatchLanguage(c.Cookies("lang"))
		default:
			lang = utils.MatchLanguage(c.Get(fiber.HeaderAcceptLanguage))
		}

		c.Locals("localizer", utils.GetLocalizer(lang))
		c.Locals("lang", lang)

		return c.Next()
	}
}
