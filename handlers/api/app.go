package api

import (
	"time"

	"pipocanota/auth"
	"pipocanota/catalog"
	"pipocanota/config"
	"pipocanota/middleware"
	"pipocanota/storage"
	"pipocanota/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Dependencies are the services the HTTP layer is wired to
type Dependencies struct {
	Config   *config.Config
	Sessions *auth.Service
	Users    *storage.UserStorage
	Watched  *storage.WatchedStorage
	Theme    *storage.ThemeStorage
	Catalog  *catalog.Client
	// AccessLog enables fiber's request logger
	AccessLog bool
}

// NewApp builds the fiber application with all routes registered
func NewApp(d Dependencies) *fiber.App {
	cfg := d.Config

	app := fiber.New(fiber.Config{
		AppName:      "PipocaNota",
		ErrorHandler: ErrorHandler,
		BodyLimit:    cfg.Profile.MaxUploadMB * 1024 * 1024,
	})

	app.Use(recover.New())
	if d.AccessLog {
		app.Use(logger.New())
	}
	app.Use(middleware.LocaleMiddleware())
	app.Use(middleware.RateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window.Duration))

	authHandler := NewAuthHandler(d.Sessions)
	profileHandler := NewProfileHandler(d.Sessions, cfg.Profile.ImageDir, cfg.Profile.ImageMaxWidth)
	movieHandler := NewMovieHandler(d.Catalog, d.Watched)
	watchedHandler := NewWatchedHandler(d.Watched)
	settingsHandler := NewSettingsHandler(d.Theme)
	userHandler := NewUserHandler(d.Users)
	i18nHandler := &I18nHandler{}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"time":    time.Now().Format(time.RFC3339),
			"catalog": d.Catalog.Configured(),
		})
	})

	api := app.Group("/api")
	{
		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/login", authHandler.Login)
		api.Post("/auth/logout", authHandler.Logout)
		api.Get("/auth/me", authHandler.Me)
		api.Get("/users", userHandler.GetUsers)

		api.Get("/i18n/:lang", i18nHandler.GetTranslations)

		api.Get("/settings/theme", settingsHandler.GetTheme)
		api.Put("/settings/theme", settingsHandler.SetTheme)
	}

	protected := api.Group("", middleware.RequireSession(d.Sessions))
	{
		protected.Put("/profile/image", profileHandler.UpdateImage)
		protected.Post("/profile/image/upload", profileHandler.UploadImage)

		protected.Get("/movies/search", movieHandler.Search)
		protected.Get("/movies/:id", movieHandler.Details)

		protected.Get("/watched", watchedHandler.List)
		protected.Get("/watched/stats", watchedHandler.Stats)
		protected.Put("/watched/:id", watchedHandler.Upsert)
		protected.Delete("/watched/:id", watchedHandler.Remove)
	}

	app.Use(func(c *fiber.Ctx) error {
		return utils.NotFoundError("error_404", "route not found", nil)
	})

	return app
}
