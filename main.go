package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pipocanota/auth"
	"pipocanota/catalog"
	"pipocanota/config"
	"pipocanota/handlers/api"
	"pipocanota/models"
	"pipocanota/storage"
	"pipocanota/utils"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		utils.Log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}
	utils.Log.SetLevel(utils.ParseLogLevel(cfg.Log.Level))
	utils.Log.Info("Initializing PipocaNota...")

	if err := utils.InitI18n(); err != nil {
		utils.Log.Error("Failed to initialize i18n: %v", err)
	}

	db, err := storage.InitDB(cfg.Storage.DataDir, cfg.Storage.DBFile)
	if err != nil {
		utils.Log.Error("Failed to open storage: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	users := storage.NewUserStorage(db)
	sessions := auth.NewService(users, storage.NewSessionStorage(db))
	watched := storage.NewWatchedStorage(db)
	theme := storage.NewThemeStorage(db, models.Theme(cfg.Theme.Default))

	ctx := context.Background()
	if user, err := sessions.Restore(ctx); err != nil {
		utils.Log.Warn("Failed to restore session: %v", err)
	} else if user != nil {
		utils.Log.WithField("user", user.ID).Info("Restored session")
	}

	movies := catalog.NewClient(catalog.Options{
		APIKey:            cfg.TMDB.APIKey,
		AuthMode:          cfg.TMDB.AuthMode,
		BaseURL:           cfg.TMDB.BaseURL,
		ImageBaseURL:      cfg.TMDB.ImageBaseURL,
		Language:          cfg.TMDB.Language,
		IncludeAdult:      cfg.TMDB.IncludeAdult,
		Timeout:           cfg.TMDB.Timeout.Duration,
		CacheTTL:          cfg.TMDB.CacheTTL.Duration,
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
	})
	defer movies.Close()

	if !filepath.IsAbs(cfg.Profile.ImageDir) {
		cfg.Profile.ImageDir = filepath.Join(cfg.Storage.DataDir, cfg.Profile.ImageDir)
	}

	app := api.NewApp(api.Dependencies{
		Config:    cfg,
		Sessions:  sessions,
		Users:     users,
		Watched:   watched,
		Theme:     theme,
		Catalog:   movies,
		AccessLog: true,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		utils.Log.Info("Shutting down...")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			utils.Log.Error("Error during shutdown: %v", err)
		}
	}()

	utils.Log.Info("Starting server on %s...", cfg.Server.Addr())
	if err := app.Listen(cfg.Server.Addr()); err != nil {
		utils.Log.Error("Error starting server: %v", err)
	}
}
