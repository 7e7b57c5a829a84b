package storage

import (
	"context"

	"pipocanota/models"
)

// ThemeKey holds the raw theme name, not JSON
const ThemeKey = "pipoca_nota_theme_mode"

// ThemeStorage persists the light/dark preference
type ThemeStorage struct {
	kv       KeyValueStore
	fallback models.Theme
}

// NewThemeStorage creates a theme storage; fallback is returned while nothing
// valid has been saved
func NewThemeStorage(kv KeyValueStore, fallback models.Theme) *ThemeStorage {
	if !fallback.Valid() {
		fallback = models.ThemeLight
	}
	return &ThemeStorage{kv: kv, fallback: fallback}
}

// Get returns the saved theme or the fallback
func (s *ThemeStorage) Get(ctx context.Context) (models.Theme, error) {
	raw, found, err := s.kv.Get(ctx, ThemeKey)
	if err != nil {
		return s.fallback, err
	}
	theme := models.Theme(raw)
	if !found || !theme.Valid() {
		return s.fallback, nil
	}
	return theme, nil
}

// Set saves theme
func (s *ThemeStorage) Set(ctx context.Context, theme models.Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	return s.kv.Set(ctx, ThemeKey, string(theme))
}
