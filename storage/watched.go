package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pipocanota/models"
	"pipocanota/utils"
)

// WatchedKey returns the key of userID's watched list
func WatchedKey(userID string) string {
	return "pipoca_nota_watched_" + userID + "_v1"
}

// storedWatched is the on-disk shape. Older app releases wrote poster_path
// and a millisecond addedAt instead of posterPath and ratedAt.
type storedWatched struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	PosterPath      string     `json:"posterPath,omitempty"`
	LegacyPoster    string     `json:"poster_path,omitempty"`
	Overview        string     `json:"overview,omitempty"`
	Rating          int        `json:"rating"`
	RatedAt         *time.Time `json:"ratedAt,omitempty"`
	LegacyAddedAtMS int64      `json:"addedAt,omitempty"`
}

func (w storedWatched) toModel() models.WatchedMovie {
	m := models.WatchedMovie{
		ID:         w.ID,
		Title:      w.Title,
		PosterPath: w.PosterPath,
		Overview:   w.Overview,
		Rating:     w.Rating,
	}
	if m.PosterPath == "" {
		m.PosterPath = w.LegacyPoster
	}
	switch {
	case w.RatedAt != nil:
		m.RatedAt = *w.RatedAt
	case w.LegacyAddedAtMS > 0:
		m.RatedAt = time.UnixMilli(w.LegacyAddedAtMS).UTC()
	}
	return m
}

func fromModel(m models.WatchedMovie) storedWatched {
	ratedAt := m.RatedAt
	return storedWatched{
		ID:         m.ID,
		Title:      m.Title,
		PosterPath: m.PosterPath,
		Overview:   m.Overview,
		Rating:     m.Rating,
		RatedAt:    &ratedAt,
	}
}

// WatchedStorage manages each user's watched list. The list is kept most
// recently saved first; saving an existing movie moves it to the front.
type WatchedStorage struct {
	kv  KeyValueStore
	mu  sync.Mutex
	now func() time.Time
}

// NewWatchedStorage creates a watched-list storage on top of kv
func NewWatchedStorage(kv KeyValueStore) *WatchedStorage {
	return &WatchedStorage{kv: kv, now: time.Now}
}

// List returns userID's watched movies, most recently saved first
func (s *WatchedStorage) List(ctx context.Context, userID string) ([]models.WatchedMovie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, userID)
}

// Get returns one entry of userID's list
func (s *WatchedStorage) Get(ctx context.Context, userID string, movieID int) (*models.WatchedMovie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == movieID {
			return &list[i], nil
		}
	}
	return nil, ErrMovieNotFound
}

// Upsert inserts movie or, when the id is already listed, replaces its rating
// and metadata. Empty title or poster keep the stored values. The stored list
// is not touched when the rating is out of range.
func (s *WatchedStorage) Upsert(ctx context.Context, userID string, movie models.WatchedMovie) (*models.WatchedMovie, error) {
	if !models.ValidRating(movie.Rating) {
		return nil, ErrInvalidRating
	}
	if movie.ID <= 0 || userID == "" {
		return nil, ErrInvalidInput
	}
	movie.Title = utils.CleanText(movie.Title)
	movie.Overview = utils.CleanText(movie.Overview)
	movie.PosterPath = strings.TrimSpace(movie.PosterPath)

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := movie
	rest := make([]models.WatchedMovie, 0, len(list)+1)
	for _, existing := range list {
		if existing.ID != movie.ID {
			rest = append(rest, existing)
			continue
		}
		if entry.Title == "" {
			entry.Title = existing.Title
		}
		if entry.PosterPath == "" {
			entry.PosterPath = existing.PosterPath
		}
		if entry.Overview == "" {
			entry.Overview = existing.Overview
		}
	}
	entry.RatedAt = s.now().UTC()

	updated := append([]models.WatchedMovie{entry}, rest...)
	if err := s.save(ctx, userID, updated); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Remove drops movieID from userID's list; a missing id is a no-op
func (s *WatchedStorage) Remove(ctx context.Context, userID string, movieID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	kept := list[:0]
	for _, m := range list {
		if m.ID != movieID {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	return s.save(ctx, userID, kept)
}

// Stats summarizes userID's ratings
func (s *WatchedStorage) Stats(ctx context.Context, userID string) (*models.WatchedStats, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.WatchedStats{Count: len(list)}
	if len(list) == 0 {
		return stats, nil
	}
	total := 0
	for _, m := range list {
		total += m.Rating
		if models.ValidRating(m.Rating) {
			stats.Histogram[m.Rating]++
		}
	}
	stats.Average = float64(total) / float64(len(list))
	return stats, nil
}

// load reads a list (must be called with lock held)
func (s *WatchedStorage) load(ctx context.Context, userID string) ([]models.WatchedMovie, error) {
	var stored []storedWatched
	if _, err := loadJSON(ctx, s.kv, WatchedKey(userID), &stored); err != nil {
		return nil, fmt.Errorf("failed to load watched list: %w", err)
	}

	list := make([]models.WatchedMovie, 0, len(stored))
	for _, w := range stored {
		list = append(list, w.toModel())
	}
	return list, nil
}

// save writes a list (must be called with lock held)
func (s *WatchedStorage) save(ctx context.Context, userID string, list []models.WatchedMovie) error {
	stored := make([]storedWatched, 0, len(list))
	for _, m := range list {
		stored = append(stored, fromModel(m))
	}
	return saveJSON(ctx, s.kv, WatchedKey(userID), stored)
}
