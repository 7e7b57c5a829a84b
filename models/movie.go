package models

import "time"

// Ratings are whole numbers on a 0..10 scale
const (
	MinRating = 0
	MaxRating = 10
)

// WatchedMovie is one rated entry in a user's watched list
type WatchedMovie struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	PosterPath string    `json:"posterPath,omitempty"`
	Overview   string    `json:"overview,omitempty"`
	Rating     int       `json:"rating"`
	RatedAt    time.Time `json:"ratedAt"`
}

// ValidRating reports whether r is inside the rating scale
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// WatchedStats summarizes a watched list
type WatchedStats struct {
	Count     int                `json:"count"`
	Average   float64            `json:"average"`
	Histogram [MaxRating + 1]int `json:"histogram"` // index = rating
}

// MovieSummary is a catalog search hit
type MovieSummary struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	PosterPath  string `json:"posterPath,omitempty"`
	Overview    string `json:"overview,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
}

// MovieDetails is the catalog detail record for one movie
type MovieDetails struct {
	MovieSummary
	Tagline      string   `json:"tagline,omitempty"`
	BackdropPath string   `json:"backdropPath,omitempty"`
	Runtime      int      `json:"runtime,omitempty"` // minutes
	VoteAverage  float64  `json:"voteAverage,omitempty"`
	Genres       []string `json:"genres,omitempty"`
}
