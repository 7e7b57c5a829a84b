package catalog

import "errors"

var (
	// ErrMissingAPIKey means no TMDB credential is configured
	ErrMissingAPIKey = errors.New("tmdb api key not configured")
	// ErrUpstream wraps non-success HTTP statuses
	ErrUpstream = errors.New("tmdb request failed")
	// ErrNotFound is a 404 from the details endpoint
	ErrNotFound = errors.New("movie not found in catalog")
)
