package storage

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("name, email and password are required")
	ErrInvalidRating      = errors.New("rating must be between 0 and 10")
	ErrMovieNotFound      = errors.New("movie not in watched list")
	ErrInvalidTheme       = errors.New("theme must be light or dark")
)
