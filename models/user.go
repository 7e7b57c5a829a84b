package models

import "time"

// User is a registered account on this device
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"passwordHash"`
	ProfileImageURI string    `json:"profileImageUri,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Public returns a copy safe to hand to API clients
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURI: u.ProfileImageURI,
		CreatedAt:       u.CreatedAt,
	}
}

// PublicUser is a User without credentials
type PublicUser struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	ProfileImageURI string    `json:"profileImageUri,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
