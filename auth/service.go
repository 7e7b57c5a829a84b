package auth

import (
	"context"
	"errors"
	"sync"

	"pipocanota/models"
	"pipocanota/storage"
	"pipocanota/utils"
)

// RegisterInput carries the sign-up form
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ProfileImageURI string `json:"profileImageUri"`
}

// Service is the device session: it owns who is logged in and keeps the
// persisted session key in step with it. Call Restore once at startup.
type Service struct {
	users    *storage.UserStorage
	sessions *storage.SessionStorage

	mu      sync.RWMutex
	current *models.User
}

// NewService creates a logged-out session over the given storages
func NewService(users *storage.UserStorage, sessions *storage.SessionStorage) *Service {
	return &Service{users: users, sessions: sessions}
}

// Restore loads the persisted session. An id that no longer resolves to a
// user is treated as logged out and the stale key is removed.
func (s *Service) Restore(ctx context.Context) (*models.User, error) {
	userID, ok, err := s.sessions.Restore(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.setCurrent(nil)
		return nil, nil
	}

	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrUserNotFound) {
		utils.Log.WithField("user", userID).Warn("Stored session points to a missing user; clearing it")
		s.setCurrent(nil)
		return nil, s.sessions.Clear(ctx)
	}
	if err != nil {
		return nil, err
	}

	s.setCurrent(user)
	return user, nil
}

// Register creates the account and logs it in
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	user, err := s.users.Register(ctx, in.Name, in.Email, in.Password, in.ProfileImageURI)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Start(ctx, user.ID); err != nil {
		return nil, err
	}
	s.setCurrent(user)
	utils.Log.WithField("user", user.ID).Info("Registered new user")
	return user, nil
}

// Login verifies the credentials and starts a session. On failure the
// current session, if any, is left as it was.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Start(ctx, user.ID); err != nil {
		return nil, err
	}
	s.setCurrent(user)
	utils.Log.WithField("user", user.ID).Info("User logged in")
	return user, nil
}

// Logout ends the session
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}
	s.setCurrent(nil)
	return nil
}

// CurrentUser returns the logged-in user or nil
func (s *Service) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// UpdateProfileImage changes the current user's picture. Without a session,
// or when the user vanished from storage, nothing happens.
func (s *Service) UpdateProfileImage(ctx context.Context, uri string) (*models.User, error) {
	current := s.CurrentUser()
	if current == nil {
		return nil, nil
	}
	user, err := s.users.UpdateProfileImage(ctx, current.ID, uri)
	if err != nil || user == nil {
		return nil, err
	}
	s.setCurrent(user)
	return user, nil
}

func (s *Service) setCurrent(user *models.User) {
	s.mu.Lock()
	s.current = user
	s.mu.Unlock()
}
