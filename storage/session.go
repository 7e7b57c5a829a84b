package storage

import "context"

// SessionKey holds the JSON-encoded id of the logged-in user
const SessionKey = "pipoca_nota_current_user_v1"

// SessionStorage persists which user, if any, is logged in on this device.
// It does not check that the id still belongs to an existing user.
type SessionStorage struct {
	kv KeyValueStore
}

// NewSessionStorage creates a session storage on top of kv
func NewSessionStorage(kv KeyValueStore) *SessionStorage {
	return &SessionStorage{kv: kv}
}

// Start records userID as the current user
func (s *SessionStorage) Start(ctx context.Context, userID string) error {
	return saveJSON(ctx, s.kv, SessionKey, userID)
}

// Clear forgets the current user
func (s *SessionStorage) Clear(ctx context.Context) error {
	return s.kv.Remove(ctx, SessionKey)
}

// Restore returns the stored user id, if any
func (s *SessionStorage) Restore(ctx context.Context) (string, bool, error) {
	var userID string
	found, err := loadJSON(ctx, s.kv, SessionKey, &userID)
	if err != nil || !found || userID == "" {
		return "", false, err
	}
	return userID, true, nil
}
