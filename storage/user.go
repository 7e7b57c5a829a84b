package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pipocanota/models"
	"pipocanota/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UsersKey holds the whole user collection as one JSON object keyed by
// normalized email
const UsersKey = "pipoca_nota_users_v1"

// legacyProofPrefix marks the reversible base64 "hash" written by the first
// app releases. Such records are accepted once and rehashed with bcrypt.
const legacyProofPrefix = "h_"

// userNamespace seeds the deterministic user ids
var userNamespace = uuid.MustParse("6f1c3c52-3b8e-4c1f-9a59-2f7f3c1d9e10")

// UserStorage manages the user collection. Every mutation reads the whole
// collection, changes it and writes it back (last writer wins).
type UserStorage struct {
	kv   KeyValueStore
	mu   sync.RWMutex
	cost int
	now  func() time.Time
}

// NewUserStorage creates a user storage on top of kv
func NewUserStorage(kv KeyValueStore) *UserStorage {
	return &UserStorage{
		kv:   kv,
		cost: bcrypt.DefaultCost,
		now:  time.Now,
	}
}

// SetHashCost changes the bcrypt cost for new hashes
func (s *UserStorage) SetHashCost(cost int) {
	s.cost = cost
}

// UserID derives the stable id for an email address
func UserID(email string) string {
	return uuid.NewSHA1(userNamespace, []byte(utils.NormalizeEmail(email))).String()
}

// FindByEmail looks a user up by email, ignoring case and surrounding spaces
func (s *UserStorage) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	user, ok := users[utils.NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserStorage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

// ListUsers returns every user, oldest first
func (s *UserStorage) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]*models.User, 0, len(users))
	for _, u := range users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].Email < list[j].Email
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// Register creates a new user. The collection is left untouched when the
// email is already taken.
func (s *UserStorage) Register(ctx context.Context, name, email, password, profileImageURI string) (*models.User, error) {
	name = utils.CleanText(name)
	key := utils.NormalizeEmail(email)
	if name == "" || key == "" || password == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if _, exists := users[key]; exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user := &models.User{
		ID:              UserID(key),
		Name:            name,
		Email:           key,
		PasswordHash:    string(hash),
		ProfileImageURI: strings.TrimSpace(profileImageURI),
		CreatedAt:       s.now().UTC(),
	}
	users[key] = user

	if err := s.saveUsers(ctx, users); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyCredentials returns the user when password matches the stored hash.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *UserStorage) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	user, ok := users[utils.NormalizeEmail(email)]
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if strings.HasPrefix(user.PasswordHash, legacyProofPrefix) {
		if user.PasswordHash != legacyProof(password) {
			return nil, ErrInvalidCredentials
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %v", err)
		}
		user.PasswordHash = string(hash)
		if err := s.saveUsers(ctx, users); err != nil {
			// the login itself is still valid
			utils.Log.WithField("user", user.ID).Warn("Failed to upgrade legacy password: %v", err)
		}
		return user, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	return user, nil
}

// UpdateProfileImage sets (or with an empty uri clears) the profile image.
// An unknown user is a no-op and yields nil, nil.
func (s *UserStorage) UpdateProfileImage(ctx context.Context, userID, uri string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		if u.ID != userID {
			continue
		}
		u.ProfileImageURI = strings.TrimSpace(uri)
		if err := s.saveUsers(ctx, users); err != nil {
			return nil, err
		}
		return u, nil
	}
	return nil, nil
}

// loadUsers reads the collection (must be called with lock held). Both the
// keyed object and the older array layout are understood.
func (s *UserStorage) loadUsers(ctx context.Context) (map[string]*models.User, error) {
	raw, found, err := s.kv.Get(ctx, UsersKey)
	if err != nil {
		return nil, err
	}
	users := make(map[string]*models.User)
	if !found {
		return users, nil
	}

	data := bytes.TrimSpace([]byte(raw))
	if len(data) > 0 && data[0] == '[' {
		var list []*models.User
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to unmarshal users: %v", err)
		}
		for _, u := range list {
			users[utils.NormalizeEmail(u.Email)] = u
		}
		return users, nil
	}

	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %v", err)
	}
	return users, nil
}

// saveUsers writes the collection (must be called with lock held)
func (s *UserStorage) saveUsers(ctx context.Context, users map[string]*models.User) error {
	return saveJSON(ctx, s.kv, UsersKey, users)
}

func legacyProof(password string) string {
	return legacyProofPrefix + base64.StdEncoding.EncodeToString([]byte(password))
}
