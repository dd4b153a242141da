package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spec-kit/bus-tracking/internal/domain"
)

const (
	tokenKey = "token"
	userKey  = "user"
)

// ErrIncomplete is returned by Save when token or profile is missing.
var ErrIncomplete = errors.New("session requires both token and profile")

// Session is the client's view of who is signed in. Token and Profile are
// either both set or both empty.
type Session struct {
	Token   string
	Profile *domain.Profile
}

// Empty reports whether no one is signed in.
func (s Session) Empty() bool {
	return s.Token == "" || s.Profile == nil
}

// Store reads and writes the session through a Storage.
type Store struct {
	storage Storage
}

// NewStore wraps storage.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Save persists the pair. If the profile cannot be written the token write is
// undone so a half session never survives.
func (s *Store) Save(token string, profile domain.Profile) error {
	if token == "" || profile.ID == "" {
		return ErrIncomplete
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	prev, hadPrev, err := s.storage.Get(tokenKey)
	if err != nil {
		return err
	}
	if err := s.storage.Set(tokenKey, token); err != nil {
		return err
	}
	if err := s.storage.Set(userKey, string(raw)); err != nil {
		var rollback error
		if hadPrev {
			rollback = s.storage.Set(tokenKey, prev)
		} else {
			rollback = s.storage.Delete(tokenKey)
		}
		return errors.Join(err, rollback)
	}
	return nil
}

// Read returns the stored session. Missing, partial or undecodable data
// reads as an empty session.
func (s *Store) Read() Session {
	token, ok, err := s.storage.Get(tokenKey)
	if err != nil || !ok || token == "" {
		return Session{}
	}
	raw, ok, err := s.storage.Get(userKey)
	if err != nil || !ok {
		return Session{}
	}
	var profile domain.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil || profile.ID == "" {
		return Session{}
	}
	return Session{Token: token, Profile: &profile}
}

// Token returns the stored token, or "" when none.
func (s *Store) Token() string {
	token, ok, err := s.storage.Get(tokenKey)
	if err != nil || !ok {
		return ""
	}
	return token
}

// Clear removes both entries. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	return errors.Join(s.storage.Delete(tokenKey), s.storage.Delete(userKey))
}

// IsActive reports whether a token is present. It does not check expiry.
func (s *Store) IsActive() bool {
	return s.Token() != ""
}
