package credentials

import (
	"fmt"
	"sync"

	"wfseller/internal/storage"
)

// Field names a value held in the credentials file.
type Field string

const (
	Email    Field = "email"
	Password Field = "password"
	Token    Field = "token"
)

type Record struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Store owns the credentials file. Nothing else writes to it.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the whole record as currently persisted.
func (s *Store) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *Store) load() (Record, error) {
	var rec Record
	if err := storage.ReadJSON(s.path, &rec); err != nil {
		return Record{}, fmt.Errorf("credentials: %w", err)
	}
	return rec, nil
}

// Read returns a single field from the persisted record.
func (s *Store) Read(field Field) (string, error) {
	rec, err := s.Load()
	if err != nil {
		return "", err
	}

	switch field {
	case Email:
		return rec.Email, nil
	case Password:
		return rec.Password, nil
	case Token:
		return rec.Token, nil
	default:
		return "", fmt.Errorf("credentials: unknown field %q", field)
	}
}

// UpdateToken replaces the stored session token, keeping email and password.
// An error means the file on disk still holds the previous token.
func (s *Store) UpdateToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load()
	if err != nil {
		return err
	}

	rec.Token = token
	if err := storage.WriteJSON(s.path, rec); err != nil {
		return fmt.Errorf("credentials: %w", err)
	}

	return nil
}
