package credential

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

// Store reads and writes secrets in the OS keyring
type Store struct {
	ring keyring.Keyring
}

// Open opens the keyring for the given service. backend may name a single
// keyring backend ("file", "keychain", "secret-service", "wincred", "pass");
// empty tries them in order.
func Open(service, backend string) (*Store, error) {
	allowed := []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
		keyring.FileBackend,
	}
	if backend != "" {
		allowed = []keyring.BackendType{keyring.BackendType(backend)}
	}

	home, _ := os.UserHomeDir()
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              service,
		AllowedBackends:          allowed,
		FileDir:                  filepath.Join(home, ".config", service, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt(service + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewStore wraps an already opened keyring
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Get retrieves a secret by key
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a secret by key
func (s *Store) Set(key, value string) error {
	if err := s.ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a secret by key
func (s *Store) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Resolve returns plain when set, otherwise the keyring value stored under key.
// Both empty resolves to an empty secret.
func (s *Store) Resolve(plain, key string) (string, error) {
	if plain != "" || key == "" {
		return plain, nil
	}
	if s == nil {
		return "", fmt.Errorf("credential %q requested but no keyring is available", key)
	}
	return s.Get(key)
}
