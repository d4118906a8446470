package secret

import (
	"crypto/sha256"
	"fmt"
	"sync"
)

var (
	ErrSecretNotFound = fmt.Errorf("secret not found")
	ErrEmptyToken     = fmt.Errorf("token cannot be empty")
	ErrEmptyClient    = fmt.Errorf("client name cannot be empty")
)

// Store resolves API tokens to the name of the client they were issued to.
type Store interface {
	Get(token string) (string, error)
	Set(token, client string) error

	Close() error
}

// InMemoryStore keeps token digests only.
type InMemoryStore struct {
	mu      sync.RWMutex
	secrets map[[sha256.Size]byte]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		secrets: make(map[[sha256.Size]byte]string),
	}
}

// NewInMemoryStoreFromTokens registers every token of a client->token map.
func NewInMemoryStoreFromTokens(tokens map[string]string) (*InMemoryStore, error) {
	store := NewInMemoryStore()
	for client, token := range tokens {
		if err := store.Set(token, client); err != nil {
			return nil, fmt.Errorf("invalid token for client %q: %w", client, err)
		}
	}
	return store, nil
}

func (s *InMemoryStore) Get(token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, exists := s.secrets[sha256.Sum256([]byte(token))]
	if !exists {
		return "", ErrSecretNotFound
	}
	return client, nil
}

func (s *InMemoryStore) Set(token, client string) error {
	if token == "" {
		return ErrEmptyToken
	}
	if client == "" {
		return ErrEmptyClient
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[sha256.Sum256([]byte(token))] = client
	return nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.secrets)
}

func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.secrets) > 0 {
		s.secrets = make(map[[sha256.Size]byte]string) // Clear secrets on close
	}
	return nil
}
