package encryption

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// ErrWrongPassphrase is returned by MemoryTokenStore when Load is given a
// passphrase other than the one the token was saved with.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// MemoryTokenStore keeps the token in memory with no cryptography. The
// passphrase is still checked so callers see the same failure modes as
// with AgeTokenStore.
type MemoryTokenStore struct {
	mu         sync.Mutex
	token      string
	passphrase string
	saved      bool
}

var _ zs.TokenStore = (*MemoryTokenStore)(nil)

// NewMemoryTokenStore creates an empty MemoryTokenStore.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Save(token, passphrase string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.passphrase, s.saved = token, passphrase, true
	return nil
}

func (s *MemoryTokenStore) Load(passphrase string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return "", ErrNoToken
	}
	if passphrase != s.passphrase {
		return "", fmt.Errorf("decrypting token: %w", ErrWrongPassphrase)
	}
	return s.token, nil
}

func (s *MemoryTokenStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}
