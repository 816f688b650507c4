package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// ErrNoToken indicates no token has been saved yet.
var ErrNoToken = errors.New("no token saved")

// DefaultWorkFactor is the scrypt work factor used for new token files.
const DefaultWorkFactor = 18

// AgeTokenStore implements zs.TokenStore as a file encrypted with age's
// scrypt-based passphrase encryption.
type AgeTokenStore struct {
	path       string
	workFactor int
}

var _ zs.TokenStore = (*AgeTokenStore)(nil)

// NewAgeTokenStore creates a token store backed by the file at path.
func NewAgeTokenStore(path string) *AgeTokenStore {
	return &AgeTokenStore{path: path, workFactor: DefaultWorkFactor}
}

// WithWorkFactor sets the scrypt work factor for Save and the maximum one
// accepted by Load. Lower values are only suitable for tests.
func (s *AgeTokenStore) WithWorkFactor(n int) *AgeTokenStore {
	s.workFactor = n
	return s
}

// Save encrypts token with passphrase. The file is written next to its
// final location and renamed into place.
func (s *AgeTokenStore) Save(token, passphrase string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is empty")
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(s.workFactor)

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, token+"\n"); err != nil {
		return fmt.Errorf("writing encrypted token: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encrypted token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".token-*")
	if err != nil {
		return fmt.Errorf("creating temp token file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing token file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming token file: %w", err)
	}
	return nil
}

// Load decrypts the token with passphrase.
func (s *AgeTokenStore) Load(passphrase string) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w at %s", ErrNoToken, s.path)
		}
		return "", fmt.Errorf("reading token file: %w", err)
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return "", fmt.Errorf("creating scrypt identity: %w", err)
	}
	identity.SetMaxWorkFactor(max(s.workFactor, DefaultWorkFactor))

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}
	token, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading decrypted token: %w", err)
	}
	return strings.TrimSpace(string(token)), nil
}

// Exists reports whether the token file is present.
func (s *AgeTokenStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
