package testutil

import (
	"path/filepath"
	"testing"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/encryption"
)

// testWorkFactor keeps scrypt fast in tests.
const testWorkFactor = 10

// NewTestTokenStore creates an age token store in a temp directory with a
// low scrypt work factor.
func NewTestTokenStore(t *testing.T) *encryption.AgeTokenStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys", "zenodo.token.age")
	return encryption.NewAgeTokenStore(path).WithWorkFactor(testWorkFactor)
}
