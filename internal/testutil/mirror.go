package testutil

import (
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/mirror"
)

// NewTestMirror creates a new in-memory manifest mirror for testing.
func NewTestMirror() *mirror.MemoryMirror {
	return mirror.NewMemoryMirror()
}
