package mirror

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// MemoryMirror keeps manifests in memory. Safe for concurrent use.
type MemoryMirror struct {
	mu        sync.RWMutex
	manifests map[string][]byte
}

var _ zs.Mirror = (*MemoryMirror)(nil)

// NewMemoryMirror creates an empty MemoryMirror.
func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{manifests: make(map[string][]byte)}
}

func (m *MemoryMirror) PutManifest(dataset, version string, r io.Reader, size int64) error {
	key, err := manifestKey(dataset, version)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifests[key] = data
	return nil
}

func (m *MemoryMirror) GetManifest(dataset, version string, w io.Writer) error {
	key, err := manifestKey(dataset, version)
	if err != nil {
		return err
	}

	m.mu.RLock()
	data, ok := m.manifests[key]
	m.mu.RUnlock()
	if !ok {
		return notFound(dataset, version)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ValidateSetup always succeeds for the in-memory mirror.
func (m *MemoryMirror) ValidateSetup() error { return nil }

// Len returns the number of stored manifests.
func (m *MemoryMirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.manifests)
}
