package mirror

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// FileSystemMirror stores manifests under a root directory:
//
//	<root>/
//	  <dataset>/
//	    <version>/
//	      datapackage.json
type FileSystemMirror struct {
	root string
}

var _ zs.Mirror = (*FileSystemMirror)(nil)

// NewFileSystemMirror creates a mirror rooted at root, creating it if needed.
func NewFileSystemMirror(root string) (*FileSystemMirror, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mirror root: %w", err)
	}
	return &FileSystemMirror{root: root}, nil
}

// PutManifest writes the manifest atomically, replacing any previous copy.
func (v *FileSystemMirror) PutManifest(dataset, version string, r io.Reader, size int64) error {
	key, err := manifestKey(dataset, version)
	if err != nil {
		return err
	}
	destPath := filepath.Join(v.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	return writeFile(destPath, r, size)
}

func (v *FileSystemMirror) GetManifest(dataset, version string, w io.Writer) error {
	key, err := manifestKey(dataset, version)
	if err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(v.root, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return notFound(dataset, version)
		}
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	return nil
}

// ValidateSetup verifies that the root is a writable directory.
func (v *FileSystemMirror) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("mirror root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mirror root is not a directory: %s", v.root)
	}
	probe, err := os.CreateTemp(v.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("mirror root not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// writeFile writes r to destPath through a temp file in the same directory
// and renames it into place.
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}
