package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// OSFilesystemManager is the real filesystem implementation of zs.FilesystemManager.
type OSFilesystemManager struct {
	ignore *IgnoreMatcher
}

// NewOSFilesystemManager creates a filesystem manager that skips files
// matching ignorePatterns, on top of the built-in defaults, when listing
// directories.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{
		ignore: NewIgnoreMatcher(defaultIgnorePatterns).With(ignorePatterns),
	}
}

// Resolve validates a raw path and returns a Path object. Symlinks are
// followed; anything that is then not a regular file or directory is rejected.
func (m *OSFilesystemManager) Resolve(rawPath string) (*zs.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	if !mode.IsRegular() && !mode.IsDir() {
		return nil, fmt.Errorf("unsupported file type %s: %s", mode.Type(), absPath)
	}

	return zs.NewPath(absPath, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *zs.Path) (zs.File, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// FindFiles lists the regular files directly inside dir. Patterns from a
// .zsignore file in dir are applied along with the configured ones.
func (m *OSFilesystemManager) FindFiles(dir *zs.Path) ([]*zs.Path, error) {
	if !dir.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir.String())
	}

	local, err := ParseIgnoreFile(filepath.Join(dir.String(), IgnoreFileName))
	if err != nil {
		return nil, err
	}
	ignore := m.ignore.With(local)

	entries, err := os.ReadDir(dir.String())
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var paths []*zs.Path
	for _, entry := range entries {
		if ignore.Match(entry.Name()) {
			continue
		}
		fullPath := filepath.Join(dir.String(), entry.Name())
		info, err := os.Stat(fullPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, zs.NewPath(fullPath, false, info))
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i].Name() < paths[j].Name() })
	return paths, nil
}

// Compile-time check that OSFilesystemManager implements zs.FilesystemManager.
var _ zs.FilesystemManager = (*OSFilesystemManager)(nil)
