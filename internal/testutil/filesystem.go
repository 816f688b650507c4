package testutil

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	IsDirectory bool
	ModTime     time.Time
}

// MockFilesystemManager is an in-memory filesystem for testing. It records
// the size of every Read issued against opened files.
type MockFilesystemManager struct {
	mu    sync.Mutex
	files map[string]*MockFile
	reads map[string][]int
	opens map[string]int
}

var _ zs.FilesystemManager = (*MockFilesystemManager)(nil)

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
		reads: make(map[string][]int),
		opens: make(map[string]int),
	}
}

// AddFile adds a file, replacing any previous content. Parent directories
// are added implicitly.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.files[path] = &MockFile{Content: content, ModTime: time.Now()}
	for dir := filepath.Dir(path); dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		if _, ok := m.files[dir]; !ok {
			m.files[dir] = &MockFile{IsDirectory: true, ModTime: time.Now()}
		}
	}
}

// AddDirectory adds an empty directory.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = &MockFile{IsDirectory: true, ModTime: time.Now()}
}

// Remove deletes a file.
func (m *MockFilesystemManager) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, filepath.Clean(path))
}

// ReadSizes returns the byte counts requested by each Read on path.
func (m *MockFilesystemManager) ReadSizes(path string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.reads[filepath.Clean(path)]...)
}

// Opens returns how many times path was opened.
func (m *MockFilesystemManager) Opens(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens[filepath.Clean(path)]
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*zs.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}
	return zs.NewPath(absPath, file.IsDirectory, fileInfo(absPath, file)), nil
}

func (m *MockFilesystemManager) Open(path *zs.Path) (zs.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	if file.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path.String())
	}
	m.opens[path.String()]++
	return &mockReader{Reader: bytes.NewReader(file.Content), fs: m, path: path.String()}, nil
}

func (m *MockFilesystemManager) FindFiles(dir *zs.Path) ([]*zs.Path, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.files[dir.String()]
	if !ok || !d.IsDirectory {
		return nil, fmt.Errorf("not a directory: %s", dir.String())
	}

	var names []string
	for p, f := range m.files {
		if !f.IsDirectory && filepath.Dir(p) == dir.String() {
			names = append(names, p)
		}
	}
	sort.Strings(names)

	result := make([]*zs.Path, 0, len(names))
	for _, p := range names {
		result = append(result, zs.NewPath(p, false, fileInfo(p, m.files[p])))
	}
	return result, nil
}

// mockReader is a seekable reader over file content that records reads.
type mockReader struct {
	*bytes.Reader
	fs   *MockFilesystemManager
	path string
}

func (r *mockReader) Read(p []byte) (int, error) {
	r.fs.mu.Lock()
	r.fs.reads[r.path] = append(r.fs.reads[r.path], len(p))
	r.fs.mu.Unlock()
	return r.Reader.Read(p)
}

func (r *mockReader) Close() error { return nil }

func fileInfo(path string, f *MockFile) fs.FileInfo {
	mode := fs.FileMode(0644)
	if f.IsDirectory {
		mode = fs.ModeDir | 0755
	}
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(f.Content)),
		mode:    mode,
		modTime: f.ModTime,
		isDir:   f.IsDirectory,
	}
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }
