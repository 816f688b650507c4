package zs

import (
	"io/fs"
	"path/filepath"
)

// Path is an absolute local path with the stat result taken when it was
// resolved. Inventory relies on Dir and Name to split archive filenames
// from their source directory.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath is used by FilesystemManager implementations.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{
		absPath: absPath,
		isDir:   isDir,
		info:    info,
	}
}

func (p *Path) String() string {
	return p.absPath
}

// Dir returns the directory containing the path.
func (p *Path) Dir() string {
	return filepath.Dir(p.absPath)
}

// Name returns the final element of the path.
func (p *Path) Name() string {
	return filepath.Base(p.absPath)
}

func (p *Path) IsDir() bool {
	return p.isDir
}

// Info is the stat result from resolution.
func (p *Path) Info() fs.FileInfo {
	return p.info
}

// Size returns the cached size in bytes, or 0 when no info is cached.
func (p *Path) Size() int64 {
	if p.info == nil {
		return 0
	}
	return p.info.Size()
}
