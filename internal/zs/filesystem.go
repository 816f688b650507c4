package zs

import "io"

// File is an open local file. Uploads rewind it when falling back to the
// legacy upload endpoint, so it must be seekable.
type File interface {
	io.ReadSeekCloser
}

// FilesystemManager abstracts local file access so the archiver can be
// tested without touching the real filesystem.
type FilesystemManager interface {
	// Resolve makes rawPath absolute, stats it, and rejects anything that is
	// not a regular file or directory.
	Resolve(rawPath string) (*Path, error)

	// Open opens a regular file for reading.
	Open(path *Path) (File, error)

	// FindFiles lists the regular files directly inside a directory,
	// skipping ignored names. Results are sorted by name.
	FindFiles(dir *Path) ([]*Path, error)
}
