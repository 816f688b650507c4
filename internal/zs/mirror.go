package zs

import "io"

// Mirror keeps a copy of every published manifest outside the remote store,
// keyed by dataset and deposition version.
type Mirror interface {
	// PutManifest stores a manifest. size is the number of bytes in r.
	// Writing the same dataset and version again replaces the stored copy.
	PutManifest(dataset string, version string, r io.Reader, size int64) error

	// GetManifest writes a stored manifest to w.
	GetManifest(dataset string, version string, w io.Writer) error

	// ValidateSetup verifies the mirror is reachable and properly configured.
	ValidateSetup() error
}
