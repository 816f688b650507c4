package zs

import (
	"context"
	"io"
)

// Store is the remote deposition store. Implementations carry the access
// token and attach it to every request.
type Store interface {
	// Lookup runs a search and returns the single matching deposition, or nil
	// when nothing matches. More than one match is an AmbiguousResultError.
	Lookup(ctx context.Context, query string) (*Deposition, error)

	// Create opens a new draft deposition. An empty version defaults to
	// DefaultVersion.
	Create(ctx context.Context, md Metadata) (*Deposition, error)

	// UpdateMetadata replaces the metadata of a draft.
	UpdateMetadata(ctx context.Context, dep *Deposition, md Metadata) (*Deposition, error)

	// NewVersion returns an editable draft for the lineage of conceptDOI.
	// An existing draft is returned as-is. Otherwise a new version is opened
	// with the previous metadata, minus version-specific identifiers, and
	// version set to the next major release unless version is non-empty.
	NewVersion(ctx context.Context, conceptDOI string, version string) (*Deposition, error)

	// ListFiles returns the files of a deposition.
	ListFiles(ctx context.Context, dep *Deposition) ([]*DepositionFile, error)

	// Upload stores r under filename. size is the number of bytes in r.
	Upload(ctx context.Context, dep *Deposition, filename string, r io.ReadSeeker, size int64) (*DepositionFile, error)

	// DeleteFile removes a file by its self link.
	DeleteFile(ctx context.Context, file *DepositionFile) error

	// Publish publishes a draft. Already submitted depositions are returned unchanged.
	Publish(ctx context.Context, dep *Deposition) (*Deposition, error)
}
