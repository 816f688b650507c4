package zs

import (
	"time"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/datapackage"
)

// Packager builds the manifest describing a deposition's files.
type Packager interface {
	Package(files []*DepositionFile, created time.Time) (*datapackage.Package, error)
}

// Dataset bundles everything the archiver needs to know about one data source.
type Dataset struct {
	// ID is the registry identifier, e.g. "eia860".
	ID string

	// Keyword is the unique keyword that tags every version of the dataset's
	// deposition lineage.
	Keyword string

	// Metadata returns a fresh copy of the deposition metadata on each call.
	Metadata func() Metadata

	Packager Packager
}

// ManifestFiles converts deposition files into manifest inputs, skipping
// the manifest itself.
func ManifestFiles(files []*DepositionFile) []datapackage.File {
	out := make([]datapackage.File, 0, len(files))
	for _, f := range files {
		if f.Filename == ManifestName {
			continue
		}
		out = append(out, datapackage.File{
			Name:     f.Filename,
			URL:      f.Links.Download,
			Size:     f.Filesize,
			Checksum: f.Checksum,
		})
	}
	return out
}
