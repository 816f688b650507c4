package zs

import "path/filepath"

// ManifestName is the filename of the generated Data Package descriptor.
// It is regenerated on every sync and never reconciled.
const ManifestName = "datapackage.json"

// FileRecord describes one file, local or remote, keyed by Filename during
// reconciliation.
type FileRecord struct {
	Filename  string          `json:"filename"`
	LocalPath string          `json:"path,omitempty"`
	Checksum  string          `json:"checksum"`
	Size      int64           `json:"size"`
	MediaType string          `json:"mediatype,omitempty"`
	Remote    *DepositionFile `json:"remote,omitempty"`
}

// FullPath returns the local file location, or "" for remote-only records.
func (r *FileRecord) FullPath() string {
	if r.LocalPath == "" {
		return ""
	}
	return filepath.Join(r.LocalPath, r.Filename)
}

// RemoteRecords indexes remote files by filename.
func RemoteRecords(files []*DepositionFile) map[string]*FileRecord {
	out := make(map[string]*FileRecord, len(files))
	for _, f := range files {
		out[f.Filename] = &FileRecord{
			Filename: f.Filename,
			Checksum: f.Checksum,
			Size:     f.Filesize,
			Remote:   f,
		}
	}
	return out
}
