package zs

import "strings"

// Deposition states reported by the remote store.
const (
	StateUnsubmitted = "unsubmitted"
	StateInProgress  = "inprogress"
	StateDone        = "done"
)

// DefaultVersion is applied to new depositions whose metadata carries no version.
const DefaultVersion = "1.0.0"

// Deposition is one version of an archive lineage on the remote store.
// Only the subset of the remote JSON schema used here is decoded; other
// fields in responses are ignored.
type Deposition struct {
	ID           int64             `json:"id"`
	ConceptDOI   string            `json:"conceptdoi,omitempty"`
	ConceptRecID string            `json:"conceptrecid,omitempty"`
	DOI          string            `json:"doi,omitempty"`
	Title        string            `json:"title,omitempty"`
	State        string            `json:"state"`
	Submitted    bool              `json:"submitted"`
	Metadata     Metadata          `json:"metadata"`
	Links        DepositionLinks   `json:"links"`
	Files        []*DepositionFile `json:"files,omitempty"`
}

// DepositionLinks is the links bundle of a deposition.
type DepositionLinks struct {
	Self        string `json:"self,omitempty"`
	HTML        string `json:"html,omitempty"`
	Files       string `json:"files,omitempty"`
	Bucket      string `json:"bucket,omitempty"`
	Publish     string `json:"publish,omitempty"`
	LatestDraft string `json:"latest_draft,omitempty"`
}

// IsDraft reports whether the deposition is open for file mutation.
func (d *Deposition) IsDraft() bool {
	return d.State == StateUnsubmitted
}

// DepositionFile is a file stored in a deposition.
type DepositionFile struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	Filesize int64     `json:"filesize"`
	Checksum string    `json:"checksum"`
	Links    FileLinks `json:"links"`
}

// FileLinks holds the URLs for a deposition file. Self is the delete target.
type FileLinks struct {
	Self     string `json:"self,omitempty"`
	Download string `json:"download,omitempty"`
}

// Metadata is the descriptive metadata attached to a deposition.
type Metadata struct {
	Title           string         `json:"title"`
	UploadType      string         `json:"upload_type"`
	Description     string         `json:"description"`
	Creators        []Creator      `json:"creators"`
	AccessRight     string         `json:"access_right"`
	License         string         `json:"license,omitempty"`
	Keywords        []string       `json:"keywords,omitempty"`
	Language        string         `json:"language,omitempty"`
	Version         string         `json:"version,omitempty"`
	PublicationDate string         `json:"publication_date,omitempty"`
	DOI             string         `json:"doi,omitempty"`
	PrereserveDOI   *PrereserveDOI `json:"prereserve_doi,omitempty"`
	Communities     []Community    `json:"communities,omitempty"`
	Notes           string         `json:"notes,omitempty"`
}

// Creator is an author entry of the deposition metadata.
type Creator struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
}

// PrereserveDOI is the DOI reserved by the remote store for an unpublished draft.
type PrereserveDOI struct {
	DOI   string `json:"doi"`
	RecID int64  `json:"recid"`
}

// Community is a community the deposition is submitted to.
type Community struct {
	Identifier string `json:"identifier"`
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	out := m
	out.Creators = append([]Creator(nil), m.Creators...)
	out.Keywords = append([]string(nil), m.Keywords...)
	out.Communities = append([]Community(nil), m.Communities...)
	if m.PrereserveDOI != nil {
		p := *m.PrereserveDOI
		out.PrereserveDOI = &p
	}
	return out
}

// StripVersionFields returns a copy of m without the identifiers that belong
// to a single published version. The remote store rejects them on a new draft.
func (m Metadata) StripVersionFields() Metadata {
	out := m.Clone()
	out.DOI = ""
	out.PrereserveDOI = nil
	out.PublicationDate = ""
	return out
}

// HasKeyword reports whether keyword is one of the metadata keywords.
func (m Metadata) HasKeyword(keyword string) bool {
	for _, k := range m.Keywords {
		if k == keyword {
			return true
		}
	}
	return false
}

// KeywordQuery returns the search query selecting depositions tagged with keyword.
func KeywordQuery(keyword string) string {
	return `keywords:"` + escapeQuery(keyword) + `"`
}

// ConceptQuery returns the search query selecting the lineage of conceptDOI.
func ConceptQuery(conceptDOI string) string {
	return `conceptdoi:"` + escapeQuery(conceptDOI) + `"`
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
