package zenodo

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// MemoryBaseURL prefixes every link handed out by MemoryStore.
const MemoryBaseURL = "https://zenodo.memory.invalid"

// MemoryStore is an in-process zs.Store. It enforces the same rules as the
// remote service: files can only change on drafts, a lineage has at most one
// draft, and a new version starts with the files of the previous one.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	deps   map[int64]*memDeposition
	// lineages maps a concept DOI to its deposition IDs, oldest first.
	lineages map[string][]int64
	clock    zs.Clock
}

type memDeposition struct {
	dep   zs.Deposition
	files []*memFile
}

type memFile struct {
	meta zs.DepositionFile
	data []byte
}

var _ zs.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. A nil clock uses the wall clock.
func NewMemoryStore(clock zs.Clock) *MemoryStore {
	if clock == nil {
		clock = zs.RealClock{}
	}
	return &MemoryStore{
		nextID:   1000,
		deps:     make(map[int64]*memDeposition),
		lineages: make(map[string][]int64),
		clock:    clock,
	}
}

// Lookup supports keyword and concept DOI queries. Each lineage contributes
// its draft if one is open, its latest published version otherwise.
func (m *MemoryStore) Lookup(_ context.Context, query string) (*zs.Deposition, error) {
	field, value, ok := parseQuery(query)
	if !ok {
		return nil, &zs.RemoteError{Op: "search depositions", StatusCode: http.StatusBadRequest, Payload: "unsupported query " + query}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*memDeposition
	for _, concept := range m.sortedConcepts() {
		head := m.head(concept)
		switch field {
		case "keywords":
			if head.dep.Metadata.HasKeyword(value) {
				matches = append(matches, head)
			}
		case "conceptdoi":
			if concept == value {
				matches = append(matches, head)
			}
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0].snapshot(), nil
	default:
		return nil, &zs.AmbiguousResultError{Query: query, Count: len(matches)}
	}
}

// Create opens a draft in a new lineage.
func (m *MemoryStore) Create(_ context.Context, md zs.Metadata) (*zs.Deposition, error) {
	md = md.Clone()
	if md.Version == "" {
		md.Version = zs.DefaultVersion
	}
	if md.Title == "" {
		return nil, &zs.RemoteError{Op: "create deposition", StatusCode: http.StatusBadRequest, Payload: "title: required", Kind: zs.ErrCreation}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conceptID := m.allocID()
	concept := fmt.Sprintf("10.5072/zenodo.%d", conceptID)
	d := m.newDraft(concept, conceptID, md)
	return d.snapshot(), nil
}

// UpdateMetadata replaces the metadata of a draft.
func (m *MemoryStore) UpdateMetadata(_ context.Context, dep *zs.Deposition, md zs.Metadata) (*zs.Deposition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.deps[dep.ID]
	if !ok {
		return nil, &zs.RemoteError{Op: "update deposition", StatusCode: http.StatusNotFound, Kind: zs.ErrUpdate}
	}
	if !d.dep.IsDraft() {
		return nil, &zs.RemoteError{Op: "update deposition", StatusCode: http.StatusBadRequest, Payload: "deposition is published", Kind: zs.ErrUpdate}
	}
	d.dep.Metadata = md.Clone()
	d.dep.Title = md.Title
	return d.snapshot(), nil
}

// NewVersion opens a draft after the latest published version of conceptDOI.
func (m *MemoryStore) NewVersion(_ context.Context, conceptDOI string, version string) (*zs.Deposition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lineages[conceptDOI]; !ok {
		return nil, &zs.NotFoundError{Query: zs.ConceptQuery(conceptDOI)}
	}
	head := m.head(conceptDOI)
	if head.dep.IsDraft() {
		return head.snapshot(), nil
	}

	md, err := NextVersionMetadata(head.dep.Metadata, version)
	if err != nil {
		return nil, err
	}
	d := m.newDraft(conceptDOI, 0, md)
	for _, f := range head.files {
		d.addFile(f.meta.Filename, f.data)
	}
	head.dep.Links.LatestDraft = d.dep.Links.Self
	return d.snapshot(), nil
}

// ListFiles returns the files of dep in upload order.
func (m *MemoryStore) ListFiles(_ context.Context, dep *zs.Deposition) ([]*zs.DepositionFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.deps[dep.ID]
	if !ok {
		return nil, &zs.RemoteError{Op: "list files", StatusCode: http.StatusNotFound}
	}
	out := make([]*zs.DepositionFile, 0, len(d.files))
	for _, f := range d.files {
		meta := f.meta
		out = append(out, &meta)
	}
	return out, nil
}

// Upload stores the content of r. A file with the same name must be deleted
// first.
func (m *MemoryStore) Upload(_ context.Context, dep *zs.Deposition, filename string, r io.ReadSeeker, size int64) (*zs.DepositionFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return nil, &zs.RemoteError{Op: "bucket upload", StatusCode: http.StatusBadRequest,
			Payload: fmt.Sprintf("expected %d bytes, got %d", size, len(data)), Kind: zs.ErrUpload}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.deps[dep.ID]
	if !ok {
		return nil, &zs.RemoteError{Op: "bucket upload", StatusCode: http.StatusNotFound, Kind: zs.ErrUpload}
	}
	if !d.dep.IsDraft() {
		return nil, &zs.RemoteError{Op: "bucket upload", StatusCode: http.StatusForbidden, Payload: "deposition is published", Kind: zs.ErrUpload}
	}
	if d.file(filename) != nil {
		return nil, &zs.RemoteError{Op: "bucket upload", StatusCode: http.StatusBadRequest, Payload: "filename already exists", Kind: zs.ErrUpload}
	}
	f := d.addFile(filename, data)
	meta := f.meta
	return &meta, nil
}

// DeleteFile removes a file from its draft. Unknown links are ignored.
func (m *MemoryStore) DeleteFile(_ context.Context, file *zs.DepositionFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.deps {
		for i, f := range d.files {
			if f.meta.Links.Self != file.Links.Self {
				continue
			}
			if !d.dep.IsDraft() {
				return &zs.RemoteError{Op: "delete file", StatusCode: http.StatusForbidden, Payload: "deposition is published"}
			}
			d.files = append(d.files[:i], d.files[i+1:]...)
			return nil
		}
	}
	return nil
}

// Publish freezes a draft and assigns its DOI.
func (m *MemoryStore) Publish(_ context.Context, dep *zs.Deposition) (*zs.Deposition, error) {
	if dep.Submitted {
		return dep, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.deps[dep.ID]
	if !ok {
		return nil, &zs.RemoteError{Op: "publish deposition", StatusCode: http.StatusNotFound, Kind: zs.ErrPublish}
	}
	if d.dep.Submitted {
		return d.snapshot(), nil
	}
	if len(d.files) == 0 {
		return nil, &zs.RemoteError{Op: "publish deposition", StatusCode: http.StatusBadRequest, Payload: "minimum one file must be provided", Kind: zs.ErrPublish}
	}

	doi := fmt.Sprintf("10.5072/zenodo.%d", d.dep.ID)
	d.dep.State = zs.StateDone
	d.dep.Submitted = true
	d.dep.DOI = doi
	d.dep.Metadata.DOI = doi
	d.dep.Metadata.PrereserveDOI = nil
	d.dep.Metadata.PublicationDate = m.clock.Now().UTC().Format(time.DateOnly)
	d.dep.Links.Bucket = ""
	d.dep.Links.LatestDraft = ""
	return d.snapshot(), nil
}

// Content returns the bytes stored under filename in dep.
func (m *MemoryStore) Content(dep *zs.Deposition, filename string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.deps[dep.ID]
	if !ok {
		return nil, false
	}
	f := d.file(filename)
	if f == nil {
		return nil, false
	}
	return bytes.Clone(f.data), true
}

// Versions returns every deposition of the lineage of conceptDOI, oldest first.
func (m *MemoryStore) Versions(conceptDOI string) []*zs.Deposition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*zs.Deposition
	for _, id := range m.lineages[conceptDOI] {
		out = append(out, m.deps[id].snapshot())
	}
	return out
}

func (m *MemoryStore) allocID() int64 {
	m.nextID++
	return m.nextID
}

// newDraft must be called with the lock held. A zero conceptRecID keeps
// the lineage's existing one.
func (m *MemoryStore) newDraft(concept string, conceptRecID int64, md zs.Metadata) *memDeposition {
	id := m.allocID()
	self := fmt.Sprintf("%s/api/deposit/depositions/%d", MemoryBaseURL, id)
	recID := fmt.Sprintf("%d", conceptRecID)
	if conceptRecID == 0 {
		recID = m.deps[m.lineages[concept][0]].dep.ConceptRecID
	}
	md.PrereserveDOI = &zs.PrereserveDOI{DOI: fmt.Sprintf("10.5072/zenodo.%d", id), RecID: id}

	d := &memDeposition{dep: zs.Deposition{
		ID:           id,
		ConceptDOI:   concept,
		ConceptRecID: recID,
		Title:        md.Title,
		State:        zs.StateUnsubmitted,
		Metadata:     md,
		Links: zs.DepositionLinks{
			Self:    self,
			HTML:    fmt.Sprintf("%s/deposit/%d", MemoryBaseURL, id),
			Files:   self + "/files",
			Bucket:  fmt.Sprintf("%s/api/files/%s", MemoryBaseURL, uuid.NewString()),
			Publish: self + "/actions/publish",
		},
	}}
	m.deps[id] = d
	m.lineages[concept] = append(m.lineages[concept], id)
	return d
}

// head returns the draft of a lineage if there is one, else its latest version.
func (m *MemoryStore) head(concept string) *memDeposition {
	ids := m.lineages[concept]
	return m.deps[ids[len(ids)-1]]
}

func (m *MemoryStore) sortedConcepts() []string {
	out := make([]string, 0, len(m.lineages))
	for c := range m.lineages {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (d *memDeposition) file(name string) *memFile {
	for _, f := range d.files {
		if f.meta.Filename == name {
			return f
		}
	}
	return nil
}

func (d *memDeposition) addFile(name string, data []byte) *memFile {
	sum := md5.Sum(data)
	id := uuid.NewString()
	f := &memFile{
		meta: zs.DepositionFile{
			ID:       id,
			Filename: name,
			Filesize: int64(len(data)),
			Checksum: hex.EncodeToString(sum[:]),
			Links: zs.FileLinks{
				Self:     fmt.Sprintf("%s/files/%s", d.dep.Links.Self, id),
				Download: fmt.Sprintf("%s/records/%d/files/%s", MemoryBaseURL, d.dep.ID, name),
			},
		},
		data: bytes.Clone(data),
	}
	d.files = append(d.files, f)
	return f
}

func (d *memDeposition) snapshot() *zs.Deposition {
	dep := d.dep
	dep.Metadata = d.dep.Metadata.Clone()
	dep.Files = make([]*zs.DepositionFile, 0, len(d.files))
	for _, f := range d.files {
		meta := f.meta
		dep.Files = append(dep.Files, &meta)
	}
	return &dep
}

// parseQuery splits a field:"value" query.
func parseQuery(q string) (field, value string, ok bool) {
	field, rest, ok := strings.Cut(q, ":")
	if !ok || len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", "", false
	}
	value = strings.ReplaceAll(rest[1:len(rest)-1], `\"`, `"`)
	return field, value, true
}
