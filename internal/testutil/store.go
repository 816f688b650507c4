package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// Call is one recorded Store invocation. Arg is the filename for file
// operations and the query for lookups.
type Call struct {
	Op  string
	Arg string
}

func (c Call) String() string {
	if c.Arg == "" {
		return c.Op
	}
	return fmt.Sprintf("%s %s", c.Op, c.Arg)
}

// mutating lists the Store operations that change remote state.
var mutating = map[string]bool{
	"Create":         true,
	"UpdateMetadata": true,
	"NewVersion":     true,
	"Upload":         true,
	"DeleteFile":     true,
	"Publish":        true,
}

// RecordingStore wraps a Store and records every call in order. Setting
// Fail makes the named operation return an error instead.
type RecordingStore struct {
	zs.Store

	mu    sync.Mutex
	calls []Call
	fail  map[string]error
}

var _ zs.Store = (*RecordingStore)(nil)

// NewRecordingStore wraps inner.
func NewRecordingStore(inner zs.Store) *RecordingStore {
	return &RecordingStore{Store: inner, fail: make(map[string]error)}
}

// Fail makes every later call to op return err.
func (s *RecordingStore) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

// Calls returns the recorded calls.
func (s *RecordingStore) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Ops returns the recorded calls formatted as strings.
func (s *RecordingStore) Ops() []string {
	calls := s.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Mutations returns the recorded calls that change remote state.
func (s *RecordingStore) Mutations() []Call {
	var out []Call
	for _, c := range s.Calls() {
		if mutating[c.Op] {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (s *RecordingStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *RecordingStore) record(op, arg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: op, Arg: arg})
	return s.fail[op]
}

func (s *RecordingStore) Lookup(ctx context.Context, query string) (*zs.Deposition, error) {
	if err := s.record("Lookup", query); err != nil {
		return nil, err
	}
	return s.Store.Lookup(ctx, query)
}

func (s *RecordingStore) Create(ctx context.Context, md zs.Metadata) (*zs.Deposition, error) {
	if err := s.record("Create", ""); err != nil {
		return nil, err
	}
	return s.Store.Create(ctx, md)
}

func (s *RecordingStore) UpdateMetadata(ctx context.Context, dep *zs.Deposition, md zs.Metadata) (*zs.Deposition, error) {
	if err := s.record("UpdateMetadata", ""); err != nil {
		return nil, err
	}
	return s.Store.UpdateMetadata(ctx, dep, md)
}

func (s *RecordingStore) NewVersion(ctx context.Context, conceptDOI string, version string) (*zs.Deposition, error) {
	if err := s.record("NewVersion", ""); err != nil {
		return nil, err
	}
	return s.Store.NewVersion(ctx, conceptDOI, version)
}

func (s *RecordingStore) ListFiles(ctx context.Context, dep *zs.Deposition) ([]*zs.DepositionFile, error) {
	if err := s.record("ListFiles", ""); err != nil {
		return nil, err
	}
	return s.Store.ListFiles(ctx, dep)
}

func (s *RecordingStore) Upload(ctx context.Context, dep *zs.Deposition, filename string, r io.ReadSeeker, size int64) (*zs.DepositionFile, error) {
	if err := s.record("Upload", filename); err != nil {
		return nil, err
	}
	return s.Store.Upload(ctx, dep, filename, r, size)
}

func (s *RecordingStore) DeleteFile(ctx context.Context, file *zs.DepositionFile) error {
	if err := s.record("DeleteFile", file.Filename); err != nil {
		return err
	}
	return s.Store.DeleteFile(ctx, file)
}

func (s *RecordingStore) Publish(ctx context.Context, dep *zs.Deposition) (*zs.Deposition, error) {
	if err := s.record("Publish", ""); err != nil {
		return nil, err
	}
	return s.Store.Publish(ctx, dep)
}
