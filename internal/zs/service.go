package zs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/datapackage"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/naming"
)

// Options control how a run touches the remote store.
type Options struct {
	// DryRun computes and returns the plan without any mutating call.
	DryRun bool

	// NoPublish leaves the updated draft unpublished for manual review.
	NoPublish bool
}

// Result describes the outcome of Initialize or Sync.
type Result struct {
	// Plan is the set of actions computed for the run. For Initialize every
	// file is a create.
	Plan *ActionPlan

	// Deposition is the deposition that was mutated, or nil when nothing was
	// changed.
	Deposition *Deposition

	// Manifest is the manifest uploaded with the deposition, if any.
	Manifest *datapackage.Package
}

// ArchiverService archives local files to the remote store. It computes the
// delta against the current deposition, applies it to an editable version,
// regenerates the manifest and publishes.
type ArchiverService struct {
	store    Store
	fsmgr    FilesystemManager
	mirror   Mirror
	logger   Logger
	clock    Clock
	validate func(*datapackage.Package) []error
}

// NewArchiverService creates an ArchiverService. mirror may be nil.
func NewArchiverService(store Store, fsmgr FilesystemManager, mirror Mirror, logger Logger, clock Clock) *ArchiverService {
	if logger == nil {
		logger = Discard
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &ArchiverService{
		store:    store,
		fsmgr:    fsmgr,
		mirror:   mirror,
		logger:   logger,
		clock:    clock,
		validate: datapackage.Validate,
	}
}

// Initialize creates the first deposition of a dataset from paths.
// It refuses to run when a deposition already carries the dataset keyword
// or when paths hold no archivable file.
func (s *ArchiverService) Initialize(ctx context.Context, ds *Dataset, paths []string, opts Options) (*Result, error) {
	md := ds.Metadata()
	if !md.HasKeyword(ds.Keyword) {
		return nil, &MissingKeywordError{Dataset: ds.ID, Keyword: ds.Keyword}
	}

	local, err := s.inventory(paths)
	if err != nil {
		return nil, err
	}

	plan := NewActionPlan()
	for name, rec := range local {
		if name == ManifestName {
			continue
		}
		plan.Create[name] = rec
	}
	if plan.Empty() {
		return nil, fmt.Errorf("%w for %s", ErrNoFiles, ds.ID)
	}
	result := &Result{Plan: plan}

	if opts.DryRun {
		for _, name := range sortedNames(plan.Create) {
			s.logger.Info("archive would contain", "dataset", ds.ID, "file", name)
		}
		return result, nil
	}

	query := KeywordQuery(ds.Keyword)
	existing, err := s.store.Lookup(ctx, query)
	if err != nil {
		if errors.Is(err, ErrAmbiguousResult) {
			return nil, &AlreadyExistsError{Dataset: ds.ID, Keyword: ds.Keyword}
		}
		return nil, fmt.Errorf("looking up %s: %w", ds.ID, err)
	}
	if existing != nil {
		return nil, &AlreadyExistsError{Dataset: ds.ID, Keyword: ds.Keyword, URL: existing.Links.HTML}
	}

	dep, err := s.store.Create(ctx, md)
	if err != nil {
		return nil, fmt.Errorf("creating deposition for %s: %w", ds.ID, err)
	}
	s.logger.Info("deposition created", "dataset", ds.ID, "id", dep.ID)

	for _, name := range sortedNames(plan.Create) {
		if err := s.uploadLocal(ctx, dep, plan.Create[name]); err != nil {
			return nil, err
		}
		s.logger.Info("file uploaded", "file", name)
	}

	return s.finish(ctx, ds, dep, result, opts)
}

// Plan computes the actions needed to bring the dataset's deposition in
// line with paths. It makes no mutating calls.
func (s *ArchiverService) Plan(ctx context.Context, ds *Dataset, paths []string) (*ActionPlan, *Deposition, error) {
	local, err := s.inventory(paths)
	if err != nil {
		return nil, nil, err
	}

	query := KeywordQuery(ds.Keyword)
	dep, err := s.store.Lookup(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("looking up %s: %w", ds.ID, err)
	}
	if dep == nil {
		return nil, nil, &NotFoundError{Query: query}
	}

	files, err := s.store.ListFiles(ctx, dep)
	if err != nil {
		return nil, nil, fmt.Errorf("listing files of deposition %d: %w", dep.ID, err)
	}

	return Diff(local, RemoteRecords(files)), dep, nil
}

// Sync archives paths as the next version of the dataset's deposition.
// An empty plan returns without creating a version or touching the manifest.
func (s *ArchiverService) Sync(ctx context.Context, ds *Dataset, paths []string, opts Options) (*Result, error) {
	plan, dep, err := s.Plan(ctx, ds, paths)
	if err != nil {
		return nil, err
	}
	result := &Result{Plan: plan}

	if opts.DryRun {
		return result, nil
	}
	if plan.Empty() {
		s.logger.Info("no changes", "dataset", ds.ID, "deposition", dep.ID)
		return result, nil
	}

	target := dep
	if !dep.IsDraft() {
		target, err = s.store.NewVersion(ctx, dep.ConceptDOI, "")
		if err != nil {
			return nil, fmt.Errorf("opening new version of %s: %w", ds.ID, err)
		}
		s.logger.Info("new version opened", "dataset", ds.ID, "id", target.ID, "version", target.Metadata.Version)
	}

	if err := s.apply(ctx, target, plan); err != nil {
		return nil, err
	}

	return s.finish(ctx, ds, target, result, opts)
}

// apply executes plan against target: creates, then updates, then deletes.
// Remote handles are taken from target's own listing because handles from
// a previous version are not valid delete targets.
func (s *ArchiverService) apply(ctx context.Context, target *Deposition, plan *ActionPlan) error {
	files, err := s.store.ListFiles(ctx, target)
	if err != nil {
		return fmt.Errorf("listing files of deposition %d: %w", target.ID, err)
	}
	current := RemoteRecords(files)

	for _, name := range sortedNames(plan.Create) {
		if err := s.uploadLocal(ctx, target, plan.Create[name]); err != nil {
			return err
		}
		s.logger.Info("file uploaded", "file", name)
	}

	// Delete then upload. There is no atomic replace: if the upload fails the
	// file is missing from the draft until the next run.
	for _, name := range sortedNames(plan.Update) {
		if old, ok := current[name]; ok {
			if err := s.store.DeleteFile(ctx, old.Remote); err != nil {
				return fmt.Errorf("deleting %s before replace: %w", name, err)
			}
		} else {
			s.logger.Warn("file to replace missing from draft", "file", name)
		}
		if err := s.uploadLocal(ctx, target, plan.Update[name]); err != nil {
			return err
		}
		s.logger.Info("file replaced", "file", name)
	}

	for _, name := range sortedNames(plan.Delete) {
		old, ok := current[name]
		if !ok {
			s.logger.Warn("file to delete missing from draft", "file", name)
			continue
		}
		if err := s.store.DeleteFile(ctx, old.Remote); err != nil {
			return fmt.Errorf("deleting %s: %w", name, err)
		}
		s.logger.Info("file deleted", "file", name)
	}

	return nil
}

// finish regenerates the manifest, publishes and mirrors it.
func (s *ArchiverService) finish(ctx context.Context, ds *Dataset, dep *Deposition, result *Result, opts Options) (*Result, error) {
	pkg, data, err := s.writeManifest(ctx, ds, dep)
	if err != nil {
		return nil, err
	}
	result.Manifest = pkg

	if opts.NoPublish {
		s.logger.Info("draft left unpublished", "dataset", ds.ID, "id", dep.ID, "url", dep.Links.HTML)
		result.Deposition = dep
		return result, nil
	}

	published, err := s.store.Publish(ctx, dep)
	if err != nil {
		return nil, fmt.Errorf("publishing deposition %d: %w", dep.ID, err)
	}
	s.logger.Info("deposition published", "dataset", ds.ID, "id", published.ID, "url", published.Links.HTML)
	result.Deposition = published

	s.mirrorManifest(ds, published, data)
	return result, nil
}

// writeManifest builds the manifest from the current listing of dep,
// validates it and replaces any previous copy.
func (s *ArchiverService) writeManifest(ctx context.Context, ds *Dataset, dep *Deposition) (*datapackage.Package, []byte, error) {
	files, err := s.store.ListFiles(ctx, dep)
	if err != nil {
		return nil, nil, fmt.Errorf("listing files of deposition %d: %w", dep.ID, err)
	}

	var previous *DepositionFile
	content := make([]*DepositionFile, 0, len(files))
	for _, f := range files {
		if f.Filename == ManifestName {
			previous = f
			continue
		}
		content = append(content, f)
	}

	pkg, err := ds.Packager.Package(content, s.clock.Now().UTC())
	if err != nil {
		return nil, nil, fmt.Errorf("building manifest for %s: %w", ds.ID, err)
	}

	if errs := s.validate(pkg); len(errs) > 0 {
		s.logger.Error("manifest validation failed", "dataset", ds.ID, "errors", len(errs))
		for _, e := range errs {
			s.logger.Error("manifest validation error", "error", e.Error())
		}
		return nil, nil, &InvalidManifestError{Errors: errs}
	}

	data, err := pkg.Encode()
	if err != nil {
		return nil, nil, err
	}

	if previous != nil {
		if err := s.store.DeleteFile(ctx, previous); err != nil {
			return nil, nil, fmt.Errorf("deleting previous manifest: %w", err)
		}
	}
	if _, err := s.store.Upload(ctx, dep, ManifestName, bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, nil, fmt.Errorf("uploading manifest: %w", err)
	}
	s.logger.Info("manifest uploaded", "dataset", ds.ID, "resources", len(pkg.Resources))

	return pkg, data, nil
}

// mirrorManifest copies a published manifest to the mirror. The archive is
// already published at this point, so failures are only logged.
func (s *ArchiverService) mirrorManifest(ds *Dataset, dep *Deposition, data []byte) {
	if s.mirror == nil || data == nil {
		return
	}
	version := dep.Metadata.Version
	if version == "" {
		version = strconv.FormatInt(dep.ID, 10)
	}
	if err := s.mirror.PutManifest(ds.ID, version, bytes.NewReader(data), int64(len(data))); err != nil {
		s.logger.Warn("mirroring manifest failed", "dataset", ds.ID, "version", version, "error", err)
		return
	}
	s.logger.Debug("manifest mirrored", "dataset", ds.ID, "version", version)
}

// inventory builds the local inventory and warns about files whose content
// does not look like their extension.
func (s *ArchiverService) inventory(paths []string) (map[string]*FileRecord, error) {
	local, err := Inventory(s.fsmgr, paths)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedNames(local) {
		rec := local[name]
		if !mediaTypeMatches(rec) {
			s.logger.Warn("content does not match extension", "file", name, "detected", rec.MediaType)
		}
	}
	return local, nil
}

// uploadLocal streams a local file to dep.
func (s *ArchiverService) uploadLocal(ctx context.Context, dep *Deposition, rec *FileRecord) error {
	p, err := s.fsmgr.Resolve(rec.FullPath())
	if err != nil {
		return fmt.Errorf("resolving %s: %w", rec.FullPath(), err)
	}
	f, err := s.fsmgr.Open(p)
	if err != nil {
		return fmt.Errorf("opening %s: %w", p.String(), err)
	}
	defer f.Close()

	if _, err := s.store.Upload(ctx, dep, rec.Filename, f, p.Size()); err != nil {
		return fmt.Errorf("uploading %s: %w", rec.Filename, err)
	}
	return nil
}

// mediaTypeMatches reports whether the detected media type of rec is
// compatible with the type its extension is published under. Generic
// detections and unknown extensions always match.
func mediaTypeMatches(rec *FileRecord) bool {
	expected, err := naming.MediaType(strings.TrimPrefix(filepath.Ext(rec.Filename), "."))
	if err != nil || rec.MediaType == "" {
		return true
	}
	base, _, _ := strings.Cut(rec.MediaType, ";")
	detected := mimetype.Lookup(strings.TrimSpace(base))
	if detected == nil || detected.Is("application/octet-stream") || detected.Is("text/plain") {
		return true
	}
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(expected) {
			return true
		}
	}
	return false
}
