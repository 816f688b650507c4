package zs

import (
	"errors"
	"fmt"
)

// Sentinel errors used for errors.Is checks.
var (
	// ErrDuplicateName indicates two local files share a filename.
	ErrDuplicateName = errors.New("zs: duplicate filename")

	// ErrAmbiguousResult indicates a search matched more than one deposition.
	ErrAmbiguousResult = errors.New("zs: ambiguous search result")

	// ErrNotFound indicates no deposition matched a lookup.
	ErrNotFound = errors.New("zs: deposition not found")

	// ErrAlreadyExists indicates a deposition already carries the dataset keyword.
	ErrAlreadyExists = errors.New("zs: deposition already exists")

	// ErrInvalidManifest indicates the generated datapackage.json failed validation.
	ErrInvalidManifest = errors.New("zs: invalid manifest")

	// ErrUnsupportedDataset indicates a dataset identifier with no registry entry.
	ErrUnsupportedDataset = errors.New("zs: unsupported dataset")

	// ErrMissingKeyword indicates the dataset metadata lacks its unique keyword.
	ErrMissingKeyword = errors.New("zs: keyword missing from metadata")

	// ErrRemote is the generic kind of a failed remote request.
	ErrRemote = errors.New("zs: remote request failed")

	// ErrCreation indicates the remote store refused to create a deposition.
	ErrCreation = errors.New("zs: deposition creation failed")

	// ErrUpdate indicates the remote store refused a metadata update.
	ErrUpdate = errors.New("zs: metadata update failed")

	// ErrNewVersion indicates the remote store refused to open a new version.
	ErrNewVersion = errors.New("zs: new version failed")

	// ErrPublish indicates the remote store refused to publish.
	ErrPublish = errors.New("zs: publish failed")

	// ErrUpload indicates a file upload was rejected.
	ErrUpload = errors.New("zs: upload failed")

	// ErrNoBucket indicates the deposition exposes no bucket link.
	ErrNoBucket = errors.New("zs: deposition has no bucket link")

	// ErrNoFiles indicates an archive run was given nothing to archive.
	ErrNoFiles = errors.New("zs: no files to archive")
)

// DuplicateNameError carries both directories holding the colliding filename.
type DuplicateNameError struct {
	Filename string
	First    string
	Second   string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("file names must be unique: %s/%s conflicts with %s/%s",
		e.Second, e.Filename, e.First, e.Filename)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// AmbiguousResultError carries the query and how many depositions matched.
type AmbiguousResultError struct {
	Query string
	Count int
}

func (e *AmbiguousResultError) Error() string {
	return fmt.Sprintf("query %s matched %d depositions, expected at most one", e.Query, e.Count)
}

func (e *AmbiguousResultError) Is(target error) bool { return target == ErrAmbiguousResult }

func (e *AmbiguousResultError) Unwrap() error { return ErrAmbiguousResult }

// NotFoundError carries the query that matched nothing.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no deposition found for query %s", e.Query)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AlreadyExistsError identifies the existing deposition blocking initialization.
type AlreadyExistsError struct {
	Dataset string
	Keyword string
	URL     string
}

func (e *AlreadyExistsError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("cannot initialize %s: a deposition with keyword %s already exists", e.Dataset, e.Keyword)
	}
	return fmt.Sprintf("cannot initialize %s: it already exists at %s", e.Dataset, e.URL)
}

func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

func (e *AlreadyExistsError) Unwrap() error { return ErrAlreadyExists }

// InvalidManifestError holds every validation error found in a manifest.
// Its message is that of the first error.
type InvalidManifestError struct {
	Errors []error
}

func (e *InvalidManifestError) Error() string {
	if len(e.Errors) == 0 {
		return "invalid datapackage manifest"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid datapackage manifest: %v", e.Errors[0])
	}
	return fmt.Sprintf("invalid datapackage manifest: %v (and %d more)", e.Errors[0], len(e.Errors)-1)
}

func (e *InvalidManifestError) Is(target error) bool { return target == ErrInvalidManifest }

func (e *InvalidManifestError) Unwrap() error { return ErrInvalidManifest }

// UnsupportedDatasetError carries the unknown dataset identifier.
type UnsupportedDatasetError struct {
	Dataset string
}

func (e *UnsupportedDatasetError) Error() string {
	return fmt.Sprintf("unsupported dataset: %q", e.Dataset)
}

func (e *UnsupportedDatasetError) Is(target error) bool { return target == ErrUnsupportedDataset }

func (e *UnsupportedDatasetError) Unwrap() error { return ErrUnsupportedDataset }

// MissingKeywordError is returned before any network call when the dataset
// metadata does not carry the keyword used to find its deposition.
type MissingKeywordError struct {
	Dataset string
	Keyword string
}

func (e *MissingKeywordError) Error() string {
	return fmt.Sprintf("keyword %s missing from %s metadata keywords", e.Keyword, e.Dataset)
}

func (e *MissingKeywordError) Is(target error) bool { return target == ErrMissingKeyword }

func (e *MissingKeywordError) Unwrap() error { return ErrMissingKeyword }

// RemoteError is a non-success response from the remote store. Kind is one of
// the remote sentinels (ErrCreation, ErrPublish, ...) and is what errors.Is
// matches against.
type RemoteError struct {
	Op         string
	StatusCode int
	Payload    string
	Kind       error
}

func (e *RemoteError) Error() string {
	if e.Payload == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Payload)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote || target == e.kind()
}

func (e *RemoteError) Unwrap() error { return e.kind() }

func (e *RemoteError) kind() error {
	if e.Kind == nil {
		return ErrRemote
	}
	return e.Kind
}

// IsNotFound reports whether err is (or wraps) a not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAlreadyExists reports whether err is (or wraps) an already-exists condition.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }

// IsAmbiguousResult reports whether err is (or wraps) an ambiguous-result condition.
func IsAmbiguousResult(err error) bool { return errors.Is(err, ErrAmbiguousResult) }

// IsInvalidManifest reports whether err is (or wraps) a manifest validation failure.
func IsInvalidManifest(err error) bool { return errors.Is(err, ErrInvalidManifest) }
