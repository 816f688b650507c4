// Package datapackage builds the Frictionless Data Package descriptor
// (datapackage.json) published alongside every archive.
package datapackage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/naming"
)

// Profiles of the descriptors produced here.
const (
	PackageProfile  = "data-package"
	ResourceProfile = "data-resource"
	DefaultEncoding = "utf-8"
)

// Package is a Data Package descriptor.
type Package struct {
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Keywords     []string      `json:"keywords"`
	Contributors []Contributor `json:"contributors"`
	Sources      []Source      `json:"sources"`
	Profile      string        `json:"profile"`
	Homepage     string        `json:"homepage"`
	Licenses     []License     `json:"licenses"`
	Resources    []Resource    `json:"resources"`
	Created      string        `json:"created"`
}

// Resource describes one archived file.
type Resource struct {
	Profile   string         `json:"profile"`
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	RemoteURL string         `json:"remote_url"`
	Title     string         `json:"title"`
	Parts     map[string]any `json:"parts"`
	Encoding  string         `json:"encoding"`
	MediaType string         `json:"mediatype"`
	Format    string         `json:"format"`
	Bytes     int64          `json:"bytes"`
	Hash      string         `json:"hash"`
}

// PartInt returns an integer partition value. Parsed descriptors hold JSON
// numbers as float64, built ones hold int.
func (r Resource) PartInt(key string) (int, bool) {
	switch v := r.Parts[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

// PartString returns a string partition value.
func (r Resource) PartString(key string) (string, bool) {
	v, ok := r.Parts[key].(string)
	return v, ok
}

// Contributor is a person or organization credited in the package.
type Contributor struct {
	Title        string `json:"title" toml:"title"`
	Path         string `json:"path,omitempty" toml:"path"`
	Email        string `json:"email,omitempty" toml:"email"`
	Role         string `json:"role,omitempty" toml:"role"`
	Organization string `json:"organization,omitempty" toml:"organization"`
}

// License is a license the package is published under.
type License struct {
	Name  string `json:"name" toml:"name"`
	Title string `json:"title,omitempty" toml:"title"`
	Path  string `json:"path,omitempty" toml:"path"`
}

// Source is where the archived data was obtained.
type Source struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Descriptor is the dataset-level information a package is built from.
type Descriptor struct {
	Name         string
	Title        string
	Description  string
	Keywords     []string
	SourcePath   string
	Homepage     string
	License      License
	Contributors []Contributor
}

// File is a remote file to describe as a resource.
type File struct {
	Name     string
	URL      string
	Size     int64
	Checksum string
}

// New builds a package describing files. Resources are ordered by name.
// Every call returns a freshly allocated descriptor.
func New(d Descriptor, files []File, strategy naming.Strategy, created time.Time) (*Package, error) {
	sorted := append([]File(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	resources := make([]Resource, 0, len(sorted))
	for _, f := range sorted {
		part, err := strategy(f.Name, f.Size, f.Checksum)
		if err != nil {
			return nil, fmt.Errorf("describing %s: %w", f.Name, err)
		}
		resources = append(resources, Resource{
			Profile:   ResourceProfile,
			Name:      f.Name,
			Path:      f.URL,
			RemoteURL: f.URL,
			Title:     part.Title,
			Parts:     part.Parts,
			Encoding:  DefaultEncoding,
			MediaType: part.MediaType,
			Format:    part.Format,
			Bytes:     f.Size,
			Hash:      f.Checksum,
		})
	}

	return &Package{
		Name:         "pudl-raw-" + d.Name,
		Title:        "PUDL Raw " + d.Title,
		Description:  d.Description,
		Keywords:     append([]string(nil), d.Keywords...),
		Contributors: append([]Contributor{}, d.Contributors...),
		Sources:      []Source{{Title: d.Title, Path: d.SourcePath}},
		Profile:      PackageProfile,
		Homepage:     d.Homepage,
		Licenses:     []License{d.License},
		Resources:    resources,
		Created:      created.UTC().Format(time.RFC3339),
	}, nil
}

// Encode renders the package as indented JSON.
func (p *Package) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encoding datapackage: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse decodes a datapackage.json document.
func Parse(data []byte) (*Package, error) {
	var p Package
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding datapackage: %w", err)
	}
	return &p, nil
}
