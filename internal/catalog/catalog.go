// Package catalog is the registry of archivable data sources. Entries are
// decoded from an embedded TOML file; each yields a zs.Dataset whose
// metadata provider is a pure function.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/datapackage"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/naming"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

//go:embed catalog.toml
var catalogTOML []byte

// PUDLDescription is appended to every deposition description.
const PUDLDescription = `
<p>This archive contains raw input data for the Public Utility Data Liberation (PUDL)
software developed by <a href="https://catalyst.coop">Catalyst Cooperative</a>. It is
organized into <a href="https://specs.frictionlessdata.io/data-package/">Frictionless
Data Packages</a>. For additional information about this data and PUDL, see the
following resources:
<ul>
  <li><a href="https://github.com/catalyst-cooperative/pudl">The PUDL Repository on GitHub</a></li>
  <li><a href="https://catalystcoop-pudl.readthedocs.io">PUDL Documentation</a></li>
  <li><a href="https://zenodo.org/communities/catalyst-cooperative/">Other Catalyst Cooperative data archives</a></li>
</ul>
</p>
`

type catalogFile struct {
	Homepage     string                             `toml:"homepage"`
	Licenses     map[string]datapackage.License     `toml:"licenses"`
	Contributors map[string]datapackage.Contributor `toml:"contributors"`
	Datasets     []entry                            `toml:"datasets"`
}

type entry struct {
	ID           string   `toml:"id"`
	Keyword      string   `toml:"keyword"`
	Title        string   `toml:"title"`
	Description  string   `toml:"description"`
	Path         string   `toml:"path"`
	Keywords     []string `toml:"keywords"`
	License      string   `toml:"license"`
	Contributors []string `toml:"contributors"`
	Strategy     string   `toml:"strategy"`
}

// Registry maps dataset identifiers to datasets.
type Registry struct {
	datasets map[string]*zs.Dataset
}

// Default returns the registry decoded from the embedded catalog.
func Default() (*Registry, error) {
	return Parse(catalogTOML)
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Registry, error) {
	var cf catalogFile
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cf); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	r := &Registry{datasets: make(map[string]*zs.Dataset, len(cf.Datasets))}
	keywords := make(map[string]string, len(cf.Datasets))
	for _, e := range cf.Datasets {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry with empty id")
		}
		if _, dup := r.datasets[e.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", e.ID)
		}
		if e.Keyword == "" {
			return nil, fmt.Errorf("catalog entry %q: keyword is required", e.ID)
		}
		if other, dup := keywords[e.Keyword]; dup {
			return nil, fmt.Errorf("catalog entries %q and %q share keyword %s", other, e.ID, e.Keyword)
		}
		keywords[e.Keyword] = e.ID

		ds, err := newDataset(cf, e)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", e.ID, err)
		}
		r.datasets[e.ID] = ds
	}
	return r, nil
}

// Dataset returns the dataset registered under id.
func (r *Registry) Dataset(id string) (*zs.Dataset, error) {
	ds, ok := r.datasets[id]
	if !ok {
		return nil, &zs.UnsupportedDatasetError{Dataset: id}
	}
	return ds, nil
}

// IDs returns the registered dataset identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.datasets))
	for id := range r.datasets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func newDataset(cf catalogFile, e entry) (*zs.Dataset, error) {
	license, ok := cf.Licenses[e.License]
	if !ok {
		return nil, fmt.Errorf("unknown license %q", e.License)
	}
	contributors := make([]datapackage.Contributor, 0, len(e.Contributors))
	for _, name := range e.Contributors {
		c, ok := cf.Contributors[name]
		if !ok {
			return nil, fmt.Errorf("unknown contributor %q", name)
		}
		contributors = append(contributors, c)
	}
	strategy, err := naming.Lookup(e.Strategy)
	if err != nil {
		return nil, err
	}

	desc := datapackage.Descriptor{
		// Package names may not contain underscores.
		Name:         strings.ReplaceAll(e.ID, "_", "-"),
		Title:        e.Title,
		Description:  e.Description,
		Keywords:     append([]string(nil), e.Keywords...),
		SourcePath:   e.Path,
		Homepage:     cf.Homepage,
		License:      license,
		Contributors: contributors,
	}

	return &zs.Dataset{
		ID:      e.ID,
		Keyword: e.Keyword,
		Metadata: func() zs.Metadata {
			return buildMetadata(e, license, contributors)
		},
		Packager: &packager{desc: desc, strategy: strategy},
	}, nil
}

// buildMetadata assembles the deposition metadata. It allocates every slice
// so callers may modify the result.
func buildMetadata(e entry, license datapackage.License, contributors []datapackage.Contributor) zs.Metadata {
	creators := make([]zs.Creator, 0, len(contributors))
	for _, c := range contributors {
		creators = append(creators, zs.Creator{Name: c.Title, Affiliation: c.Organization})
	}
	keywords := make([]string, 0, len(e.Keywords)+1)
	keywords = append(keywords, e.Keywords...)
	keywords = append(keywords, e.Keyword)

	return zs.Metadata{
		Title:      "PUDL Raw " + e.Title,
		Language:   "eng",
		UploadType: "dataset",
		Description: fmt.Sprintf("<p>%s Archived from\n<a href=\"%s\">%s</a></p>%s",
			e.Description, e.Path, e.Path, PUDLDescription),
		Creators:    creators,
		AccessRight: "open",
		License:     license.Name,
		Keywords:    keywords,
	}
}

type packager struct {
	desc     datapackage.Descriptor
	strategy naming.Strategy
}

func (p *packager) Package(files []*zs.DepositionFile, created time.Time) (*datapackage.Package, error) {
	return datapackage.New(p.desc, zs.ManifestFiles(files), p.strategy, created)
}
