package datapackage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/naming"
)

var created = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func testDescriptor() Descriptor {
	return Descriptor{
		Name:        "eia860",
		Title:       "EIA Form 860",
		Description: "Generator level data.",
		Keywords:    []string{"eia", "860"},
		SourcePath:  "https://www.eia.gov/electricity/data/eia860/",
		Homepage:    "https://catalyst.coop/pudl/",
		License: License{
			Name:  "other-pd",
			Title: "U.S. Government Work",
			Path:  "http://www.usa.gov/publicdomain/label/1.0/",
		},
		Contributors: []Contributor{{
			Title: "Catalyst Cooperative",
			Path:  "https://catalyst.coop/",
			Email: "pudl@catalyst.coop",
			Role:  "publisher",
		}},
	}
}

func fakeFile(name string, size int64) File {
	return File{
		Name:     name,
		URL:      "https://zenodo.org/api/files/bucket-1/" + name,
		Size:     size,
		Checksum: "0cc175b9c0f1b6a831c399e269772661",
	}
}

func TestNew_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		strategy naming.Strategy
		file     File
		check    func(t *testing.T, r Resource)
	}{
		{
			name:     "annual",
			strategy: naming.AnnualStrategy,
			file:     fakeFile("eia860-2019.zip", 734521),
			check: func(t *testing.T, r Resource) {
				year, ok := r.PartInt("year")
				require.True(t, ok)
				assert.Equal(t, 2019, year)
			},
		},
		{
			name:     "year month",
			strategy: naming.YearMonthStrategy,
			file:     fakeFile("eia860m-2018-07.xlsx", 523000),
			check: func(t *testing.T, r Resource) {
				ym, ok := r.PartString("year_month")
				require.True(t, ok)
				assert.Equal(t, "2018-07", ym)
				assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", r.MediaType)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, err := New(testDescriptor(), []File{tt.file}, tt.strategy, created)
			require.NoError(t, err)
			require.Empty(t, Validate(pkg))

			data, err := pkg.Encode()
			require.NoError(t, err)

			parsed, err := Parse(data)
			require.NoError(t, err)
			require.Len(t, parsed.Resources, 1)

			r := parsed.Resources[0]
			assert.Equal(t, tt.file.Name, r.Name)
			assert.Equal(t, tt.file.URL, r.Path)
			assert.Equal(t, tt.file.URL, r.RemoteURL)
			assert.Equal(t, tt.file.Size, r.Bytes)
			assert.Equal(t, tt.file.Checksum, r.Hash)
			tt.check(t, r)
		})
	}
}

func TestNew_PackageFields(t *testing.T) {
	pkg, err := New(testDescriptor(), []File{
		fakeFile("eia860-2020.zip", 10),
		fakeFile("eia860-2019.zip", 20),
	}, naming.AnnualStrategy, created)
	require.NoError(t, err)

	assert.Equal(t, "pudl-raw-eia860", pkg.Name)
	assert.Equal(t, "PUDL Raw EIA Form 860", pkg.Title)
	assert.Equal(t, PackageProfile, pkg.Profile)
	assert.Equal(t, "2024-01-15T10:30:00Z", pkg.Created)
	assert.Equal(t, []Source{{Title: "EIA Form 860", Path: "https://www.eia.gov/electricity/data/eia860/"}}, pkg.Sources)
	require.Len(t, pkg.Licenses, 1)
	assert.Equal(t, "other-pd", pkg.Licenses[0].Name)

	require.Len(t, pkg.Resources, 2)
	assert.Equal(t, "eia860-2019.zip", pkg.Resources[0].Name)
	assert.Equal(t, "eia860-2020.zip", pkg.Resources[1].Name)
	assert.Equal(t, "eia860-2019", pkg.Resources[0].Title)
	assert.Equal(t, DefaultEncoding, pkg.Resources[0].Encoding)
	assert.Equal(t, "zip", pkg.Resources[0].Format)
}

func TestNew_DoesNotShareDescriptorSlices(t *testing.T) {
	d := testDescriptor()
	pkg, err := New(d, []File{fakeFile("eia860-2019.zip", 1)}, naming.AnnualStrategy, created)
	require.NoError(t, err)

	pkg.Keywords[0] = "changed"
	assert.Equal(t, "eia", d.Keywords[0])
}

func TestNew_StrategyError(t *testing.T) {
	_, err := New(testDescriptor(), []File{fakeFile("eia860.zip", 1)}, naming.AnnualStrategy, created)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Package {
		pkg, err := New(testDescriptor(), []File{fakeFile("eia860-2019.zip", 1)}, naming.AnnualStrategy, created)
		require.NoError(t, err)
		return pkg
	}

	tests := []struct {
		name      string
		mutate    func(p *Package)
		wantField string
	}{
		{name: "missing name", mutate: func(p *Package) { p.Name = "" }, wantField: "name"},
		{name: "uppercase name", mutate: func(p *Package) { p.Name = "PUDL" }, wantField: "name"},
		{name: "wrong profile", mutate: func(p *Package) { p.Profile = "tabular" }, wantField: "profile"},
		{name: "no keywords", mutate: func(p *Package) { p.Keywords = nil }, wantField: "keywords"},
		{name: "bad created", mutate: func(p *Package) { p.Created = "yesterday" }, wantField: "created"},
		{name: "no resources", mutate: func(p *Package) { p.Resources = nil }, wantField: "resources"},
		{name: "contributor without title", mutate: func(p *Package) { p.Contributors[0].Title = "" }, wantField: "contributors[0].title"},
		{name: "license without name or path", mutate: func(p *Package) { p.Licenses[0] = License{Title: "x"} }, wantField: "licenses[0].name"},
		{name: "license name with spaces", mutate: func(p *Package) { p.Licenses[0].Name = "CC BY 4.0 (with spaces)" }, wantField: "licenses[0].name"},
		{name: "contributor unknown role", mutate: func(p *Package) { p.Contributors[0].Role = "owner" }, wantField: "contributors[0].role"},
		{name: "contributor bad email", mutate: func(p *Package) { p.Contributors[0].Email = "not-an-email" }, wantField: "contributors[0].email"},
		{name: "contributor path not url", mutate: func(p *Package) { p.Contributors[0].Path = "not a url" }, wantField: "contributors[0].path"},
		{name: "source path not url", mutate: func(p *Package) { p.Sources[0].Path = "::not a url::" }, wantField: "sources[0].path"},
		{name: "no licenses", mutate: func(p *Package) { p.Licenses = []License{} }, wantField: "licenses"},
		{name: "resource wrong profile", mutate: func(p *Package) { p.Resources[0].Profile = "tabular-data-resource" }, wantField: "resources[0].profile"},
		{name: "resource path not url", mutate: func(p *Package) { p.Resources[0].Path = "eia860-2019.zip" }, wantField: "resources[0].path"},
		{name: "resource negative bytes", mutate: func(p *Package) { p.Resources[0].Bytes = -1 }, wantField: "resources[0].bytes"},
		{name: "resource bad hash", mutate: func(p *Package) { p.Resources[0].Hash = "not-hex!" }, wantField: "resources[0].hash"},
		{name: "resource bad mediatype", mutate: func(p *Package) { p.Resources[0].MediaType = "zip" }, wantField: "resources[0].mediatype"},
		{name: "duplicate resource", mutate: func(p *Package) { p.Resources = append(p.Resources, p.Resources[0]) }, wantField: "resources[1].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg := valid()
			tt.mutate(pkg)

			errs := Validate(pkg)
			require.NotEmpty(t, errs)

			var fields []string
			for _, err := range errs {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				fields = append(fields, ve.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestValidate_CollectsEveryError(t *testing.T) {
	pkg := &Package{}
	errs := Validate(pkg)
	assert.GreaterOrEqual(t, len(errs), 4)
}

func TestValidate_ReportsEveryProfileViolation(t *testing.T) {
	pkg, err := New(testDescriptor(), []File{fakeFile("eia860-2019.zip", 1)}, naming.AnnualStrategy, created)
	require.NoError(t, err)
	pkg.Contributors[0] = Contributor{Title: "Someone", Role: "owner", Email: "not-an-email", Path: "not a url"}
	pkg.Licenses[0].Name = "CC BY 4.0 (with spaces)"
	pkg.Sources[0].Path = "::not a url::"

	var fields []string
	for _, err := range Validate(pkg) {
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.NotEmpty(t, ve.Message)
		fields = append(fields, ve.Field)
	}
	assert.ElementsMatch(t, []string{
		"contributors[0].role",
		"contributors[0].email",
		"contributors[0].path",
		"licenses[0].name",
		"sources[0].path",
	}, fields)
}

func TestValidate_NoContributors(t *testing.T) {
	d := testDescriptor()
	d.Contributors = nil
	pkg, err := New(d, []File{fakeFile("eia860-2019.zip", 1)}, naming.AnnualStrategy, created)
	require.NoError(t, err)
	assert.Empty(t, Validate(pkg))
}

func TestValidate_Nil(t *testing.T) {
	errs := Validate(nil)
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "package: descriptor is nil")
}

func TestFieldPath(t *testing.T) {
	tests := []struct {
		loc  []string
		want string
	}{
		{loc: nil, want: "package"},
		{loc: []string{"name"}, want: "name"},
		{loc: []string{"resources", "0", "hash"}, want: "resources[0].hash"},
		{loc: []string{"contributors", "12"}, want: "contributors[12]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldPath(tt.loc))
		})
	}
}

func TestValidate_AcceptsPrefixedHash(t *testing.T) {
	pkg, err := New(testDescriptor(), []File{fakeFile("eia860-2019.zip", 1)}, naming.AnnualStrategy, created)
	require.NoError(t, err)
	pkg.Resources[0].Hash = "md5:0cc175b9c0f1b6a831c399e269772661"
	assert.Empty(t, Validate(pkg))
}
