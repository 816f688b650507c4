// Package naming derives manifest resource fields from archived filenames.
//
// Each dataset archives its files under a naming convention that encodes the
// partition of the data (a year, a year and month, a year and state). A
// Strategy parses that convention back out of the filename.
package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Strategy names accepted by Lookup.
const (
	Annual     = "annual"
	FERCAnnual = "ferc_annual"
	YearMonth  = "year_month"
	YearState  = "year_state"
	FERC714    = "ferc714"
	Minimal    = "minimal"
)

// Partition holds the resource fields derived from a filename.
type Partition struct {
	Title     string
	Format    string
	MediaType string
	Parts     map[string]any
}

// Strategy maps an archived file to its partition fields.
type Strategy func(name string, size int64, checksum string) (*Partition, error)

var strategies = map[string]Strategy{
	Annual:     AnnualStrategy,
	FERCAnnual: FERCAnnualStrategy,
	YearMonth:  YearMonthStrategy,
	YearState:  YearStateStrategy,
	FERC714:    FERC714Strategy,
	Minimal:    MinimalStrategy,
}

// Lookup returns the strategy registered under name.
func Lookup(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown naming strategy: %q", name)
	}
	return s, nil
}

// Names returns the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var mediaTypes = map[string]string{
	"zip":     "application/zip",
	"xlsx":    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"csv":     "text/csv",
	"json":    "application/json",
	"parquet": "application/vnd.apache.parquet",
}

// MediaType returns the media type archived files with the given format
// (extension without the dot) are published under.
func MediaType(format string) (string, error) {
	mt, ok := mediaTypes[strings.ToLower(format)]
	if !ok {
		return "", fmt.Errorf("no media type for file format %q", format)
	}
	return mt, nil
}

var (
	yearPattern      = regexp.MustCompile(`(\d{4})`)
	yearMonthPattern = regexp.MustCompile(`(\d{4})-(\d{2})`)
	yearStatePattern = regexp.MustCompile(`(\d{4})-(\w{2})`)
	modernYear       = regexp.MustCompile(`2\d{3}`)
)

// base splits name into its stem and format and resolves the media type.
func base(name string) (*Partition, error) {
	ext := filepath.Ext(name)
	format := strings.TrimPrefix(ext, ".")
	mt, err := MediaType(format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Partition{
		Title:     strings.TrimSuffix(name, ext),
		Format:    format,
		MediaType: mt,
		Parts:     map[string]any{},
	}, nil
}

// MinimalStrategy derives no partitions.
func MinimalStrategy(name string, _ int64, _ string) (*Partition, error) {
	return base(name)
}

// AnnualStrategy takes the first four-digit run in the filename as the year.
func AnnualStrategy(name string, _ int64, _ string) (*Partition, error) {
	m := yearPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("no year present in filename %s", name)
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing year in %s: %w", name, err)
	}

	p, err := base(name)
	if err != nil {
		return nil, err
	}
	p.Parts["year"] = year
	return p, nil
}

// FERCAnnualStrategy is AnnualStrategy plus a data_format partition. FERC
// filers may resubmit past years as XBRL, so a year can have both an XBRL and
// a DBF archive.
func FERCAnnualStrategy(name string, size int64, checksum string) (*Partition, error) {
	p, err := AnnualStrategy(name, size, checksum)
	if err != nil {
		return nil, err
	}
	format := "DBF"
	if strings.Contains(name, "xbrl") {
		format = "XBRL"
	}
	p.Parts["data_format"] = format
	return p, nil
}

// YearMonthStrategy takes a YYYY-MM run in the filename as year_month.
func YearMonthStrategy(name string, _ int64, _ string) (*Partition, error) {
	m := yearMonthPattern.FindString(name)
	if m == "" {
		return nil, fmt.Errorf("no year/month present in filename %s", name)
	}

	p, err := base(name)
	if err != nil {
		return nil, err
	}
	p.Parts["year_month"] = m
	return p, nil
}

// YearStateStrategy takes a YYYY-ss run in the filename as year and state.
func YearStateStrategy(name string, _ int64, _ string) (*Partition, error) {
	m := yearStatePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("no year/state present in filename %s", name)
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing year in %s: %w", name, err)
	}

	p, err := base(name)
	if err != nil {
		return nil, err
	}
	p.Parts["year"] = year
	p.Parts["state"] = m[2]
	return p, nil
}

// FERC714Strategy handles the single historical DBF archive covering all
// years alongside the annual XBRL archives.
func FERC714Strategy(name string, size int64, checksum string) (*Partition, error) {
	if modernYear.MatchString(name) {
		return AnnualStrategy(name, size, checksum)
	}
	return MinimalStrategy(name, size, checksum)
}
