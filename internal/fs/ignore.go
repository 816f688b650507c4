package fs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-directory file listing extra ignore patterns.
const IgnoreFileName = ".zsignore"

// defaultIgnorePatterns are always applied regardless of config or .zsignore.
var defaultIgnorePatterns = []string{IgnoreFileName, "datapackage.json"}

// IgnoreMatcher checks filenames against shell glob patterns. Archive
// directories are flat, so patterns match the basename only and patterns
// containing a path separator are dropped.
type IgnoreMatcher struct {
	patterns []string
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped, as are patterns that
// filepath.Match rejects.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") || strings.ContainsRune(raw, '/') {
			continue
		}
		if _, err := filepath.Match(raw, ""); err != nil {
			continue
		}
		m.patterns = append(m.patterns, raw)
	}
	return m
}

// With returns a matcher holding the patterns of m followed by more.
func (m *IgnoreMatcher) With(more []string) *IgnoreMatcher {
	out := NewIgnoreMatcher(more)
	out.patterns = append(append([]string(nil), m.patterns...), out.patterns...)
	return out
}

// Match reports whether a file with the given name should be ignored.
func (m *IgnoreMatcher) Match(name string) bool {
	if name == "" {
		return false
	}
	base := filepath.Base(name)
	for _, p := range m.patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

// ParseIgnore reads one pattern per line. Filtering is NewIgnoreMatcher's job.
func ParseIgnore(r io.Reader) ([]string, error) {
	var patterns []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore patterns: %w", err)
	}
	return patterns, nil
}

// ParseIgnoreFile reads a .zsignore file and returns the raw pattern strings.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()
	return ParseIgnore(f)
}
