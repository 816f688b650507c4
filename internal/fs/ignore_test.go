package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewIgnoreMatcher(t *testing.T) {
	t.Run("skips blank lines and comments", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"", "  ", "# comment", "*.log"})
		if len(m.patterns) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(m.patterns))
		}
		if m.patterns[0] != "*.log" {
			t.Errorf("expected *.log, got %s", m.patterns[0])
		}
	})

	t.Run("drops path and malformed patterns", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"*.log", "build/output", "[unclosed"})
		if len(m.patterns) != 1 {
			t.Fatalf("expected 1 pattern, got %v", m.patterns)
		}
	})
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		filename string
		want     bool
	}{
		{"glob matches", []string{"*.log"}, "app.log", true},
		{"glob matches basename of path", []string{"*.log"}, filepath.Join("sub", "app.log"), true},
		{"glob does not match different extension", []string{"*.log"}, "app.txt", false},
		{"exact match", []string{IgnoreFileName}, IgnoreFileName, true},
		{"hidden files", []string{".*"}, ".DS_Store", true},
		{"question mark wildcard", []string{"?.txt"}, "a.txt", true},
		{"question mark does not match multiple chars", []string{"?.txt"}, "ab.txt", false},
		{"character class", []string{"*.[oa]"}, "main.o", true},
		{"no patterns matches nothing", nil, "anything.txt", false},
		{"empty name", []string{"*"}, "", false},
		{"second pattern matches", []string{"*.log", "*.tmp"}, "data.tmp", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewIgnoreMatcher(tt.patterns)
			if got := m.Match(tt.filename); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestIgnoreMatcher_With(t *testing.T) {
	base := NewIgnoreMatcher([]string{"*.log"})
	combined := base.With([]string{"*.tmp"})

	if !combined.Match("a.log") || !combined.Match("a.tmp") {
		t.Errorf("combined matcher should match both patterns, has %v", combined.patterns)
	}
	if base.Match("a.tmp") {
		t.Error("With must not modify the receiver")
	}
}

func TestParseIgnore(t *testing.T) {
	patterns, err := ParseIgnore(strings.NewReader("*.log\n# comment\n\n*.tmp\n"))
	if err != nil {
		t.Fatalf("ParseIgnore() error = %v", err)
	}
	if len(patterns) != 4 { // includes blank and comment lines; filtering is NewIgnoreMatcher's job
		t.Fatalf("expected 4 raw lines, got %d", len(patterns))
	}
	if m := NewIgnoreMatcher(patterns); len(m.patterns) != 2 {
		t.Errorf("expected 2 parsed patterns, got %d", len(m.patterns))
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("reads patterns from file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, IgnoreFileName)
		if err := os.WriteFile(path, []byte("*.log\n*.tmp\n"), 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}

		patterns, err := ParseIgnoreFile(path)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if len(patterns) != 2 {
			t.Fatalf("expected 2 patterns, got %d", len(patterns))
		}
	})

	t.Run("returns nil for missing file", func(t *testing.T) {
		t.Parallel()
		patterns, err := ParseIgnoreFile("/nonexistent/" + IgnoreFileName)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if patterns != nil {
			t.Errorf("expected nil patterns, got %v", patterns)
		}
	})
}
