package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestZsHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		runID   string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			runID:   "run-123",
			level:   slog.LevelInfo,
			message: "file uploaded",
			want:    "2024-06-15T14:30:45Z\tINFO\trun-123\tfile uploaded\n",
		},
		{
			name:    "warn level",
			runID:   "run-456",
			level:   slog.LevelWarn,
			message: "file to delete missing from draft",
			want:    "2024-06-15T14:30:45Z\tWARN\trun-456\tfile to delete missing from draft\n",
		},
		{
			name:    "with record attrs",
			runID:   "run-789",
			level:   slog.LevelInfo,
			message: "deposition published",
			attrs:   []slog.Attr{slog.String("dataset", "eia860"), slog.Int64("id", 42)},
			want:    "2024-06-15T14:30:45Z\tINFO\trun-789\tdeposition published\tdataset=eia860\tid=42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &zsHandler{w: &buf, runID: tt.runID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestZsHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &zsHandler{w: &buf, runID: "run-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "mirror")}).(*zsHandler)
	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	r := slog.NewRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), slog.LevelInfo, "put", 0)
	r.AddAttrs(slog.String("version", "2.0.0"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"a=1", "component=mirror", "version=2.0.0"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s in output, got: %q", want, got)
		}
	}
}

func TestZsHandler_Enabled(t *testing.T) {
	tests := []struct {
		name    string
		level   slog.Leveler
		enabled []slog.Level
		skipped []slog.Level
	}{
		{
			name:    "default is info",
			enabled: []slog.Level{slog.LevelInfo, slog.LevelWarn, slog.LevelError},
			skipped: []slog.Level{slog.LevelDebug},
		},
		{
			name:    "debug enables everything",
			level:   slog.LevelDebug,
			enabled: []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelError},
		},
		{
			name:    "warn",
			level:   slog.LevelWarn,
			enabled: []slog.Level{slog.LevelWarn, slog.LevelError},
			skipped: []slog.Level{slog.LevelDebug, slog.LevelInfo},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &zsHandler{level: tt.level}
			for _, l := range tt.enabled {
				if !h.Enabled(context.Background(), l) {
					t.Errorf("Enabled(%v) = false, want true", l)
				}
			}
			for _, l := range tt.skipped {
				if h.Enabled(context.Background(), l) {
					t.Errorf("Enabled(%v) = true, want false", l)
				}
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("file only", func(t *testing.T) {
		dir := t.TempDir()

		logger, f, err := newLogger(dir, "run-1", slog.LevelInfo, nil)
		if err != nil {
			t.Fatalf("newLogger() error = %v", err)
		}
		logger.Info("hello", "dataset", "ferc1")
		logger.Debug("hidden")
		f.Close()

		data, err := os.ReadFile(filepath.Join(dir, LogFileName))
		if err != nil {
			t.Fatalf("reading log file: %v", err)
		}
		if !strings.Contains(string(data), "\tINFO\trun-1\thello\tdataset=ferc1\n") {
			t.Errorf("log file = %q, want the info line", data)
		}
		if strings.Contains(string(data), "hidden") {
			t.Errorf("log file contains debug line below level: %q", data)
		}
	})

	t.Run("verbose copies to stderr", func(t *testing.T) {
		var stderr bytes.Buffer

		logger, f, err := newLogger(t.TempDir(), "run-2", slog.LevelDebug, &stderr)
		if err != nil {
			t.Fatalf("newLogger() error = %v", err)
		}
		defer f.Close()

		logger.Debug("checking")
		if !strings.Contains(stderr.String(), "\tDEBUG\trun-2\tchecking\n") {
			t.Errorf("stderr = %q, want the debug line", stderr.String())
		}
	})
}
