package encryption

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/config"
)

// testWorkFactor keeps scrypt fast in tests.
const testWorkFactor = 10

func newTestAgeTokenStore(t *testing.T) (*AgeTokenStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys", "zenodo.token.age")
	return NewAgeTokenStore(path).WithWorkFactor(testWorkFactor), path
}

func TestAgeTokenStore_Exists_BeforeSave(t *testing.T) {
	t.Parallel()
	s, _ := newTestAgeTokenStore(t)
	if s.Exists() {
		t.Error("Exists() = true before Save, want false")
	}
}

func TestAgeTokenStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "plain", token: "abc123", want: "abc123"},
		{name: "surrounding whitespace", token: "  abc123\n", want: "abc123"},
		{name: "long", token: strings.Repeat("x", 512), want: strings.Repeat("x", 512)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, path := newTestAgeTokenStore(t)

			if err := s.Save(tt.token, "hunter2"); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if !s.Exists() {
				t.Error("Exists() = false after Save")
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading token file: %v", err)
			}
			if strings.Contains(string(raw), tt.want) {
				t.Error("token file contains the plaintext token")
			}

			got, err := s.Load("hunter2")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Load() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAgeTokenStore_Load_WrongPassphrase(t *testing.T) {
	t.Parallel()
	s, _ := newTestAgeTokenStore(t)
	if err := s.Save("abc123", "right"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := s.Load("wrong"); err == nil {
		t.Fatal("Load() with wrong passphrase should fail")
	}
}

func TestAgeTokenStore_Load_Missing(t *testing.T) {
	t.Parallel()
	s, _ := newTestAgeTokenStore(t)
	_, err := s.Load("anything")
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("Load() error = %v, want ErrNoToken", err)
	}
}

func TestAgeTokenStore_Save_Overwrites(t *testing.T) {
	t.Parallel()
	s, _ := newTestAgeTokenStore(t)
	if err := s.Save("first", "p"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save("second", "p"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Load("p")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != "second" {
		t.Errorf("Load() = %q, want %q", got, "second")
	}
}

func TestAgeTokenStore_Save_Empty(t *testing.T) {
	t.Parallel()
	s, _ := newTestAgeTokenStore(t)
	if err := s.Save("   ", "p"); err == nil {
		t.Fatal("Save() of empty token should fail")
	}
	if s.Exists() {
		t.Error("failed Save() must not create the file")
	}
}

func TestMemoryTokenStore(t *testing.T) {
	s := NewMemoryTokenStore()
	if s.Exists() {
		t.Fatal("Exists() = true on empty store")
	}
	if _, err := s.Load("p"); !errors.Is(err, ErrNoToken) {
		t.Errorf("Load() on empty store error = %v, want ErrNoToken", err)
	}
	if err := s.Save("tok", "p"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := s.Load("q"); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Load() error = %v, want ErrWrongPassphrase", err)
	}
	got, err := s.Load("p")
	if err != nil || got != "tok" {
		t.Errorf("Load() = %q, %v; want %q", got, err, "tok")
	}
}

func TestNewTokenStoreFromConfig(t *testing.T) {
	if _, err := NewTokenStoreFromConfig(config.ZenodoConfig{}); err == nil {
		t.Error("expected error without token_file")
	}
	s, err := NewTokenStoreFromConfig(config.ZenodoConfig{TokenFile: "/tmp/x.age"})
	if err != nil {
		t.Fatalf("NewTokenStoreFromConfig() error = %v", err)
	}
	if _, ok := s.(*AgeTokenStore); !ok {
		t.Errorf("got %T, want *AgeTokenStore", s)
	}
}
