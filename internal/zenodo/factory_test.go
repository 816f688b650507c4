package zenodo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/config"
)

func TestAPIRoot(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ZenodoConfig
		want string
	}{
		{name: "production", cfg: config.ZenodoConfig{}, want: ProductionAPI},
		{name: "sandbox", cfg: config.ZenodoConfig{Sandbox: true}, want: SandboxAPI},
		{name: "explicit root wins", cfg: config.ZenodoConfig{Sandbox: true, APIRoot: "http://localhost:8080/api"}, want: "http://localhost:8080/api"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, APIRoot(tt.cfg))
		})
	}
}

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("http client has no timeout", func(t *testing.T) {
		store, err := NewStoreFromConfig(config.ZenodoConfig{Type: "http", Sandbox: true}, testToken, nil)
		require.NoError(t, err)

		c, ok := store.(*Client)
		require.True(t, ok)
		assert.Zero(t, c.httpClient.Timeout)
		assert.Equal(t, SandboxAPI, c.apiRoot)
	})

	t.Run("http requires a token", func(t *testing.T) {
		_, err := NewStoreFromConfig(config.ZenodoConfig{Type: "http"}, "", nil)
		assert.Error(t, err)
	})

	t.Run("memory", func(t *testing.T) {
		store, err := NewStoreFromConfig(config.ZenodoConfig{Type: "memory"}, "", nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewStoreFromConfig(config.ZenodoConfig{Type: "ftp"}, testToken, nil)
		assert.Error(t, err)
	})
}
