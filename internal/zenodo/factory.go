package zenodo

import (
	"fmt"
	"net/http"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/config"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// APIRoot returns the endpoint selected by cfg.
func APIRoot(cfg config.ZenodoConfig) string {
	switch {
	case cfg.APIRoot != "":
		return cfg.APIRoot
	case cfg.Sandbox:
		return SandboxAPI
	default:
		return ProductionAPI
	}
}

// NewStoreFromConfig creates a Store based on the zenodo config type.
func NewStoreFromConfig(cfg config.ZenodoConfig, token string, logger zs.Logger) (zs.Store, error) {
	switch cfg.Type {
	case "http", "":
		if token == "" {
			return nil, fmt.Errorf("zenodo access token is empty")
		}
		// No client timeout; uploads run as long as ctx allows.
		return NewClient(APIRoot(cfg), token, &http.Client{}, logger), nil
	case "memory":
		return NewMemoryStore(nil), nil
	default:
		return nil, fmt.Errorf("unknown zenodo store type: %q", cfg.Type)
	}
}
