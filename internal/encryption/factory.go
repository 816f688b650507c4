package encryption

import (
	"fmt"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/config"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// NewTokenStoreFromConfig creates the TokenStore for the configured token file.
func NewTokenStoreFromConfig(cfg config.ZenodoConfig) (zs.TokenStore, error) {
	if cfg.TokenFile == "" {
		return nil, fmt.Errorf("zenodo.token_file is not set")
	}
	return NewAgeTokenStore(cfg.TokenFile), nil
}
