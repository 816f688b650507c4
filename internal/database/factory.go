package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/config"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// LedgerFileName is the SQLite file created inside data_dir.
const LedgerFileName = "zs.db"

// NewLedgerFromConfig creates a Ledger based on the database config type.
func NewLedgerFromConfig(cfg config.DatabaseConfig, clock zs.Clock) (zs.Ledger, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data_dir: %w", err)
		}
		return NewSQLiteLedger(filepath.Join(cfg.DataDir, LedgerFileName), clock)
	case "memory":
		return NewSQLiteLedger(":memory:", clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
