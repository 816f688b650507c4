package testutil

import (
	"testing"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/database"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// NewTestLedger creates a migrated in-memory run ledger on FixedClock.
// The ledger is automatically closed when the test completes.
func NewTestLedger(t *testing.T) zs.Ledger {
	t.Helper()

	l, err := database.NewSQLiteLedger(":memory:", FixedClock())
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}

	t.Cleanup(func() {
		l.Close()
	})

	return l
}
