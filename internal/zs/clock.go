package zs

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the manifest creation time and ledger timestamps.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator mints the identifiers of archive runs.
type IDGenerator interface {
	New() string
}

// UUIDGenerator mints version 7 UUIDs so run IDs sort by start time.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.Must(uuid.NewV7()).String() }
