package app

import (
	"fmt"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// Operation names recorded in the run ledger.
const (
	OpInitialize     = "initialize"
	OpSync           = "sync"
	OpPlanInitialize = "plan-initialize"
	OpPlan           = "plan"
)

// OperationName returns the ledger operation name for an archive run.
func OperationName(initialize, dryRun bool) string {
	switch {
	case initialize && dryRun:
		return OpPlanInitialize
	case initialize:
		return OpInitialize
	case dryRun:
		return OpPlan
	default:
		return OpSync
	}
}

// operation tracks one archive run in the ledger from start to finish.
type operation struct {
	ledger zs.Ledger
	run    *zs.Run
}

func startOperation(ledger zs.Ledger, runID, dataset, name string) (*operation, error) {
	run, err := ledger.StartRun(runID, dataset, name)
	if err != nil {
		return nil, fmt.Errorf("recording run start: %w", err)
	}
	return &operation{ledger: ledger, run: run}, nil
}

// finish records the outcome of the run. runErr is the error the run
// failed with, if any.
func (o *operation) finish(res *zs.Result, runErr error) error {
	o.run.Record(res)
	if runErr != nil {
		o.run.Status = zs.RunError
		o.run.Error = runErr.Error()
	} else {
		o.run.Status = zs.RunSuccess
	}
	if err := o.ledger.FinishRun(o.run); err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}
