package zs

import "time"

// Run statuses recorded in the ledger.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunError   = "error"
)

// Run is one archiver invocation as recorded in the ledger.
type Run struct {
	ID            int64
	RunID         string
	Dataset       string
	Operation     string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Status        string
	DepositionID  int64
	DepositionURL string
	Created       int
	Updated       int
	Deleted       int
	Error         string
}

// Record copies the outcome of a sync into the run.
func (r *Run) Record(res *Result) {
	if res == nil {
		return
	}
	if res.Plan != nil {
		r.Created = len(res.Plan.Create)
		r.Updated = len(res.Plan.Update)
		r.Deleted = len(res.Plan.Delete)
	}
	if res.Deposition != nil {
		r.DepositionID = res.Deposition.ID
		r.DepositionURL = res.Deposition.Links.HTML
	}
}

// Ledger persists the history of archiver runs.
type Ledger interface {
	StartRun(runID, dataset, operation string) (*Run, error)
	FinishRun(run *Run) error
	ListRuns(limit int) ([]*Run, error)
	Close() error
}
