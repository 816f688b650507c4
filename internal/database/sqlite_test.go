package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

type tickClock struct {
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

// newTestLedger creates a migrated in-memory ledger.
func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()

	clock := &tickClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
	l, err := NewSQLiteLedger(":memory:", clock)
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	t.Cleanup(func() {
		l.Close()
	})
	return l
}

func TestSQLiteLedger_StartRun(t *testing.T) {
	l := newTestLedger(t)

	run, err := l.StartRun("run-1", "eia860", "sync")
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if run.ID == 0 {
		t.Error("ID = 0, want assigned row id")
	}
	if run.Status != zs.RunRunning {
		t.Errorf("Status = %q, want %q", run.Status, zs.RunRunning)
	}
	if run.FinishedAt != nil {
		t.Errorf("FinishedAt = %v, want nil", run.FinishedAt)
	}

	if _, err := l.StartRun("run-1", "eia860", "sync"); err == nil {
		t.Error("StartRun() with duplicate run id expected error")
	}
}

func TestSQLiteLedger_FinishRun(t *testing.T) {
	t.Run("records outcome", func(t *testing.T) {
		l := newTestLedger(t)

		run, err := l.StartRun("run-1", "ferc714", "sync")
		if err != nil {
			t.Fatalf("StartRun() error = %v", err)
		}
		run.Record(&zs.Result{
			Plan: &zs.ActionPlan{
				Create: map[string]*zs.FileRecord{"a.zip": {}, "b.zip": {}},
				Update: map[string]*zs.FileRecord{},
				Delete: map[string]*zs.FileRecord{"c.zip": {}},
			},
			Deposition: &zs.Deposition{ID: 42, Links: zs.DepositionLinks{HTML: "https://zenodo.org/deposit/42"}},
		})

		if err := l.FinishRun(run); err != nil {
			t.Fatalf("FinishRun() error = %v", err)
		}
		if run.Status != zs.RunSuccess {
			t.Errorf("Status = %q, want %q", run.Status, zs.RunSuccess)
		}
		if run.FinishedAt == nil || !run.FinishedAt.After(run.StartedAt) {
			t.Errorf("FinishedAt = %v, want after %v", run.FinishedAt, run.StartedAt)
		}

		runs, err := l.ListRuns(10)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("ListRuns() returned %d runs, want 1", len(runs))
		}
		got := runs[0]
		if got.Created != 2 || got.Updated != 0 || got.Deleted != 1 {
			t.Errorf("counts = (%d, %d, %d), want (2, 0, 1)", got.Created, got.Updated, got.Deleted)
		}
		if got.DepositionID != 42 || got.DepositionURL != "https://zenodo.org/deposit/42" {
			t.Errorf("deposition = (%d, %q)", got.DepositionID, got.DepositionURL)
		}
		if got.FinishedAt == nil {
			t.Error("FinishedAt not persisted")
		}
	})

	t.Run("records error", func(t *testing.T) {
		l := newTestLedger(t)

		run, err := l.StartRun("run-1", "ferc1", "initialize")
		if err != nil {
			t.Fatalf("StartRun() error = %v", err)
		}
		run.Status = zs.RunError
		run.Error = "deposition already exists"

		if err := l.FinishRun(run); err != nil {
			t.Fatalf("FinishRun() error = %v", err)
		}

		runs, err := l.ListRuns(1)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if runs[0].Status != zs.RunError || runs[0].Error != "deposition already exists" {
			t.Errorf("run = (%q, %q), want error outcome", runs[0].Status, runs[0].Error)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		l := newTestLedger(t)

		err := l.FinishRun(&zs.Run{ID: 99, RunID: "ghost"})
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("FinishRun() error = %v, want ErrRunNotFound", err)
		}
	})
}

func TestSQLiteLedger_ListRuns(t *testing.T) {
	l := newTestLedger(t)

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		if _, err := l.StartRun(id, "epacems", "sync"); err != nil {
			t.Fatalf("StartRun(%s) error = %v", id, err)
		}
	}

	runs, err := l.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}
	if runs[0].RunID != "run-3" || runs[1].RunID != "run-2" {
		t.Errorf("ListRuns() order = [%s %s], want [run-3 run-2]", runs[0].RunID, runs[1].RunID)
	}
}

func TestSQLiteLedger_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zs.db")

	l, err := NewSQLiteLedger(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteLedger() error = %v", err)
	}
	if _, err := l.StartRun("run-1", "eia861", "sync"); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	if l.Path() != path {
		t.Errorf("Path() = %q, want %q", l.Path(), path)
	}
	l.Close()

	reopened, err := NewSQLiteLedger(path, nil)
	if err != nil {
		t.Fatalf("reopening ledger: %v", err)
	}
	defer reopened.Close()

	if err := reopened.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() error = %v", err)
	}
	runs, err := reopened.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].Dataset != "eia861" {
		t.Errorf("ListRuns() = %v, want the eia861 run", runs)
	}
}
