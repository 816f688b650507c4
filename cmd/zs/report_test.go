package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

func testResult() *zs.Result {
	plan := zs.NewActionPlan()
	plan.Create["eia860-2021.zip"] = &zs.FileRecord{Filename: "eia860-2021.zip", Checksum: "aa", Size: 3}
	plan.Create["eia860-2020.zip"] = &zs.FileRecord{Filename: "eia860-2020.zip", Checksum: "bb", Size: 4}
	plan.Delete["eia860-2001.zip"] = &zs.FileRecord{Filename: "eia860-2001.zip", Checksum: "cc", Size: 5}
	return &zs.Result{
		Plan: plan,
		Deposition: &zs.Deposition{
			ID:        12,
			DOI:       "10.5281/zenodo.12",
			Submitted: true,
			Metadata:  zs.Metadata{Version: "3.0.0"},
			Links:     zs.DepositionLinks{HTML: "https://zenodo.org/deposit/12"},
		},
	}
}

func TestWriteReport(t *testing.T) {
	rep := newReport("eia860", "run-1", testResult())

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeReport(&buf, rep, "json"); err != nil {
			t.Fatalf("writeReport() error = %v", err)
		}

		var decoded report
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(decoded.Create) != 2 || decoded.Create[0].Filename != "eia860-2020.zip" {
			t.Errorf("Create = %v, want two records sorted by name", decoded.Create)
		}
		if decoded.Deposition == nil || decoded.Deposition.Version != "3.0.0" {
			t.Errorf("Deposition = %+v, want version 3.0.0", decoded.Deposition)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeReport(&buf, rep, "yaml"); err != nil {
			t.Fatalf("writeReport() error = %v", err)
		}
		out := buf.String()
		for _, want := range []string{"dataset: eia860", "run_id: run-1", "filename: eia860-2001.zip", "version: 3.0.0"} {
			if !strings.Contains(out, want) {
				t.Errorf("yaml output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := writeReport(&bytes.Buffer{}, rep, "xml"); err == nil {
			t.Error("writeReport() expected error for unknown format")
		}
	})
}

func TestWriteSummary(t *testing.T) {
	tests := []struct {
		name string
		res  *zs.Result
		want string
	}{
		{
			name: "changes",
			res:  testResult(),
			want: "+ eia860-2020.zip\n+ eia860-2021.zip\n- eia860-2001.zip\neia860 3.0.0 published: https://zenodo.org/deposit/12\n",
		},
		{
			name: "no changes",
			res:  &zs.Result{Plan: zs.NewActionPlan()},
			want: "eia860: no changes\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeSummary(&buf, newReport("eia860", "run-1", tt.res)); err != nil {
				t.Fatalf("writeSummary() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("writeSummary() =\n%q\nwant:\n%q", buf.String(), tt.want)
			}
		})
	}
}
