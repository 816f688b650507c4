package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"sigs.k8s.io/yaml"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// report is the machine-readable outcome of an archive run.
type report struct {
	Dataset    string             `json:"dataset"`
	RunID      string             `json:"run_id"`
	Create     []*zs.FileRecord   `json:"create"`
	Update     []*zs.FileRecord   `json:"update"`
	Delete     []*zs.FileRecord   `json:"delete"`
	Deposition *depositionSummary `json:"deposition,omitempty"`
}

type depositionSummary struct {
	ID        int64  `json:"id"`
	Version   string `json:"version,omitempty"`
	DOI       string `json:"doi,omitempty"`
	URL       string `json:"url,omitempty"`
	Published bool   `json:"published"`
}

func newReport(dataset, runID string, res *zs.Result) *report {
	rep := &report{Dataset: dataset, RunID: runID}
	if res == nil {
		return rep
	}
	if res.Plan != nil {
		rep.Create = sortedRecords(res.Plan.Create)
		rep.Update = sortedRecords(res.Plan.Update)
		rep.Delete = sortedRecords(res.Plan.Delete)
	}
	if dep := res.Deposition; dep != nil {
		rep.Deposition = &depositionSummary{
			ID:        dep.ID,
			Version:   dep.Metadata.Version,
			DOI:       dep.DOI,
			URL:       dep.Links.HTML,
			Published: dep.Submitted,
		}
	}
	return rep
}

func sortedRecords(set map[string]*zs.FileRecord) []*zs.FileRecord {
	out := make([]*zs.FileRecord, 0, len(set))
	for _, rec := range set {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}

// writeReport encodes rep as json or yaml.
func writeReport(w io.Writer, rep *report, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = json.MarshalIndent(rep, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(rep)
	default:
		return fmt.Errorf("unknown format %q: use json or yaml", format)
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// writeSummary prints a short human-readable account of rep.
func writeSummary(w io.Writer, rep *report) error {
	if len(rep.Create)+len(rep.Update)+len(rep.Delete) == 0 {
		_, err := fmt.Fprintf(w, "%s: no changes\n", rep.Dataset)
		return err
	}
	for _, group := range []struct {
		mark    string
		records []*zs.FileRecord
	}{{"+", rep.Create}, {"~", rep.Update}, {"-", rep.Delete}} {
		for _, rec := range group.records {
			fmt.Fprintf(w, "%s %s\n", group.mark, rec.Filename)
		}
	}
	if dep := rep.Deposition; dep != nil {
		state := "draft"
		if dep.Published {
			state = "published"
		}
		fmt.Fprintf(w, "%s %s %s: %s\n", rep.Dataset, dep.Version, state, dep.URL)
	}
	return nil
}
