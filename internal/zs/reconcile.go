package zs

import "sort"

// ActionPlan is the result of reconciling local files against a deposition.
// A filename appears in at most one of the three sets.
type ActionPlan struct {
	Create map[string]*FileRecord `json:"create"`
	Update map[string]*FileRecord `json:"update"`
	Delete map[string]*FileRecord `json:"delete"`
}

// NewActionPlan returns a plan with empty sets.
func NewActionPlan() *ActionPlan {
	return &ActionPlan{
		Create: make(map[string]*FileRecord),
		Update: make(map[string]*FileRecord),
		Delete: make(map[string]*FileRecord),
	}
}

// Empty reports whether the plan has nothing to do.
func (p *ActionPlan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Len returns the total number of actions.
func (p *ActionPlan) Len() int {
	return len(p.Create) + len(p.Update) + len(p.Delete)
}

// Diff computes the actions that make remote match local. The manifest file
// is skipped on both sides. Update records carry the local directory and
// checksum together with the remote handle of the file being replaced.
func Diff(local, remote map[string]*FileRecord) *ActionPlan {
	plan := NewActionPlan()

	for name, l := range local {
		if name == ManifestName {
			continue
		}
		r, ok := remote[name]
		if !ok {
			plan.Create[name] = l
			continue
		}
		if l.Checksum != r.Checksum {
			plan.Update[name] = &FileRecord{
				Filename:  name,
				LocalPath: l.LocalPath,
				Checksum:  l.Checksum,
				Size:      l.Size,
				MediaType: l.MediaType,
				Remote:    r.Remote,
			}
		}
	}

	for name, r := range remote {
		if name == ManifestName {
			continue
		}
		if _, ok := local[name]; !ok {
			plan.Delete[name] = r
		}
	}

	return plan
}

// sortedNames returns the keys of set in lexical order.
func sortedNames(set map[string]*FileRecord) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
