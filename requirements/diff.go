package requirements

import "sort"

// DiffEntry records one constraint that moved between two manifests.
type DiffEntry struct {
	Name     string      `json:"name"`
	From     Requirement `json:"from"`
	To       Requirement `json:"to"`
	Conflict bool        `json:"conflict,omitempty"`
}

// DiffResult is the comparison of two manifests, keyed by normalized name and
// sorted so repeated runs over the same inputs are byte-identical.
type DiffResult struct {
	Added   []Requirement `json:"added"`
	Removed []Requirement `json:"removed"`
	Changed []DiffEntry   `json:"changed"`
}

// Empty reports whether the two manifests carry an equal requirement set.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares two manifests. Added holds packages only in new, Removed only
// in old, Changed packages present in both with a different comparator or
// version. Changed entries are flagged Conflict when the old and new
// constraints exclude each other, which usually signals a hard pin moving
// across a range.
func Diff(old, new *Manifest) DiffResult {
	oldSet, newSet := old.Set(), new.Set()
	var result DiffResult

	keys := make([]string, 0, len(newSet))
	for key := range newSet {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		req := newSet[key]
		prev, ok := oldSet[key]
		if !ok {
			result.Added = append(result.Added, req)
			continue
		}
		if !prev.Same(req) {
			result.Changed = append(result.Changed, DiffEntry{
				Name:     key,
				From:     prev,
				To:       req,
				Conflict: Conflicts(prev, req),
			})
		}
	}

	keys = keys[:0]
	for key := range oldSet {
		if _, ok := newSet[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		result.Removed = append(result.Removed, oldSet[key])
	}
	return result
}
