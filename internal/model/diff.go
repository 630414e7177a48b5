package model

import "slices"

// ReportDiff describes how the visited set changed between two crawls.
type ReportDiff struct {
	// Added are URLs visited in the newer crawl only.
	Added []string `json:"added"`

	// Removed are URLs visited in the older crawl only.
	Removed []string `json:"removed"`

	// Unchanged is the number of URLs visited by both crawls.
	Unchanged int `json:"unchanged"`
}

// HasChanges reports whether the visited sets differ.
func (d *ReportDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// Diff compares the visited sets of two reports.
// A nil report is treated as an empty crawl.
func Diff(older, newer *CrawlReport) *ReportDiff {
	d := &ReportDiff{
		Added:   make([]string, 0),
		Removed: make([]string, 0),
	}

	oldSet := visitedSet(older)
	newSet := visitedSet(newer)

	for u := range newSet {
		if _, ok := oldSet[u]; ok {
			d.Unchanged++
		} else {
			d.Added = append(d.Added, u)
		}
	}
	for u := range oldSet {
		if _, ok := newSet[u]; !ok {
			d.Removed = append(d.Removed, u)
		}
	}

	slices.Sort(d.Added)
	slices.Sort(d.Removed)
	return d
}

func visitedSet(r *CrawlReport) map[string]struct{} {
	set := make(map[string]struct{})
	if r == nil {
		return set
	}
	for _, u := range r.Visited {
		set[u] = struct{}{}
	}
	return set
}
