package apps

import (
	"cmp"
	"slices"

	"github.com/sahilm/fuzzy"
)

// Filter builds the ranked view of entries for query. It never modifies entries.
//
// Rules, in order:
//  1. an empty query hides entries that are not running;
//  2. a non-empty query keeps fuzzy matches on Name, best score first;
//  3. running entries precede non-running ones, and non-running entries from the
//     standard application directories precede the rest;
//  4. at most opts.MaxLaunchable non-running entries are kept.
//
// Every sort is stable, so ties keep their relative order.
func Filter(query string, entries []Entry, opts FilterOptions) []Entry {
	var matched []Entry
	if query == "" {
		matched = make([]Entry, 0, len(entries))
		for _, e := range entries {
			if e.Running() {
				matched = append(matched, e)
			}
		}
	} else {
		matched = fuzzyMatch(query, entries)
	}

	slices.SortStableFunc(matched, func(a, b Entry) int {
		return cmp.Compare(rank(a, opts), rank(b, opts))
	})

	limit := opts.MaxLaunchable
	if limit < 0 {
		limit = 0
	}
	out := matched[:0]
	launchable := 0
	for _, e := range matched {
		if !e.Running() {
			if launchable >= limit {
				continue
			}
			launchable++
		}
		out = append(out, e)
	}
	return out
}

// rank orders running < bundled launchable < other launchable.
func rank(e Entry, opts FilterOptions) int {
	switch {
	case e.Running():
		return 0
	case opts.IsApplicationPath(e.Path):
		return 1
	default:
		return 2
	}
}

func fuzzyMatch(query string, entries []Entry) []Entry {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	matches := fuzzy.Find(query, names)
	slices.SortStableFunc(matches, func(a, b fuzzy.Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}
