package apps

import (
	"slices"
	"sync/atomic"
)

// View is an immutable snapshot of what the switcher shows.
type View struct {
	Entries     []Entry
	ActiveIndex int
	Loading     bool
	Query       string
}

// Selected returns the entry under the active index.
func (v View) Selected() (Entry, bool) {
	if v.ActiveIndex < 0 || v.ActiveIndex >= len(v.Entries) {
		return Entry{}, false
	}
	return v.Entries[v.ActiveIndex], true
}

// Registry holds the ordered application list, the query and the active index.
//
// A Registry has exactly one writer (the command bus consumer). Other goroutines read
// it through Snapshot and wait for updates on Changes.
type Registry struct {
	entries []Entry
	index   int
	query   string
	loading bool
	opts    FilterOptions

	view    atomic.Pointer[View]
	changes chan struct{}
}

// NewRegistry creates an empty registry that is loading until the first ReplaceAll.
func NewRegistry(opts FilterOptions) *Registry {
	r := &Registry{
		loading: true,
		opts:    opts,
		changes: make(chan struct{}, 1),
	}
	r.publish()
	return r
}

// Options returns the filter options the registry ranks with.
func (r *Registry) Options() FilterOptions {
	return r.opts
}

// Snapshot returns the most recently published view. Safe for concurrent use.
func (r *Registry) Snapshot() View {
	return *r.view.Load()
}

// Changes delivers a signal after mutations. Several mutations may collapse into one signal.
func (r *Registry) Changes() <-chan struct{} {
	return r.changes
}

// Entries returns a copy of the unfiltered, ordered list.
func (r *Registry) Entries() []Entry {
	return slices.Clone(r.entries)
}

// Loading reports whether the first full list is still pending.
func (r *Registry) Loading() bool {
	return r.loading
}

// ReplaceAll swaps in a full list from the helper and clears the loading flag.
// Duplicate names keep the first position and the last values.
func (r *Registry) ReplaceAll(entries []Entry) {
	list := make([]Entry, 0, len(entries))
	seen := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := seen[e.Name]; ok {
			list[i] = e
			continue
		}
		seen[e.Name] = len(list)
		list = append(list, e)
	}
	r.entries = list
	r.loading = false
	r.index = 0
	r.publish()
}

// Upsert removes any entry named e.Name and reinserts e at placement.
// PlaceNone only removes.
func (r *Registry) Upsert(e Entry, placement Placement) {
	r.entries = slices.DeleteFunc(r.entries, func(x Entry) bool { return x.Name == e.Name })
	switch placement {
	case PlaceFront:
		r.entries = slices.Insert(r.entries, 0, e)
	case PlaceBack:
		r.entries = append(r.entries, e)
	}
	r.publish()
}

// Remove deletes the entry with the given name.
func (r *Registry) Remove(name string) {
	r.Upsert(Entry{Name: name}, PlaceNone)
}

// MarkClosed handles a closed application. Applications living in a standard
// application directory stay listed with PID 0 (appended when unknown); others are removed.
func (r *Registry) MarkClosed(e Entry) {
	if !r.opts.IsApplicationPath(e.Path) {
		r.Remove(e.Name)
		return
	}
	e.PID = 0
	e.Active = false
	if i := r.find(e.Name); i >= 0 {
		r.entries[i] = e
		r.publish()
		return
	}
	r.Upsert(e, PlaceBack)
}

// SetQuery changes the filter query and moves the selection to the top.
func (r *Registry) SetQuery(query string) {
	r.query = query
	r.index = 0
	r.publish()
}

// Query returns the current filter query.
func (r *Registry) Query() string {
	return r.query
}

// Select moves the active index through the filtered view, wrapping at both ends.
// It is a no-op on an empty view.
func (r *Registry) Select(t IndexType) {
	n := len(r.view.Load().Entries)
	if n == 0 {
		r.index = 0
		return
	}
	switch t {
	case Start:
		r.index = 0
	case End:
		r.index = n - 1
	case Next:
		r.index = (r.index + 1) % n
	case Previous:
		if r.index == 0 {
			r.index = n - 1
		} else {
			r.index--
		}
	}
	r.publish()
}

// SelectOffset selects the entry offset rows from the top, falling back to the first row.
func (r *Registry) SelectOffset(offset int) {
	n := len(r.view.Load().Entries)
	if offset < 0 || offset >= n {
		offset = 0
	}
	r.index = offset
	r.publish()
}

// Index returns the active index into the filtered view.
func (r *Registry) Index() int {
	return r.index
}

// Selected returns the entry under the active index of the filtered view.
func (r *Registry) Selected() (Entry, bool) {
	return r.view.Load().Selected()
}

// Reset clears the query and the selection, as done when the window closes.
func (r *Registry) Reset() {
	r.query = ""
	r.index = 0
	r.publish()
}

func (r *Registry) find(name string) int {
	return slices.IndexFunc(r.entries, func(x Entry) bool { return x.Name == name })
}

// publish recomputes the view, clamps the index and notifies readers.
func (r *Registry) publish() {
	entries := Filter(r.query, r.entries, r.opts)
	if r.index < 0 || r.index >= len(entries) {
		r.index = 0
	}
	r.view.Store(&View{
		Entries:     entries,
		ActiveIndex: r.index,
		Loading:     r.loading,
		Query:       r.query,
	})

	select {
	case r.changes <- struct{}{}:
	default:
	}
}
