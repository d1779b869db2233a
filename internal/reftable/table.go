package reftable

import (
	"errors"
	"strings"
)

var (
	ErrSourceMissing  = errors.New("reference source not found")
	ErrEmptyTable     = errors.New("reference source has no usable rows")
	ErrColumnNotFound = errors.New("column not found in header")
)

// Entry is one condition in the reference table.
type Entry struct {
	Name        string  `json:"name"`        // normalized lookup key
	Description string  `json:"description"` // text as read from the source
	RAF         float64 `json:"raf"`
}

// Stats describes how a table was built.
type Stats struct {
	Source     string `json:"source"`
	Rows       int    `json:"rows"`
	Loaded     int    `json:"loaded"`
	Skipped    int    `json:"skipped"`
	Duplicates int    `json:"duplicates"`
}

// Table maps normalized condition names to RAF values.
// A Table is never modified after it is built, so it can be shared
// between goroutines without locking.
type Table struct {
	entries map[string]Entry
	order   []string // insertion order of keys
	stats   Stats
}

// Normalize returns the canonical lookup form of a condition name:
// lower case, trimmed, with internal whitespace runs collapsed.
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func (t *Table) Stats() Stats {
	if t == nil {
		return Stats{}
	}
	return t.stats
}

// Lookup resolves a condition name to its RAF. The name is normalized first.
func (t *Table) Lookup(name string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	e, ok := t.entries[Normalize(name)]
	return e.RAF, ok
}

// Get returns the full entry for a condition name.
func (t *Table) Get(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[Normalize(name)]
	return e, ok
}

// Search returns up to limit entries, in source order, whose normalized name
// contains the normalized query. A limit <= 0 means no limit. An empty query
// matches nothing.
func (t *Table) Search(query string, limit int) []Entry {
	q := Normalize(query)
	if t == nil || q == "" {
		return nil
	}
	var out []Entry
	for _, k := range t.order {
		if !strings.Contains(k, q) {
			continue
		}
		out = append(out, t.entries[k])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Entries returns a copy of all entries in source order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.entries[k])
	}
	return out
}

// DuplicatePolicy decides which RAF wins when several rows share a normalized name.
type DuplicatePolicy string

const (
	KeepLast DuplicatePolicy = "last"
	KeepMax  DuplicatePolicy = "max"
)

type builder struct {
	policy DuplicatePolicy
	t      *Table
}

func newBuilder(policy DuplicatePolicy, source string) *builder {
	if policy == "" {
		policy = KeepLast
	}
	return &builder{
		policy: policy,
		t: &Table{
			entries: map[string]Entry{},
			stats:   Stats{Source: source},
		},
	}
}

func (b *builder) row()  { b.t.stats.Rows++ }
func (b *builder) skip() { b.t.stats.Skipped++ }

func (b *builder) add(description string, raf float64) {
	key := Normalize(description)
	e := Entry{Name: key, Description: strings.TrimSpace(description), RAF: raf}
	prev, exists := b.t.entries[key]
	if !exists {
		b.t.entries[key] = e
		b.t.order = append(b.t.order, key)
		return
	}
	b.t.stats.Duplicates++
	if b.policy == KeepMax && prev.RAF >= raf {
		return
	}
	b.t.entries[key] = e
}

func (b *builder) build() *Table {
	b.t.stats.Loaded = len(b.t.entries)
	return b.t
}

// FromEntries builds a table from already-resolved entries, applying the
// same normalization and duplicate handling as the CSV loader.
func FromEntries(source string, policy DuplicatePolicy, entries []Entry) *Table {
	b := newBuilder(policy, source)
	for _, e := range entries {
		b.row()
		if !validEntry(e.Description, e.RAF) {
			b.skip()
			continue
		}
		b.add(e.Description, e.RAF)
	}
	return b.build()
}
