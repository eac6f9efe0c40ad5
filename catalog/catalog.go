package catalog

import (
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/giygas/medsafe/interfaces"
	"github.com/giygas/medsafe/logging"
	"golang.org/x/text/cases"
)

// Compile-time check to ensure Catalog implements CatalogStore
var _ interfaces.CatalogStore = (*Catalog)(nil)

// snapshot is an immutable catalog generation
type snapshot struct {
	names  []string // display form, sorted
	folded []string // case-folded names, sorted, with index into names
	index  []int
}

// Catalog holds the suggestion list with atomic replacement for zero-downtime refreshes
type Catalog struct {
	current     atomic.Value // *snapshot
	lastUpdated atomic.Value // time.Time
	updating    atomic.Bool
}

// New returns an empty catalog
func New() *Catalog {
	c := &Catalog{}
	c.current.Store(buildSnapshot(nil))
	c.lastUpdated.Store(time.Time{})
	return c
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func buildSnapshot(names []string) *snapshot {
	s := &snapshot{
		names:  append([]string(nil), names...),
		folded: make([]string, len(names)),
		index:  make([]int, len(names)),
	}
	sort.Strings(s.names)

	type pair struct {
		folded string
		i      int
	}
	pairs := make([]pair, len(s.names))
	for i, n := range s.names {
		pairs[i] = pair{fold(n), i}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].folded < pairs[b].folded })

	for i, p := range pairs {
		s.folded[i] = p.folded
		s.index[i] = p.i
	}
	return s
}

func (c *Catalog) load() *snapshot {
	if v := c.current.Load(); v != nil {
		if s, ok := v.(*snapshot); ok {
			return s
		}
	}

	logging.Warn("Catalog snapshot is empty or invalid")
	return buildSnapshot(nil)
}

// Replace atomically swaps in a new name list
func (c *Catalog) Replace(names []string) {
	c.current.Store(buildSnapshot(names))
	c.lastUpdated.Store(time.Now())
}

// Suggest returns up to limit names starting with prefix, ignoring case
func (c *Catalog) Suggest(prefix string, limit int) []string {
	results := []string{}
	if limit <= 0 {
		return results
	}

	s := c.load()
	p := fold(strings.TrimSpace(prefix))
	if p == "" {
		return results
	}

	start := sort.SearchStrings(s.folded, p)
	for i := start; i < len(s.folded) && len(results) < limit; i++ {
		if !strings.HasPrefix(s.folded[i], p) {
			break
		}
		results = append(results, s.names[s.index[i]])
	}
	return results
}

// Names returns every name in sorted order
func (c *Catalog) Names() []string {
	return append([]string(nil), c.load().names...)
}

// Len returns the number of names
func (c *Catalog) Len() int {
	return len(c.load().names)
}

// LastUpdated returns the time of the last Replace
func (c *Catalog) LastUpdated() time.Time {
	if v := c.lastUpdated.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the catalog last updated value")
	return time.Time{}
}

// BeginUpdate marks the start of a refresh.
// Returns false if another refresh is in progress.
func (c *Catalog) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a refresh
func (c *Catalog) EndUpdate() {
	c.updating.Store(false)
}

// IsUpdating returns true while a refresh is in progress
func (c *Catalog) IsUpdating() bool {
	return c.updating.Load()
}
