// Package index maintains the high-achiever index: for each course key the
// set of records holding a grade at or above Threshold in that course.
package index

import (
	"sort"
	"sync"
	"time"

	"github.com/dd0wney/cluso-roster/pkg/logging"
	"github.com/dd0wney/cluso-roster/pkg/metrics"
	"github.com/dd0wney/cluso-roster/pkg/roster"
	"github.com/google/btree"
)

// Threshold is the inclusive grade a record needs to be indexed under a course
const Threshold = 9.0

// btreeDegree is small because entries rarely exceed a few thousand IDs
const btreeDegree = 16

// Transition is the effect of an Update on index membership
type Transition int

const (
	Unchanged Transition = iota
	Added
	Removed
)

func (t Transition) String() string {
	switch t {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unchanged"
	}
}

// Qualifies reports whether value meets the index threshold
func Qualifies(value float64) bool {
	return value >= Threshold
}

// NormalizeKey canonicalizes a course code before lookup or insertion
func NormalizeKey(course string) string {
	return roster.NormalizeCourse(course)
}

type entry = btree.BTreeG[roster.RecordID]

func newEntry() *entry {
	return btree.NewG(btreeDegree, func(a, b roster.RecordID) bool { return a < b })
}

// GradeIndex maps course key -> ascending set of record IDs. All operations
// take one index-wide lock, so a completed Update is visible to every
// subsequent Query.
type GradeIndex struct {
	entries map[string]*entry

	logger  logging.Logger
	metrics *metrics.Registry

	mu sync.RWMutex
}

// Option configures a GradeIndex
type Option func(*GradeIndex)

// WithLogger sets the logger used for stale update warnings
func WithLogger(logger logging.Logger) Option {
	return func(idx *GradeIndex) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// WithMetrics records index activity into r
func WithMetrics(r *metrics.Registry) Option {
	return func(idx *GradeIndex) {
		idx.metrics = r
	}
}

// New creates an empty index
func New(opts ...Option) *GradeIndex {
	idx := &GradeIndex{
		entries: make(map[string]*entry),
		logger:  logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = idx.logger.With(logging.Component("grade_index"))
	return idx
}

// Build discards the current contents and indexes every qualifying
// association of records in one pass. Keys are created only when a
// qualifying association is seen. Building twice from the same records
// yields the same index.
func (idx *GradeIndex) Build(records []*roster.Record) {
	start := time.Now()

	idx.mu.Lock()
	idx.entries = make(map[string]*entry)
	for _, rec := range records {
		if rec == nil {
			continue
		}
		for _, g := range rec.PreviousCourses {
			if !Qualifies(g.Value) {
				continue
			}
			key := NormalizeKey(g.Course)
			if key == "" {
				continue
			}
			idx.entryLocked(key).ReplaceOrInsert(rec.ID)
		}
	}
	keys, entries := idx.sizeLocked()
	idx.mu.Unlock()

	elapsed := time.Since(start)
	idx.logger.Debug("index built",
		logging.Count(len(records)),
		logging.Int("keys", keys),
		logging.Int("entries", entries),
		logging.Latency(elapsed),
	)
	if idx.metrics != nil {
		idx.metrics.RecordIndexBuild(elapsed, keys, entries)
	}
}

// entryLocked returns the entry for key, creating it. Caller holds mu.
func (idx *GradeIndex) entryLocked(key string) *entry {
	e, ok := idx.entries[key]
	if !ok {
		e = newEntry()
		idx.entries[key] = e
	}
	return e
}

// Update reclassifies record id under key after its grade changed from
// oldValue to newValue.
//
// Membership afterwards depends only on newValue: the ID is inserted when
// newValue qualifies and removed when it does not. oldValue is checked
// against the ID's current presence; a disagreement means the caller's view
// was stale and is logged and counted, but cannot corrupt the entry.
func (idx *GradeIndex) Update(id roster.RecordID, key string, oldValue, newValue float64) Transition {
	key = NormalizeKey(key)
	if key == "" {
		return Unchanged
	}

	idx.mu.Lock()
	e, ok := idx.entries[key]
	present := ok && e.Has(id)
	stale := Qualifies(oldValue) != present

	transition := Unchanged
	switch {
	case Qualifies(newValue) && !present:
		if e == nil {
			e = idx.entryLocked(key)
		}
		e.ReplaceOrInsert(id)
		transition = Added
	case !Qualifies(newValue) && present:
		// Emptied entries stay allocated
		e.Delete(id)
		transition = Removed
	}
	keys, entries := idx.sizeLocked()
	idx.mu.Unlock()

	if stale {
		idx.logger.Warn("stale index update",
			logging.RecordID(int(id)),
			logging.Course(key),
			logging.Float64("old_value", oldValue),
			logging.Float64("new_value", newValue),
			logging.Bool("present", present),
			logging.String("transition", transition.String()),
		)
	}
	if idx.metrics != nil {
		idx.metrics.RecordIndexUpdate(transition.String(), stale)
		idx.metrics.UpdateIndexSize(keys, entries)
	}
	return transition
}

// Query returns the IDs indexed under key in ascending order. The result is
// a copy; an absent key and an emptied key both return an empty slice.
func (idx *GradeIndex) Query(key string) []roster.RecordID {
	ids := idx.Members(key)
	if idx.metrics != nil {
		idx.metrics.RecordIndexQuery(len(ids) > 0)
	}
	return ids
}

// Members is Query without query metrics, for audits
func (idx *GradeIndex) Members(key string) []roster.RecordID {
	key = NormalizeKey(key)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.entries[key]
	if !ok {
		return make([]roster.RecordID, 0)
	}
	ids := make([]roster.RecordID, 0, e.Len())
	e.Ascend(func(id roster.RecordID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Contains reports whether id is indexed under key
func (idx *GradeIndex) Contains(key string, id roster.RecordID) bool {
	key = NormalizeKey(key)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	e, ok := idx.entries[key]
	return ok && e.Has(id)
}

// Keys returns the keys with at least one indexed ID, sorted
func (idx *GradeIndex) Keys() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := make([]string, 0, len(idx.entries))
	for k, e := range idx.entries {
		if e.Len() > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clear removes every entry
func (idx *GradeIndex) Clear() {
	idx.mu.Lock()
	idx.entries = make(map[string]*entry)
	idx.mu.Unlock()

	if idx.metrics != nil {
		idx.metrics.UpdateIndexSize(0, 0)
	}
}

// sizeLocked returns the non-empty key count and total entries. Caller holds mu.
func (idx *GradeIndex) sizeLocked() (keys, entries int) {
	for _, e := range idx.entries {
		if n := e.Len(); n > 0 {
			keys++
			entries += n
		}
	}
	return keys, entries
}

// Statistics holds index statistics
type Statistics struct {
	UniqueKeys       int
	AllocatedKeys    int
	TotalEntries     int
	AvgEntriesPerKey float64
}

// GetStatistics returns statistics about the index
func (idx *GradeIndex) GetStatistics() Statistics {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys, entries := idx.sizeLocked()
	stats := Statistics{
		UniqueKeys:    keys,
		AllocatedKeys: len(idx.entries),
		TotalEntries:  entries,
	}
	if keys > 0 {
		stats.AvgEntriesPerKey = float64(entries) / float64(keys)
	}
	return stats
}
