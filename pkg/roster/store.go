package roster

import (
	"fmt"
	"sync"

	"github.com/dd0wney/cluso-roster/pkg/validation"
)

// Store is the canonical owner of record content for a session.
//
// Records are append-only and addressed by RecordID. Alongside the records
// the store keeps an ordering view: a permutation of IDs that sort passes
// rewrite. Reordering never moves record content.
type Store struct {
	mu      sync.RWMutex
	records []*Record
	order   []RecordID
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		records: make([]*Record, 0),
		order:   make([]RecordID, 0),
	}
}

// Append validates rec, takes ownership of it and assigns its ID.
// The new record is placed at the end of the current ordering.
func (s *Store) Append(rec *Record) (RecordID, error) {
	if rec == nil {
		return -1, newStoreError("Append", -1, fmt.Errorf("%w: nil record", ErrInvalidRecord))
	}
	if err := validation.ValidateStruct(rec); err != nil {
		return -1, newStoreError("Append", -1, fmt.Errorf("%w: %v", ErrInvalidRecord, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := RecordID(len(s.records))
	rec.ID = id
	s.records = append(s.records, rec)
	s.order = append(s.order, id)
	return id, nil
}

// AppendAll appends every record, stopping at the first invalid one.
// Records before the failing one remain in the store.
func (s *Store) AppendAll(recs []*Record) error {
	for i, rec := range recs {
		if _, err := s.Append(rec); err != nil {
			return fmt.Errorf("record %d of %d: %w", i, len(recs), err)
		}
	}
	return nil
}

// Len returns the number of records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record with the given ID. The returned record is owned by
// the store and must not be modified; use SetGrade to mutate grades.
func (s *Store) Get(id RecordID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked("Get", id)
}

// Snapshot returns a deep copy of the record with the given ID, taken under
// the read lock so it never observes a half-applied SetGrade.
func (s *Store) Snapshot(id RecordID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, err := s.getLocked("Snapshot", id)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

func (s *Store) getLocked(op string, id RecordID) (*Record, error) {
	if id < 0 || int(id) >= len(s.records) {
		return nil, newStoreError(op, id, ErrRecordNotFound)
	}
	return s.records[id], nil
}

// Records returns the records in ID (entered) order. The slice is fresh but
// the records are shared with the store.
func (s *Store) Records() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Record(nil), s.records...)
}

// Order returns a copy of the current ordering view
func (s *Store) Order() []RecordID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RecordID(nil), s.order...)
}

// IDComparator compares two records by identity using Compare
type IDComparator func(a, b RecordID) int

// ReorderFunc receives the live ordering and a comparator over it and
// returns the replacement ordering. It may permute order in place; on error
// those in-place changes are kept and no replacement happens.
type ReorderFunc func(order []RecordID, cmp IDComparator) ([]RecordID, error)

// Reorder runs fn with exclusive access to the ordering view and swaps in
// the ordering it returns. The swap replaces the view as a whole.
func (s *Store) Reorder(fn ReorderFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.records
	cmp := func(a, b RecordID) int {
		return Compare(records[a], records[b])
	}

	next, err := fn(s.order, cmp)
	if err != nil {
		return newStoreError("Reorder", -1, err)
	}
	if len(next) != len(s.order) {
		return newStoreError("Reorder", -1,
			fmt.Errorf("%w: got %d ids, store has %d", ErrOrderMismatch, len(next), len(s.order)))
	}

	s.order = next
	return nil
}

// GradeChange describes the effect of SetGrade on one record's course.
// OldBest and NewBest are the record's highest grade for Course before and
// after the change; HadCourse is false when the course was newly added.
type GradeChange struct {
	ID        RecordID
	Course    string
	HadCourse bool
	OldBest   float64
	NewBest   float64
}

// SetGrade sets the grade for course on record id. An existing association
// for the course is overwritten; otherwise a new one is appended.
func (s *Store) SetGrade(id RecordID, course string, value float64) (GradeChange, error) {
	key := NormalizeCourse(course)
	if key == "" {
		return GradeChange{}, newStoreError("SetGrade", id, fmt.Errorf("%w: empty course code", ErrInvalidRecord))
	}
	if err := validation.ValidateStruct(&Grade{Course: key, Value: value}); err != nil {
		return GradeChange{}, newStoreError("SetGrade", id, fmt.Errorf("%w: %v", ErrInvalidRecord, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.getLocked("SetGrade", id)
	if err != nil {
		return GradeChange{}, err
	}

	change := GradeChange{ID: id, Course: key}
	change.OldBest, change.HadCourse = rec.BestGrade(key)

	updated := false
	for i := range rec.PreviousCourses {
		if NormalizeCourse(rec.PreviousCourses[i].Course) == key {
			rec.PreviousCourses[i].Value = value
			updated = true
			break
		}
	}
	if !updated {
		rec.PreviousCourses = append(rec.PreviousCourses, Grade{Course: key, Value: value})
	}

	change.NewBest, _ = rec.BestGrade(key)
	return change, nil
}
