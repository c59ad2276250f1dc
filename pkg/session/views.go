package session

import (
	"github.com/dd0wney/cluso-roster/pkg/courses"
	"github.com/dd0wney/cluso-roster/pkg/index"
	"github.com/dd0wney/cluso-roster/pkg/roster"
)

// Record returns a copy of the record with the given ID
func (s *Session) Record(id roster.RecordID) (*roster.Record, error) {
	return s.currentStore().Snapshot(id)
}

// QueryIDs returns the IDs of records with a grade of at least
// index.Threshold in course, ascending
func (s *Session) QueryIDs(course string) []roster.RecordID {
	return s.index.Query(course)
}

// Query returns copies of the records with a grade of at least
// index.Threshold in course, in ascending ID order
func (s *Session) Query(course string) ([]*roster.Record, error) {
	s.storeMu.RLock()
	defer s.storeMu.RUnlock()

	return resolve(s.store, s.index.Query(course))
}

// IndexKeys returns the courses that currently have at least one entry
func (s *Session) IndexKeys() []string {
	return s.index.Keys()
}

// IndexStatistics returns statistics about the grade index
func (s *Session) IndexStatistics() index.Statistics {
	return s.index.GetStatistics()
}

// EnteredOrder returns record IDs in the order they were loaded
func (s *Session) EnteredOrder() []roster.RecordID {
	return s.currentStore().EnteredOrder()
}

// SortedAscending returns the current ordering. It reflects the last
// successful SortAndMerge, or entry order before any pass.
func (s *Session) SortedAscending() []roster.RecordID {
	return s.currentStore().Order()
}

// SortedDescending returns the current ordering back to front
func (s *Session) SortedDescending() []roster.RecordID {
	return s.currentStore().Reversed()
}

// HighAchievers returns, in current order, the records holding at least
// one grade of index.Threshold or more in any course
func (s *Session) HighAchievers() []roster.RecordID {
	return s.currentStore().Filter(func(r *roster.Record) bool {
		return r.HasGradeAtLeast(index.Threshold)
	})
}

// Records resolves ids to record copies, preserving order
func (s *Session) Records(ids []roster.RecordID) ([]*roster.Record, error) {
	return resolve(s.currentStore(), ids)
}

func resolve(store *roster.Store, ids []roster.RecordID) ([]*roster.Record, error) {
	out := make([]*roster.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := store.Snapshot(id)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// MappedCourse is one of a record's courses translated to the other
// institute's code system
type MappedCourse struct {
	Course    string
	Mapped    string
	Direction courses.Direction
	Known     bool
	Grade     float64 // zero for current courses
	Completed bool    // true for previous courses
}

// MappedCourses translates every current and previous course of record id.
// Courses missing from the table are returned with Known false.
func (s *Session) MappedCourses(id roster.RecordID) ([]MappedCourse, error) {
	rec, err := s.Record(id)
	if err != nil {
		return nil, err
	}

	out := make([]MappedCourse, 0, len(rec.CurrentCourses)+len(rec.PreviousCourses))
	for _, c := range rec.CurrentCourses {
		out = append(out, s.mapCourse(c))
	}
	for _, g := range rec.PreviousCourses {
		m := s.mapCourse(g.Course)
		m.Grade = g.Value
		m.Completed = true
		out = append(out, m)
	}
	return out, nil
}

func (s *Session) mapCourse(course string) MappedCourse {
	course = roster.NormalizeCourse(course)
	mapped, dir, err := s.courses.Translate(course)
	return MappedCourse{
		Course:    course,
		Mapped:    mapped,
		Direction: dir,
		Known:     err == nil,
	}
}
