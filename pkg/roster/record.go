package roster

import (
	"cmp"
	"strings"
)

// RecordID is the stable identity of a record: its position in the Store's
// append order. IDs are never reused within a session.
type RecordID int

// Grade associates a course code with the grade obtained in it
type Grade struct {
	Course string  `json:"course" validate:"required"`
	Value  float64 `json:"value" validate:"gte=0,lte=10"`
}

// Record is one student. Branch, StartYear and Roll drive the ordering;
// PreviousCourses drives the high-grade index.
type Record struct {
	ID              RecordID `json:"id"`
	Name            string   `json:"name"`
	Roll            string   `json:"roll" validate:"required"`
	Branch          string   `json:"branch" validate:"required"`
	StartYear       int      `json:"start_year" validate:"gte=0"`
	CurrentCourses  []string `json:"current_courses,omitempty"`
	PreviousCourses []Grade  `json:"previous_courses,omitempty" validate:"dive"`
}

// Compare orders records by Branch, then StartYear, then Roll, all ascending.
// It returns a negative number when a sorts before b, zero when they are
// equivalent and a positive number otherwise.
func Compare(a, b *Record) int {
	if c := strings.Compare(a.Branch, b.Branch); c != 0 {
		return c
	}
	if c := cmp.Compare(a.StartYear, b.StartYear); c != 0 {
		return c
	}
	return strings.Compare(a.Roll, b.Roll)
}

// NormalizeCourse trims incidental whitespace so that the same course code
// read from different fields compares equal.
func NormalizeCourse(code string) string {
	return strings.TrimSpace(code)
}

// BestGrade returns the highest grade the record holds for course.
// The course is normalized before matching.
func (r *Record) BestGrade(course string) (float64, bool) {
	key := NormalizeCourse(course)
	best, found := 0.0, false
	for _, g := range r.PreviousCourses {
		if NormalizeCourse(g.Course) != key {
			continue
		}
		if !found || g.Value > best {
			best = g.Value
		}
		found = true
	}
	return best, found
}

// HasGradeAtLeast reports whether any previous course grade reaches threshold
func (r *Record) HasGradeAtLeast(threshold float64) bool {
	for _, g := range r.PreviousCourses {
		if g.Value >= threshold {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	c := *r
	c.CurrentCourses = append([]string(nil), r.CurrentCourses...)
	c.PreviousCourses = append([]Grade(nil), r.PreviousCourses...)
	return &c
}
