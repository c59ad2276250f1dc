package session

import (
	"slices"
	"time"

	"github.com/dd0wney/cluso-roster/pkg/health"
	"github.com/dd0wney/cluso-roster/pkg/index"
	"github.com/dd0wney/cluso-roster/pkg/logging"
	"github.com/dd0wney/cluso-roster/pkg/roster"
)

// IndexMismatch is one disagreement between the index and record grades
type IndexMismatch struct {
	Course  string
	ID      roster.RecordID
	Indexed bool // true when indexed without a qualifying grade
}

// IndexReport is the result of VerifyIndex
type IndexReport struct {
	Courses    int
	Checked    int
	Mismatches []IndexMismatch
}

// VerifyIndex re-derives every index entry from current record grades and
// compares it with the live index. It holds the mutation lock, so no grade
// change can interleave with the scan.
func (s *Session) VerifyIndex() IndexReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	expected := make(map[string][]roster.RecordID)
	for _, rec := range s.store.Records() {
		seen := make(map[string]bool)
		for _, g := range rec.PreviousCourses {
			key := index.NormalizeKey(g.Course)
			if key == "" || seen[key] || !index.Qualifies(g.Value) {
				continue
			}
			seen[key] = true
			expected[key] = append(expected[key], rec.ID)
		}
	}

	courses := s.index.Keys()
	for key := range expected {
		if !slices.Contains(courses, key) {
			courses = append(courses, key)
		}
	}
	slices.Sort(courses)

	report := IndexReport{Courses: len(courses)}
	for _, course := range courses {
		want := expected[course]
		got := s.index.Members(course)
		report.Checked += max(len(want), len(got))

		for _, id := range got {
			if _, ok := slices.BinarySearch(want, id); !ok {
				report.Mismatches = append(report.Mismatches, IndexMismatch{Course: course, ID: id, Indexed: true})
			}
		}
		for _, id := range want {
			if _, ok := slices.BinarySearch(got, id); !ok {
				report.Mismatches = append(report.Mismatches, IndexMismatch{Course: course, ID: id})
			}
		}
	}

	if len(report.Mismatches) > 0 {
		s.logger.Error("index verification failed",
			logging.Int("courses", report.Courses),
			logging.Int("mismatches", len(report.Mismatches)),
		)
	}
	return report
}

// RegisterHealthChecks adds the session's checks to hc
func (s *Session) RegisterHealthChecks(hc *health.HealthChecker) {
	hc.RegisterCheck("store", health.StoreCheck(func() (bool, int) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.loaded, s.store.Len()
	}))
	hc.RegisterCheck("index_consistency", health.IndexConsistencyCheck(func() (int, int) {
		report := s.VerifyIndex()
		return report.Checked, len(report.Mismatches)
	}))
	hc.RegisterCheck("sort_pass", health.SortPassCheck(func() (bool, time.Time, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.passRan, s.passAt, s.passErr
	}))
	hc.RegisterCheck("memory", health.MemoryCheck(health.RuntimeMemory))
}
