// Package session owns the record store and grade index for one working
// session and coordinates sort passes and grade mutations over them.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/cluso-roster/pkg/config"
	"github.com/dd0wney/cluso-roster/pkg/courses"
	"github.com/dd0wney/cluso-roster/pkg/index"
	"github.com/dd0wney/cluso-roster/pkg/logging"
	"github.com/dd0wney/cluso-roster/pkg/metrics"
	"github.com/dd0wney/cluso-roster/pkg/roster"
	"github.com/google/uuid"
)

var (
	// ErrNotLoaded is returned by operations that need records before Load
	ErrNotLoaded = errors.New("session: no records loaded")
	// ErrAlreadyLoaded is returned by a second Load; use Reload instead
	ErrAlreadyLoaded = errors.New("session: records already loaded")
)

// Session is the explicitly owned state of one run: the store, the index
// built from it and the course table.
//
// Load, Reload, SortAndMerge and SetGrade are serialized by one mutation
// lock. Queries and views do not take it and run concurrently with them;
// storeMu keeps the store and index they read in step.
type Session struct {
	id      string
	cfg     *config.Config
	store   *roster.Store
	index   *index.GradeIndex
	courses *courses.Table

	logger  logging.Logger
	metrics *metrics.Registry

	mu     sync.Mutex // mutation lock
	loaded bool

	// Outcome of the most recent sort pass, guarded by mu
	passRan bool
	passAt  time.Time
	passErr error

	// storeMu guards the store pointer and pairs store changes with the
	// matching index changes. Readers that combine both hold it shared.
	storeMu sync.RWMutex

	// wrapCompare lets tests interpose on the sort comparator
	wrapCompare func(roster.IDComparator) roster.IDComparator
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger logging.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics registry; nil disables metrics
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Session) {
		s.metrics = r
	}
}

// WithCourses replaces the default course mapping table
func WithCourses(table *courses.Table) Option {
	return func(s *Session) {
		if table != nil {
			s.courses = table
		}
	}
}

// New creates an empty session. A nil cfg uses config.Default. Unless
// WithMetrics is given, a registry is created when cfg.Metrics.Enabled.
func New(cfg *config.Config, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Session{
		id:      uuid.NewString(),
		cfg:     cfg,
		store:   roster.NewStore(),
		courses: courses.Default(),
	}
	if cfg.Metrics.Enabled {
		s.metrics = metrics.NewRegistryWithNamespace(cfg.Metrics.Namespace)
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = logging.OrDefault(s.logger).With(
		logging.Component("session"),
		logging.SessionID(s.id),
	)
	s.index = index.New(
		index.WithLogger(s.logger),
		index.WithMetrics(s.metrics),
	)
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Metrics returns the session's registry, or nil when metrics are disabled
func (s *Session) Metrics() *metrics.Registry {
	return s.metrics
}

// Courses returns the course mapping table
func (s *Session) Courses() *courses.Table {
	return s.courses
}

// Len returns the number of loaded records
func (s *Session) Len() int {
	return s.currentStore().Len()
}

// Load validates records, takes copies of them into the store and builds
// the index. On error the session is left unchanged.
func (s *Session) Load(records []*roster.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return ErrAlreadyLoaded
	}
	return s.loadLocked("load", records)
}

// Reload replaces every record and rebuilds the index from scratch.
// On error the previous records and index are kept.
func (s *Session) Reload(records []*roster.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked("reload", records)
}

func (s *Session) loadLocked(op string, records []*roster.Record) error {
	timer := logging.StartTimer(s.logger, op+" records", logging.Operation(op))

	store := roster.NewStore()
	for i, rec := range records {
		var owned *roster.Record
		if rec != nil {
			owned = rec.Clone()
		}
		if _, err := store.Append(owned); err != nil {
			if s.metrics != nil {
				s.metrics.UpdateStoreMetrics(s.currentStore().Len(), 1)
			}
			timer.EndError(err, logging.Int("record", i))
			return fmt.Errorf("%s: record %d of %d: %w", op, i, len(records), err)
		}
	}

	s.storeMu.Lock()
	s.store = store
	s.index.Build(store.Records())
	s.storeMu.Unlock()
	s.loaded = true

	if s.metrics != nil {
		s.metrics.UpdateStoreMetrics(store.Len(), 0)
	}
	stats := s.index.GetStatistics()
	timer.End(
		logging.Count(store.Len()),
		logging.Int("index_keys", stats.UniqueKeys),
		logging.Int("index_entries", stats.TotalEntries),
	)
	return nil
}

// currentStore returns the store readers should use
func (s *Session) currentStore() *roster.Store {
	s.storeMu.RLock()
	defer s.storeMu.RUnlock()
	return s.store
}

// SetGrade sets record id's grade for course and reclassifies the record in
// the index. The store change and the index update happen under the
// mutation lock, so no grade change can be missed by the index.
func (s *Session) SetGrade(id roster.RecordID, course string, value float64) (index.Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return index.Unchanged, ErrNotLoaded
	}

	transition, change, err := s.setGradeLocked(id, course, value)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordGradeUpdate("error")
		}
		return index.Unchanged, fmt.Errorf("set grade: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordGradeUpdate("success")
	}
	s.logger.Debug("grade updated",
		logging.RecordID(int(id)),
		logging.Course(change.Course),
		logging.Grade(value),
		logging.String("transition", transition.String()),
	)
	return transition, nil
}

func (s *Session) setGradeLocked(id roster.RecordID, course string, value float64) (index.Transition, roster.GradeChange, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	change, err := s.store.SetGrade(id, course, value)
	if err != nil {
		return index.Unchanged, change, err
	}

	// A course the record never had behaves like a grade of zero
	oldBest := change.OldBest
	if !change.HadCourse {
		oldBest = 0
	}
	return s.index.Update(change.ID, change.Course, oldBest, change.NewBest), change, nil
}
