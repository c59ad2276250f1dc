package index

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/dd0wney/cluso-roster/pkg/logging"
	"github.com/dd0wney/cluso-roster/pkg/metrics"
	"github.com/dd0wney/cluso-roster/pkg/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id roster.RecordID, grades ...roster.Grade) *roster.Record {
	return &roster.Record{ID: id, Roll: "r", Branch: "CSE", PreviousCourses: grades}
}

func sampleRecords() []*roster.Record {
	return []*roster.Record{
		rec(0, roster.Grade{Course: "OOPS", Value: 9.5}, roster.Grade{Course: "DSA", Value: 7.0}),
		rec(1, roster.Grade{Course: "OOPS", Value: 8.5}),
		rec(2, roster.Grade{Course: " OOPS ", Value: 9.0}, roster.Grade{Course: "DSA", Value: 9.9}),
		rec(3),
	}
}

func TestBuild(t *testing.T) {
	idx := New()
	idx.Build(sampleRecords())

	assert.Equal(t, []roster.RecordID{0, 2}, idx.Query("OOPS"))
	assert.Equal(t, []roster.RecordID{2}, idx.Query("DSA"))
	assert.Equal(t, []string{"DSA", "OOPS"}, idx.Keys())

	// Threshold is inclusive and keys are normalized
	assert.True(t, idx.Contains("OOPS", 2))
	assert.Equal(t, idx.Query("OOPS"), idx.Query("  OOPS"))
}

func TestBuild_NoQualifyingGradesCreatesNoKeys(t *testing.T) {
	idx := New()
	idx.Build([]*roster.Record{rec(0, roster.Grade{Course: "OS", Value: 8.99})})

	assert.Empty(t, idx.Keys())
	assert.Equal(t, 0, idx.GetStatistics().AllocatedKeys)
	assert.Empty(t, idx.Query("OS"))
}

func TestBuild_Idempotent(t *testing.T) {
	records := sampleRecords()
	idx := New()
	idx.Build(records)
	first := idx.GetStatistics()
	firstOOPS := idx.Query("OOPS")

	idx.Build(records)

	assert.Equal(t, first, idx.GetStatistics())
	assert.Equal(t, firstOOPS, idx.Query("OOPS"))
}

func TestBuild_DuplicateAssociationsIndexedOnce(t *testing.T) {
	idx := New()
	idx.Build([]*roster.Record{rec(0,
		roster.Grade{Course: "AI", Value: 9.1},
		roster.Grade{Course: "AI", Value: 9.8},
	)})

	assert.Equal(t, []roster.RecordID{0}, idx.Query("AI"))
	assert.Equal(t, 1, idx.GetStatistics().TotalEntries)
}

func TestQuery_ReturnsCopy(t *testing.T) {
	idx := New()
	idx.Build(sampleRecords())

	got := idx.Query("OOPS")
	got[0] = 99

	assert.Equal(t, []roster.RecordID{0, 2}, idx.Query("OOPS"))
}

func TestQuery_AbsentKey(t *testing.T) {
	idx := New()
	got := idx.Query("NLP")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMembers_NotCountedAsQuery(t *testing.T) {
	reg := metrics.NewRegistry()
	idx := New(WithMetrics(reg))
	idx.Build(sampleRecords())

	assert.Equal(t, []roster.RecordID{0, 2}, idx.Members("OOPS"))
	assert.NotNil(t, idx.Members("NLP"))

	values, err := reg.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, values["roster_index_queries_total"])
}

func TestUpdate_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		old, new float64
		want     Transition
		member   bool
	}{
		{"rises above", 8.5, 9.2, Added, true},
		{"falls below", 9.5, 7.0, Removed, false},
		{"stays above", 9.5, 9.9, Unchanged, true},
		{"stays below", 6.0, 8.9, Unchanged, false},
		{"exactly threshold", 8.0, 9.0, Added, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := New()
			idx.Build([]*roster.Record{rec(0, roster.Grade{Course: "ML", Value: tt.old})})

			got := idx.Update(0, "ML", tt.old, tt.new)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.member, idx.Contains("ML", 0))
		})
	}
}

// TestUpdate_RiseThenFall walks one record through add and remove
func TestUpdate_RiseThenFall(t *testing.T) {
	idx := New()
	idx.Build([]*roster.Record{rec(0, roster.Grade{Course: "OOPS", Value: 8.5})})
	require.Empty(t, idx.Query("OOPS"))

	assert.Equal(t, Added, idx.Update(0, "OOPS", 8.5, 9.2))
	assert.Equal(t, []roster.RecordID{0}, idx.Query("OOPS"))

	assert.Equal(t, Removed, idx.Update(0, "OOPS", 9.2, 7.0))
	assert.Empty(t, idx.Query("OOPS"))

	// The emptied key stays allocated but is invisible to readers
	stats := idx.GetStatistics()
	assert.Equal(t, 1, stats.AllocatedKeys)
	assert.Equal(t, 0, stats.UniqueKeys)
	assert.Empty(t, idx.Keys())
}

func TestUpdate_KeepsAscendingOrder(t *testing.T) {
	idx := New()
	for _, id := range []roster.RecordID{7, 2, 9, 4} {
		idx.Update(id, "CN", 0, 9.5)
	}
	assert.Equal(t, []roster.RecordID{2, 4, 7, 9}, idx.Query("CN"))
}

func TestUpdate_EmptyKeyIgnored(t *testing.T) {
	idx := New()
	assert.Equal(t, Unchanged, idx.Update(0, "   ", 0, 10))
	assert.Empty(t, idx.Keys())
}

// TestUpdate_StaleOldValue checks that a stale old value neither duplicates
// nor loses an entry, and is reported
func TestUpdate_StaleOldValue(t *testing.T) {
	var buf bytes.Buffer
	reg := metrics.NewRegistry()
	idx := New(
		WithLogger(logging.NewJSONLogger(&buf, logging.DebugLevel)),
		WithMetrics(reg),
	)
	idx.Build([]*roster.Record{rec(0, roster.Grade{Course: "SE", Value: 9.4})})

	// Caller believes the old value was below threshold, but 0 is indexed
	got := idx.Update(0, "SE", 5.0, 9.6)

	assert.Equal(t, Unchanged, got)
	assert.Equal(t, []roster.RecordID{0}, idx.Query("SE"))
	assert.Contains(t, buf.String(), "stale index update")

	values, err := reg.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, values["roster_index_stale_updates_total"])
	assert.Equal(t, 1.0, values["roster_index_entries"])

	// Caller believes the old value qualified, but 1 was never indexed
	buf.Reset()
	got = idx.Update(1, "SE", 9.9, 3.0)
	assert.Equal(t, Unchanged, got)
	assert.False(t, idx.Contains("SE", 1))
	assert.True(t, strings.Contains(buf.String(), `"present":false`))
}

func TestClear(t *testing.T) {
	idx := New()
	idx.Build(sampleRecords())
	idx.Clear()

	assert.Empty(t, idx.Keys())
	assert.Empty(t, idx.Query("OOPS"))
	assert.Equal(t, Statistics{}, idx.GetStatistics())
}

func TestGetStatistics(t *testing.T) {
	idx := New()
	idx.Build(sampleRecords())

	stats := idx.GetStatistics()
	assert.Equal(t, 2, stats.UniqueKeys)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.InDelta(t, 1.5, stats.AvgEntriesPerKey, 1e-9)
}

func TestTransitionString(t *testing.T) {
	assert.Equal(t, "added", Added.String())
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, "unchanged", Unchanged.String())
}

// TestConcurrentUpdatesAndQueries checks that readers only ever observe
// sorted, duplicate-free entries while writers churn
func TestConcurrentUpdatesAndQueries(t *testing.T) {
	idx := New()
	const writers, ids = 8, 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < ids; i++ {
				id := roster.RecordID(w*ids + i)
				idx.Update(id, "DBMS", 0, 9.5)
				if i%2 == 1 {
					idx.Update(id, "DBMS", 9.5, 1.0)
				}
			}
		}(w)
	}

	done := make(chan struct{})
	var readerErr error
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			got := idx.Query("DBMS")
			for j := 1; j < len(got); j++ {
				if got[j-1] >= got[j] {
					readerErr = assert.AnError
					return
				}
			}
		}
	}()

	wg.Wait()
	<-done

	require.NoError(t, readerErr)
	assert.Len(t, idx.Query("DBMS"), writers*ids/2)
}
