// Package courses maps course codes between the two institute code systems:
// numeric codes (IIT) and short string codes (IIIT).
package courses

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Direction tells which way a code was translated
type Direction int

const (
	// NumericToString translates an IIT numeric code to its IIIT code
	NumericToString Direction = iota
	// StringToNumeric translates an IIIT code to its IIT numeric code
	StringToNumeric
)

func (d Direction) String() string {
	if d == StringToNumeric {
		return "iiit->iit"
	}
	return "iit->iiit"
}

// ErrUnknownCourse is returned when a code has no mapping
var ErrUnknownCourse = errors.New("unknown course code")

// Mapping is one row of the table
type Mapping struct {
	Numeric int
	Code    string
}

// DefaultMappings is the built-in table
var DefaultMappings = []Mapping{
	{101, "OOPS"},
	{102, "DSA"},
	{201, "DBMS"},
	{202, "OS"},
	{301, "CN"},
	{302, "NLP"},
	{401, "ML"},
	{402, "AI"},
	{501, "SE"},
	{502, "CNTR"},
}

// Table is a bidirectional course code table, safe for concurrent use
type Table struct {
	byNumeric map[int]string
	byCode    map[string]int
	mu        sync.RWMutex
}

// NewTable creates a table holding mappings
func NewTable(mappings ...Mapping) *Table {
	t := &Table{
		byNumeric: make(map[int]string, len(mappings)),
		byCode:    make(map[string]int, len(mappings)),
	}
	for _, m := range mappings {
		t.Add(m.Numeric, m.Code)
	}
	return t
}

// Default returns a new table loaded with DefaultMappings
func Default() *Table {
	return NewTable(DefaultMappings...)
}

// Add maps numeric <-> code, replacing any existing mapping of either side
func (t *Table) Add(numeric int, code string) {
	code = normalize(code)

	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.byNumeric[numeric]; ok {
		delete(t.byCode, old)
	}
	if old, ok := t.byCode[code]; ok {
		delete(t.byNumeric, old)
	}
	t.byNumeric[numeric] = code
	t.byCode[code] = numeric
}

// ToCode translates an IIT numeric code
func (t *Table) ToCode(numeric int) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	code, ok := t.byNumeric[numeric]
	return code, ok
}

// ToNumeric translates an IIIT string code
func (t *Table) ToNumeric(code string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.byCode[normalize(code)]
	return n, ok
}

// Translate converts code to the other system. A code that parses as an
// integer is treated as numeric.
func (t *Table) Translate(code string) (string, Direction, error) {
	code = normalize(code)
	if n, err := strconv.Atoi(code); err == nil {
		if s, ok := t.ToCode(n); ok {
			return s, NumericToString, nil
		}
		return "", NumericToString, fmt.Errorf("%w: %d", ErrUnknownCourse, n)
	}
	if n, ok := t.ToNumeric(code); ok {
		return strconv.Itoa(n), StringToNumeric, nil
	}
	return "", StringToNumeric, fmt.Errorf("%w: %q", ErrUnknownCourse, code)
}

// Mappings returns the table sorted by numeric code
func (t *Table) Mappings() []Mapping {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Mapping, 0, len(t.byNumeric))
	for n, c := range t.byNumeric {
		out = append(out, Mapping{Numeric: n, Code: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numeric < out[j].Numeric })
	return out
}

// Len returns the number of mappings
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byNumeric)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
