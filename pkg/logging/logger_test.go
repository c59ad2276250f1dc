package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to unmarshal log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{" info ", InfoLevel},
		{"WARN", WarnLevel},
		{"warning", WarnLevel},
		{"Error", ErrorLevel},
		{"invalid", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if Level(42).String() != "UNKNOWN" {
		t.Errorf("Level(42).String() = %q, want UNKNOWN", Level(42).String())
	}
	if WarnLevel.String() != "WARN" {
		t.Errorf("WarnLevel.String() = %q", WarnLevel.String())
	}
}

func TestDomainFields(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"record", RecordID(7), "record_id", 7},
		{"course", Course("OOPS"), "course", "OOPS"},
		{"grade", Grade(9.5), "grade", 9.5},
		{"worker", Worker(3), "worker", 3},
		{"workers", Workers(4), "workers", 4},
		{"pass", PassID("p-1"), "pass_id", "p-1"},
		{"latency", Latency(2 * time.Millisecond), "latency", "2ms"},
		{"nil error", Error(nil), "error", nil},
		{"error", Error(errors.New("boom")), "error", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("field = %+v, want {%s %v}", tt.field, tt.key, tt.value)
			}
		})
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[1].Level != "ERROR" {
		t.Errorf("levels = %s, %s; want WARN, ERROR", entries[0].Level, entries[1].Level)
	}
}

func TestJSONLogger_WithOverrides(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(Component("sort"), String("phase", "partition"))
	child.Info("phase done", String("phase", "merge"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Fields["component"] != "sort" {
		t.Errorf("component = %v, want sort", entries[0].Fields["component"])
	}
	if entries[0].Fields["phase"] != "merge" {
		t.Errorf("phase = %v, want call-site value merge", entries[0].Fields["phase"])
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("message without fields")

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if _, exists := raw["fields"]; exists {
		t.Error("Expected fields key to be omitted when empty")
	}
}

func TestJSONLogger_ConcurrentChildren(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			child := logger.With(Worker(worker))
			for j := 0; j < 25; j++ {
				child.Info("tick", Count(j))
			}
		}(i)
	}
	wg.Wait()

	// Interleaved writes would produce undecodable lines
	entries := decodeLines(t, &buf)
	if len(entries) != 200 {
		t.Errorf("Expected 200 entries, got %d", len(entries))
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	timer := StartTimer(logger, "merge", Workers(2))
	elapsed := timer.End(Count(10))
	if elapsed < 0 {
		t.Errorf("elapsed = %v, want >= 0", elapsed)
	}

	StartTimer(logger, "sort task", Worker(1)).EndError(errors.New("comparator panicked"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "INFO" || entries[0].Fields["latency"] == nil {
		t.Errorf("End entry = %+v, want INFO with latency", entries[0])
	}
	if entries[0].Fields["count"] != float64(10) {
		t.Errorf("count = %v, want 10", entries[0].Fields["count"])
	}
	if entries[1].Level != "ERROR" || entries[1].Fields["error"] != "comparator panicked" {
		t.Errorf("EndError entry = %+v", entries[1])
	}
}

func TestOrDefault(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, InfoLevel))

	OrDefault(nil).Info("from default")
	if !strings.Contains(buf.String(), "from default") {
		t.Error("OrDefault(nil) did not use the default logger")
	}

	nop := NewNopLogger()
	if OrDefault(nop) != nop {
		t.Error("OrDefault should return a non-nil logger unchanged")
	}
}

func BenchmarkJSONLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", Worker(1), Count(i))
	}
}
