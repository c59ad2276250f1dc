package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers

func Component(name string) Field {
	return String("component", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

// RecordID takes a plain int so this package stays free of domain imports
func RecordID(id int) Field {
	return Int("record_id", id)
}

func Course(key string) Field {
	return String("course", key)
}

func Grade(value float64) Field {
	return Float64("grade", value)
}

func Worker(index int) Field {
	return Int("worker", index)
}

func Workers(n int) Field {
	return Int("workers", n)
}

func PassID(id string) Field {
	return String("pass_id", id)
}

func SessionID(id string) Field {
	return String("session_id", id)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}
