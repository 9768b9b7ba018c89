package logging

import (
	"context"
	"sync"

	persons "github.com/getpup/persons-api"
)

// Entry is one record captured by a Recorder.
type Entry struct {
	Level   string
	Msg     string
	Keyvals []any
}

// Value returns the value logged for key, or nil.
func (e Entry) Value(key string) any {
	for i := 0; i+1 < len(e.Keyvals); i += 2 {
		if k, ok := e.Keyvals[i].(string); ok && k == key {
			return e.Keyvals[i+1]
		}
	}
	return nil
}

// Recorder is a persons.Logger that keeps every record in memory, for tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

var _ persons.Logger = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(level, msg string, keyvals []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Keyvals: keyvals})
}

func (r *Recorder) Debug(_ context.Context, msg string, keyvals ...any) {
	r.record("debug", msg, keyvals)
}

func (r *Recorder) Info(_ context.Context, msg string, keyvals ...any) {
	r.record("info", msg, keyvals)
}

func (r *Recorder) Warn(_ context.Context, msg string, keyvals ...any) {
	r.record("warn", msg, keyvals)
}

func (r *Recorder) Error(_ context.Context, msg string, keyvals ...any) {
	r.record("error", msg, keyvals)
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Level returns the recorded entries at the given level.
func (r *Recorder) Level(level string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
