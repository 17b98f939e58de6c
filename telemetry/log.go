// Package telemetry provides the bounded, ordered run log and the observer
// fan-out that mirrors it to host-application callbacks.
package telemetry

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// DefaultCapacity is the default bound on the number of retained entries.
const DefaultCapacity = 500

// ProgressCap bounds the truncated progress string forwarded to observers.
const ProgressCap = 140

// Entry levels.
const (
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

// Entry is one timestamped log line. Entries are never mutated after append.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
}

// String renders the entry as a single log line.
func (e Entry) String() string {
	return fmt.Sprintf("[%s][%s] %s", e.Timestamp.Format("15:04:05"), e.Level, e.Message)
}

// Observer receives run telemetry. All callbacks are invoked synchronously,
// in event order, never concurrently, and each is safe to leave as a no-op.
// Embed NopObserver to implement only the callbacks of interest.
type Observer interface {
	// OnLogEntry receives every appended entry.
	OnLogEntry(entry Entry)

	// OnProgress receives the entry message truncated to ProgressCap.
	OnProgress(text string)

	// OnPhaseLabel receives the human-readable label of the starting phase.
	OnPhaseLabel(label string)

	// OnPhaseProgress receives the phase index and the total phase count.
	OnPhaseProgress(current, total int)
}

// NopObserver implements Observer with no-ops for embedding.
type NopObserver struct{}

func (NopObserver) OnLogEntry(Entry)         {}
func (NopObserver) OnProgress(string)        {}
func (NopObserver) OnPhaseLabel(string)      {}
func (NopObserver) OnPhaseProgress(int, int) {}

// Sink is an append-only, capacity-bounded ordered log. Once the capacity is
// exceeded the oldest entry is evicted; no entry is ever removed or edited
// any other way.
//
// A Sink is exclusively owned by one run and is not safe for concurrent use.
type Sink struct {
	capacity  int
	entries   []Entry
	observers []Observer
}

// NewSink creates a sink with the given capacity (DefaultCapacity if the
// argument is not positive) and observer set.
func NewSink(capacity int, observers ...Observer) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Sink{
		capacity:  capacity,
		observers: observers,
	}
}

// Append records one entry, evicting the oldest entry beyond capacity, and
// forwards the entry plus a truncated progress string to all observers.
func (s *Sink) Append(level, message string) Entry {
	entry := Entry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
	}

	s.entries = append(s.entries, entry)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[1:]
	}

	progress := message
	if len(progress) > ProgressCap {
		cut := ProgressCap
		for cut > 0 && !utf8.RuneStart(progress[cut]) {
			cut--
		}
		progress = progress[:cut]
	}
	for _, o := range s.observers {
		o.OnLogEntry(entry)
		o.OnProgress(progress)
	}

	return entry
}

// EmitPhase notifies observers that a new phase is starting.
func (s *Sink) EmitPhase(label string, current, total int) {
	for _, o := range s.observers {
		o.OnPhaseLabel(label)
		o.OnPhaseProgress(current, total)
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (s *Sink) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Lines returns the retained entries rendered one line each, oldest first.
func (s *Sink) Lines() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.String()
	}
	return out
}

// Len returns the number of retained entries.
func (s *Sink) Len() int {
	return len(s.entries)
}
