// Package activity records the last user-visible action taken through the
// chat interface so the dashboard can show it briefly.
package activity

import (
	"sync"
	"time"
)

// Record is the last noted action.
type Record struct {
	Text string
	At   time.Time
}

// Tracker holds a single Record. Writers overwrite it; nothing is queued.
type Tracker struct {
	mu     sync.Mutex
	record Record
	now    func() time.Time
}

// NewTracker creates an empty tracker. now may be nil.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now}
}

// Note replaces the record with text stamped at the current time.
func (t *Tracker) Note(text string) {
	at := t.now()
	t.mu.Lock()
	t.record = Record{Text: text, At: at}
	t.mu.Unlock()
}

// Peek returns the recorded text and its age. An empty tracker returns ""
// and a zero age.
func (t *Tracker) Peek() (string, time.Duration) {
	t.mu.Lock()
	record := t.record
	t.mu.Unlock()

	if record.At.IsZero() {
		return "", 0
	}
	return record.Text, t.now().Sub(record.At)
}

// Recent reports the recorded text if it is non-empty and younger than
// window.
func (t *Tracker) Recent(window time.Duration) (string, time.Duration, bool) {
	text, age := t.Peek()
	if text == "" || age >= window {
		return "", age, false
	}
	return text, age, true
}
