package ingest

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blogcorpus/ingest/record"
)

// Outcome is the result of processing one seed URL. A successful outcome
// carries the derived record and an empty Reason; a failed one carries a
// human-readable reason and no record.
type Outcome struct {
	URL    string
	Record *record.StructuredRecord
	Reason string
}

// Failed reports whether this outcome is a failure.
func (o Outcome) Failed() bool {
	return o.Reason != ""
}

// Report is the append-only summary of one pipeline run. Appends are safe
// under concurrent use.
type Report struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time

	mu       sync.Mutex
	outcomes []Outcome
}

func (r *Report) add(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

// Outcomes returns a copy of all per-URL outcomes in arrival order.
func (r *Report) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Succeeded returns the number of successfully processed URLs.
func (r *Report) Succeeded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed URLs.
func (r *Report) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes in arrival order.
func (r *Report) Failures() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failures []Outcome
	for _, o := range r.outcomes {
		if o.Failed() {
			failures = append(failures, o)
		}
	}
	return failures
}
