// Package render defines the run report and the interfaces for writing it,
// and single transcripts, into output formats.
package render

import (
	"io"
	"time"

	"github.com/pkwap/pkscreen/compact"
	"github.com/pkwap/pkscreen/core"
)

// Renderer writes a run report to the given writer in a specific format.
type Renderer interface {
	Render(w io.Writer, r *Report) error
}

// TranscriptRenderer writes one attributed transcript.
type TranscriptRenderer interface {
	Render(w io.Writer, t *core.Transcript) error
}

// Report is everything a screening run produced. Summaries are sorted by
// transcript id.
type Report struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	Input     string
	Precision int
	Summaries []core.TranscriptSummary
	Anomalies []core.Anomaly
	Reviews   []Review
}

// Review holds the lines of one transcript that need a human look.
type Review struct {
	ID       string
	Excerpts []compact.Excerpt
}

// StatusCounts tallies transcripts per status.
func (r *Report) StatusCounts() map[core.Status]int {
	m := make(map[core.Status]int)
	for _, s := range r.Summaries {
		m[s.Status]++
	}
	return m
}

// Flagged returns the transcripts whose status is not ok, in report order.
func (r *Report) Flagged() []core.TranscriptSummary {
	var out []core.TranscriptSummary
	for _, s := range r.Summaries {
		if s.Status != core.StatusOK {
			out = append(out, s)
		}
	}
	return out
}

// Totals sums the student, ai and unknown tokens across all transcripts.
func (r *Report) Totals() (student, ai, unknown int) {
	for _, s := range r.Summaries {
		student += s.Student
		ai += s.AI
		unknown += s.Unknown
	}
	return student, ai, unknown
}
