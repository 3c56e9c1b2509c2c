// Package json renders a screening run as a single JSON document, the
// machine-readable twin of summary.csv and run.log.
package json

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/render"
)

// Renderer renders a run report to JSON.
type Renderer struct {
	// Indent controls pretty-printing. When true, output is indented.
	Indent bool
}

// document is the JSON shape of a report. Summaries and anomalies are
// serialized through their own json tags.
type document struct {
	RunID       string                   `json:"run_id,omitempty"`
	StartedAt   *time.Time               `json:"started_at,omitempty"`
	ElapsedMS   int64                    `json:"elapsed_ms"`
	Input       string                   `json:"input,omitempty"`
	Precision   int                      `json:"precision"`
	Totals      totals                   `json:"totals"`
	Transcripts []core.TranscriptSummary `json:"transcripts"`
	Anomalies   []core.Anomaly           `json:"anomalies"`
}

type totals struct {
	Transcripts int                 `json:"transcripts"`
	Student     int                 `json:"student_words"`
	AI          int                 `json:"ai_words"`
	Unknown     int                 `json:"unknown_words"`
	PctStudent  float64             `json:"pct_student"`
	Statuses    map[core.Status]int `json:"statuses"`
}

// Render writes rep as one JSON object followed by a newline.
func (r Renderer) Render(w io.Writer, rep *render.Report) error {
	student, ai, unknown := rep.Totals()
	doc := document{
		RunID:     rep.RunID,
		ElapsedMS: rep.Elapsed.Milliseconds(),
		Input:     rep.Input,
		Precision: rep.Precision,
		Totals: totals{
			Transcripts: len(rep.Summaries),
			Student:     student,
			AI:          ai,
			Unknown:     unknown,
			PctStudent:  core.PctStudent(student, ai, rep.Precision),
			Statuses:    rep.StatusCounts(),
		},
		Transcripts: rep.Summaries,
		Anomalies:   rep.Anomalies,
	}
	if !rep.StartedAt.IsZero() {
		t := rep.StartedAt.UTC()
		doc.StartedAt = &t
	}
	if doc.Transcripts == nil {
		doc.Transcripts = []core.TranscriptSummary{}
	}
	if doc.Anomalies == nil {
		doc.Anomalies = []core.Anomaly{}
	}
	return r.encode(w, doc)
}

// RenderTranscript writes one attributed transcript, line by line.
func (r Renderer) RenderTranscript(w io.Writer, t *core.Transcript) error {
	return r.encode(w, t)
}

func (r Renderer) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
