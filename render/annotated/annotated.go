// Package annotated writes attributed transcripts back out as text, each line
// prefixed with its speaker tag, for human review and later recount.
package annotated

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/reconcile"
	"github.com/pkwap/pkscreen/redact"
	"github.com/pkwap/pkscreen/segment"
)

// Path returns the annotated file path for transcript id under dir.
func Path(dir, id string) string {
	return filepath.Join(dir, id+reconcile.AnnotatedSuffix+".txt")
}

// Renderer writes "[AI] ", "[STUDENT] " or "[UNK] " before every non-blank
// line, with "[AI?] " and "[STUDENT?] " for inferred speakers. Blank lines are written unchanged and page markers are written
// untagged, so the output segments into the same pages as the source.
type Renderer struct {
	// Redactor, when set, masks personal data in the written text. Counts are
	// never recomputed.
	Redactor *redact.Redactor
}

// New creates an annotated Renderer. r may be nil.
func New(r *redact.Redactor) *Renderer {
	return &Renderer{Redactor: r}
}

// Render writes t to w.
func (r *Renderer) Render(w io.Writer, t *core.Transcript) error {
	if r.Redactor != nil {
		var err error
		if t, err = r.Redactor.Apply(t); err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)
	for _, p := range t.Pages {
		switch {
		case p.Marker == segment.FormFeed:
			bw.WriteString(segment.FormFeed)
		case p.Marker != "":
			marker := p.Marker
			if r.Redactor != nil {
				marker = r.Redactor.Redact(marker)
			}
			fmt.Fprintln(bw, marker)
		}
		for _, l := range p.Lines {
			if l.IsBlank() {
				fmt.Fprintln(bw, l.Raw)
				continue
			}
			fmt.Fprintf(bw, "[%s] %s\n", tag(l), l.Raw)
		}
	}
	return bw.Flush()
}

// tag marks an inferred speaker with "?" so a recount keeps it heuristic.
func tag(l core.Line) string {
	if l.Heuristic() && l.Speaker != core.SpeakerUnknown {
		return l.Speaker.Tag() + "?"
	}
	return l.Speaker.Tag()
}
