// Package compact reduces an attributed transcript to the lines a reviewer
// has to look at: unresolved lines, optionally heuristic ones, and a little
// context around each.
package compact

import (
	"fmt"

	"github.com/pkwap/pkscreen/core"
)

// Config controls which lines are kept.
type Config struct {
	Context   int  // lines kept before and after each review line
	Heuristic bool // also review heuristically attributed lines
	MaxLines  int  // cap on kept lines per transcript, 0 for no cap
}

// Excerpt is a run of consecutive kept lines from one page.
type Excerpt struct {
	Page    int
	Skipped int // lines of the page dropped before this excerpt
	Lines   []core.Line
}

// Compactor selects review excerpts.
type Compactor struct {
	context   int
	heuristic bool
	maxLines  int
}

// New creates a Compactor from the given config.
func New(cfg Config) *Compactor {
	return &Compactor{
		context:   max(cfg.Context, 0),
		heuristic: cfg.Heuristic,
		maxLines:  max(cfg.MaxLines, 0),
	}
}

// NeedsReview reports whether l is a review line: content whose speaker is
// unresolved, or, when configured, inferred.
func (c *Compactor) NeedsReview(l core.Line) bool {
	if l.Confidence == core.ConfidenceNone || l.Count.Total == 0 {
		return false
	}
	if l.Speaker == core.SpeakerUnknown {
		return true
	}
	return c.heuristic && l.Heuristic()
}

// Excerpts returns the review excerpts of t in page order. A transcript with
// nothing to review yields nil.
func (c *Compactor) Excerpts(t *core.Transcript) []Excerpt {
	var out []Excerpt
	kept := 0
	for _, p := range t.Pages {
		keep := c.mark(p.Lines)
		last := -1
		for i := 0; i < len(p.Lines); i++ {
			if !keep[i] {
				continue
			}
			if c.maxLines > 0 && kept >= c.maxLines {
				return out
			}
			if len(out) == 0 || out[len(out)-1].Page != p.Index || last != i-1 {
				out = append(out, Excerpt{Page: p.Index, Skipped: i - last - 1})
			}
			ex := &out[len(out)-1]
			ex.Lines = append(ex.Lines, p.Lines[i])
			last = i
			kept++
		}
	}
	return out
}

// mark flags review lines and their context.
func (c *Compactor) mark(lines []core.Line) []bool {
	keep := make([]bool, len(lines))
	for i, l := range lines {
		if !c.NeedsReview(l) {
			continue
		}
		lo := max(i-c.context, 0)
		hi := min(i+c.context, len(lines)-1)
		for j := lo; j <= hi; j++ {
			keep[j] = true
		}
	}
	return keep
}

// GapSummary returns a summary like "[skipped: 12 lines]".
func GapSummary(n int) string {
	if n == 1 {
		return "[skipped: 1 line]"
	}
	return fmt.Sprintf("[skipped: %d lines]", n)
}
