// Package aggregate folds per-line token counts into page and transcript
// summaries and decides each transcript's screening status.
package aggregate

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/core"
)

// Aggregator builds summaries.
type Aggregator struct {
	rules *config.Rules
}

// New returns an Aggregator using the thresholds and precision in rules.
func New(rules *config.Rules) *Aggregator {
	return &Aggregator{rules: rules}
}

// Summarize folds an attributed, tokenized transcript into its summary.
// anomalies are the ones found upstream (segmentation); the result holds
// those plus the ones found here.
func (a *Aggregator) Summarize(t *core.Transcript, anomalies []core.Anomaly) (core.TranscriptSummary, []core.Anomaly) {
	s := core.TranscriptSummary{
		ID:       t.ID,
		Filename: t.Filename,
		Pages:    make([]core.PageSummary, 0, len(t.Pages)),
	}
	out := slices.Clone(anomalies)

	for _, p := range t.Pages {
		ps := core.PageSummary{Index: p.Index}
		for _, l := range p.Lines {
			n := l.Count.Total
			switch l.Speaker {
			case core.SpeakerStudent:
				ps.Student += n
			case core.SpeakerAI:
				ps.AI += n
			default:
				ps.Unknown += n
				if n > 0 {
					out = append(out, core.Anomaly{
						Kind: core.AnomalyUnresolvedSpeaker, Transcript: t.ID, Page: p.Index, Line: l.Number,
						Detail: fmt.Sprintf("%d tokens", n),
					})
				}
			}
			if l.Heuristic() {
				ps.Heuristic += n
			}
		}
		ps.PctStudent = core.PctStudent(ps.Student, ps.AI, a.rules.Precision)
		ps.HighUnknown = a.highUnknown(ps.Unknown, ps.Words())
		if ps.HighUnknown {
			out = append(out, core.Anomaly{
				Kind: core.AnomalyHighUnknownPage, Transcript: t.ID, Page: p.Index,
				Detail: "unknown=" + a.percent(ps.Unknown, ps.Words()),
			})
		}

		s.Student += ps.Student
		s.AI += ps.AI
		s.Unknown += ps.Unknown
		s.Heuristic += ps.Heuristic
		s.Pages = append(s.Pages, ps)
	}

	s.PctStudent = core.PctStudent(s.Student, s.AI, a.rules.Precision)
	turns := core.TurnCounts(t)
	s.StudentTurns, s.AITurns = turns[core.SpeakerStudent], turns[core.SpeakerAI]

	malformed := 0
	for _, an := range anomalies {
		if an.Kind == core.AnomalyMalformedPageMarker {
			malformed++
		}
	}

	switch {
	case a.highUnknown(s.Unknown, s.Words()):
		s.Status = core.StatusHighUnknown
		out = append(out, core.Anomaly{
			Kind: core.AnomalyHighUnknown, Transcript: t.ID, Page: -1,
			Detail: "unknown=" + a.percent(s.Unknown, s.Words()),
		})
	case s.Total() == 0 || s.PctStudent < a.rules.LowStudentPct:
		s.Status = core.StatusLowStudent
	default:
		s.Status = core.StatusOK
	}
	s.Note = a.note(s, malformed)
	return s, out
}

// highUnknown applies the strict unknown-share threshold.
func (a *Aggregator) highUnknown(unknown, words int) bool {
	return words > 0 && float64(unknown)/float64(words) > a.rules.UnknownThreshold
}

func (a *Aggregator) percent(part, whole int) string {
	v := 0.0
	if whole > 0 {
		v = 100 * float64(part) / float64(whole)
	}
	return FormatFloat(core.Round(v, a.rules.Precision), a.rules.Precision) + "%"
}

func (a *Aggregator) note(s core.TranscriptSummary, malformed int) string {
	var parts []string
	if s.Unknown > 0 {
		parts = append(parts, "unknown="+a.percent(s.Unknown, s.Words()))
	}
	if s.Heuristic > 0 {
		parts = append(parts, "heuristic="+a.percent(s.Heuristic, s.Words()))
	}
	if s.Total() == 0 {
		parts = append(parts, "zero_total")
	}
	if malformed > 0 {
		parts = append(parts, "malformed_page_markers="+strconv.Itoa(malformed))
	}
	return strings.Join(parts, ";")
}

// ErrorSummary is the row written for a transcript that could not be
// screened. Counts stay zero and the note carries the error.
func ErrorSummary(id, filename string, err error) core.TranscriptSummary {
	return core.TranscriptSummary{
		ID:       id,
		Filename: filename,
		Status:   core.StatusError,
		Note:     strings.ReplaceAll(err.Error(), "\n", " "),
	}
}

// Sort orders summaries by transcript id, then filename.
func Sort(summaries []core.TranscriptSummary) {
	slices.SortStableFunc(summaries, func(x, y core.TranscriptSummary) int {
		if c := strings.Compare(x.ID, y.ID); c != 0 {
			return c
		}
		return strings.Compare(x.Filename, y.Filename)
	})
}

// FormatFloat renders v with exactly precision decimals.
func FormatFloat(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}
