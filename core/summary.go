package core

import (
	"fmt"
	"math"
)

// Status is the screening verdict for one transcript row.
type Status string

const (
	StatusOK          Status = "ok"
	StatusLowStudent  Status = "low_student"
	StatusHighUnknown Status = "high_unknown"
	StatusError       Status = "error"
)

// PageSummary holds the per-speaker token totals of one page.
type PageSummary struct {
	Index       int     `json:"index"`
	Student     int     `json:"student_words"`
	AI          int     `json:"ai_words"`
	Unknown     int     `json:"unknown_words"`
	Heuristic   int     `json:"heuristic_words"` // tokens on heuristically attributed lines
	PctStudent  float64 `json:"pct_student"`
	HighUnknown bool    `json:"high_unknown,omitempty"`
}

// Total is student + ai, the denominator of PctStudent.
func (p PageSummary) Total() int { return p.Student + p.AI }

// Words is every token on the page, unknown included.
func (p PageSummary) Words() int { return p.Student + p.AI + p.Unknown }

// TranscriptSummary aggregates the page summaries of one transcript. It is
// computed once and never patched; a re-run produces a new value.
type TranscriptSummary struct {
	ID         string        `json:"id"`
	Filename   string        `json:"filename"`
	Pages      []PageSummary `json:"pages,omitempty"`
	Student    int           `json:"student_words"`
	AI         int           `json:"ai_words"`
	Unknown    int           `json:"unknown_words"`
	Heuristic  int           `json:"heuristic_words"`
	PctStudent float64       `json:"pct_student"`
	Status     Status        `json:"status"`
	Note       string        `json:"note,omitempty"`

	StudentTurns int `json:"student_turns,omitempty"`
	AITurns      int `json:"ai_turns,omitempty"`
}

// Total is student + ai, the denominator of PctStudent.
func (s TranscriptSummary) Total() int { return s.Student + s.AI }

// Words is every token in the transcript, unknown included.
func (s TranscriptSummary) Words() int { return s.Student + s.AI + s.Unknown }

// UnknownShare is unknown / (student + ai + unknown), 0 for an empty transcript.
func (s TranscriptSummary) UnknownShare() float64 {
	return share(s.Unknown, s.Words())
}

// HeuristicShare is the fraction of tokens whose speaker was inferred.
func (s TranscriptSummary) HeuristicShare() float64 {
	return share(s.Heuristic, s.Words())
}

// Validate checks that the transcript totals equal the sum of the page totals
// and that every percentage is within bounds.
func (s TranscriptSummary) Validate() error {
	if s.Status == StatusError {
		return nil
	}
	var st, ai, unk int
	for _, p := range s.Pages {
		st += p.Student
		ai += p.AI
		unk += p.Unknown
		if err := checkPct(p.PctStudent, p.Total()); err != nil {
			return fmt.Errorf("page %d: %w", p.Index, err)
		}
	}
	if len(s.Pages) > 0 && (st != s.Student || ai != s.AI || unk != s.Unknown) {
		return fmt.Errorf("%w: pages sum to student=%d ai=%d unknown=%d, transcript has student=%d ai=%d unknown=%d",
			ErrInvariantViolation, st, ai, unk, s.Student, s.AI, s.Unknown)
	}
	return checkPct(s.PctStudent, s.Total())
}

func checkPct(pct float64, total int) error {
	if pct < 0 || pct > 100 || math.IsNaN(pct) {
		return fmt.Errorf("%w: pct_student %v out of [0, 100]", ErrInvariantViolation, pct)
	}
	if total == 0 && pct != 0 {
		return fmt.Errorf("%w: pct_student %v with zero denominator", ErrInvariantViolation, pct)
	}
	return nil
}

// PctStudent returns 100 * student / (student + ai) rounded to precision
// decimal places, or 0 when there is no student or AI talk.
func PctStudent(student, ai, precision int) float64 {
	if student+ai <= 0 {
		return 0
	}
	return Round(100*float64(student)/float64(student+ai), precision)
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}

func share(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
