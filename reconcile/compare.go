// Package reconcile compares two sets of screening summaries, re-checks a
// summary set's own invariants, and rebuilds summaries from annotated
// transcripts so hand corrections can be counted independently.
//
// Nothing here resolves a discrepancy; it only reports it.
package reconcile

import (
	"math"
	"sort"

	"github.com/pkwap/pkscreen/core"
)

// Class is the outcome of comparing one row.
type Class string

const (
	ClassMatch       Class = "match"
	ClassDiscrepancy Class = "discrepancy"
)

// AllPages marks a transcript-level row in a comparison.
const AllPages = -1

// Side holds one run's values for a compared row.
type Side struct {
	Present    bool
	Student    int
	AI         int
	PctStudent float64
}

// Comparison is one compared row: a whole transcript (Page == AllPages) or
// one of its pages.
type Comparison struct {
	ID       string
	Filename string
	Page     int
	A, B     Side
	Delta    float64 // pct_b - pct_a
	AbsDelta float64
	Class    Class
	Note     string
}

// Options controls a comparison.
type Options struct {
	Tolerance float64 // inclusive, in percentage points
	Precision int     // decimals kept on deltas
}

// epsilon absorbs float noise at the tolerance boundary.
const epsilon = 1e-9

// Compare matches the transcripts of a and b by id and reports one row per
// transcript followed by one row per page, ordered by id then page.
func Compare(a, b []core.TranscriptSummary, opts Options) []Comparison {
	byA := index(a)
	byB := index(b)

	ids := make([]string, 0, len(byA)+len(byB))
	for id := range byA {
		ids = append(ids, id)
	}
	for id := range byB {
		if _, ok := byA[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var out []Comparison
	for _, id := range ids {
		sa, okA := byA[id]
		sb, okB := byB[id]
		out = append(out, compareTranscript(id, sa, okA, sb, okB, opts)...)
	}
	return out
}

func index(rows []core.TranscriptSummary) map[string]core.TranscriptSummary {
	m := make(map[string]core.TranscriptSummary, len(rows))
	for _, r := range rows {
		m[r.ID] = r
	}
	return m
}

func compareTranscript(id string, a core.TranscriptSummary, okA bool, b core.TranscriptSummary, okB bool, opts Options) []Comparison {
	filename := a.Filename
	if !okA {
		filename = b.Filename
	}

	top := Comparison{ID: id, Filename: filename, Page: AllPages}
	if okA {
		top.A = Side{Present: true, Student: a.Student, AI: a.AI, PctStudent: a.PctStudent}
	}
	if okB {
		top.B = Side{Present: true, Student: b.Student, AI: b.AI, PctStudent: b.PctStudent}
	}
	classify(&top, opts)
	switch {
	case okA && a.Status == core.StatusError:
		top.Class, top.Note = ClassDiscrepancy, "error in a"
	case okB && b.Status == core.StatusError:
		top.Class, top.Note = ClassDiscrepancy, "error in b"
	}
	out := []Comparison{top}

	pa := pageIndex(a.Pages)
	pb := pageIndex(b.Pages)
	if len(pa) == 0 && len(pb) == 0 {
		return out
	}
	pages := make([]int, 0, len(pa)+len(pb))
	for i := range pa {
		pages = append(pages, i)
	}
	for i := range pb {
		if _, ok := pa[i]; !ok {
			pages = append(pages, i)
		}
	}
	sort.Ints(pages)

	for _, i := range pages {
		c := Comparison{ID: id, Filename: filename, Page: i}
		if p, ok := pa[i]; ok {
			c.A = Side{Present: true, Student: p.Student, AI: p.AI, PctStudent: p.PctStudent}
		}
		if p, ok := pb[i]; ok {
			c.B = Side{Present: true, Student: p.Student, AI: p.AI, PctStudent: p.PctStudent}
		}
		classify(&c, opts)
		out = append(out, c)
	}
	return out
}

func pageIndex(pages []core.PageSummary) map[int]core.PageSummary {
	m := make(map[int]core.PageSummary, len(pages))
	for _, p := range pages {
		m[p.Index] = p
	}
	return m
}

func classify(c *Comparison, opts Options) {
	switch {
	case !c.A.Present:
		c.Class, c.Note = ClassDiscrepancy, "missing in a"
		return
	case !c.B.Present:
		c.Class, c.Note = ClassDiscrepancy, "missing in b"
		return
	}
	c.Delta = core.Round(c.B.PctStudent-c.A.PctStudent, opts.Precision)
	c.AbsDelta = math.Abs(c.Delta)
	if c.AbsDelta <= opts.Tolerance+epsilon {
		c.Class = ClassMatch
	} else {
		c.Class = ClassDiscrepancy
	}
}

// Tally counts matches and discrepancies among transcript-level rows.
func Tally(rows []Comparison) (matches, discrepancies int) {
	for _, r := range rows {
		if r.Page != AllPages {
			continue
		}
		if r.Class == ClassMatch {
			matches++
		} else {
			discrepancies++
		}
	}
	return matches, discrepancies
}
