// Package segment splits normalised transcript text into pages of raw lines.
package segment

import (
	"fmt"
	"strings"

	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/core"
)

// FormFeed is the page separator left by PDF-to-text conversion. When the text
// contains one, it takes precedence over marker lines.
const FormFeed = "\f"

// Segmenter splits sources into pages.
type Segmenter struct {
	rules *config.Rules
}

// New returns a Segmenter using the page-marker patterns in rules.
func New(rules *config.Rules) *Segmenter {
	return &Segmenter{rules: rules}
}

// Segment normalises src and splits it into pages of unattributed lines.
// Malformed page numbering is reported as anomalies; pages always keep source
// order.
func (s *Segmenter) Segment(src *core.Source) (*core.Transcript, []core.Anomaly) {
	t := &core.Transcript{
		ID:       src.ID,
		Filename: src.Filename,
		Case:     core.ParseCaseCode(src.ID),
	}
	text := core.NormalizeText(src.Text)
	if strings.Contains(text, FormFeed) {
		t.Pages = splitFormFeed(text)
		return t, nil
	}

	pages, anomalies := s.splitMarkers(text)
	for i := range anomalies {
		anomalies[i].Transcript = t.ID
	}
	t.Pages = pages
	return t, anomalies
}

// splitFormFeed makes one page per form-feed separated chunk. Line numbers run
// on across chunks; a chunk that does not end in a newline shares its last
// line number with the first line of the next chunk.
func splitFormFeed(text string) []core.Page {
	chunks := strings.Split(text, FormFeed)
	// pdftotext ends every page with a form feed, leaving an empty tail.
	if last := chunks[len(chunks)-1]; len(chunks) > 1 && strings.TrimSpace(last) == "" {
		chunks = chunks[:len(chunks)-1]
	}

	pages := make([]core.Page, 0, len(chunks))
	next := 1
	for i, chunk := range chunks {
		p := core.Page{Index: i, Number: i + 1}
		if i > 0 {
			p.Marker = FormFeed
		}
		for j, raw := range core.SplitLines(chunk) {
			p.Lines = append(p.Lines, core.Line{Number: next + j, Raw: raw})
		}
		next += strings.Count(chunk, "\n")
		pages = append(pages, p)
	}
	return pages
}

func (s *Segmenter) splitMarkers(text string) ([]core.Page, []core.Anomaly) {
	var (
		pages     []core.Page
		anomalies []core.Anomaly
		current   = core.Page{Index: 0}
		marked    bool // current page opened by a marker
		lastNum   = -1
	)

	flush := func() {
		if marked || hasContent(current.Lines) {
			current.Index = len(pages)
			pages = append(pages, current)
		}
	}

	for i, raw := range core.SplitLines(text) {
		n := i + 1
		num, ok := s.rules.MatchPageMarker(raw)
		if !ok {
			current.Lines = append(current.Lines, core.Line{Number: n, Raw: raw})
			continue
		}

		flush()
		if lastNum >= 0 && num <= lastNum {
			anomalies = append(anomalies, core.Anomaly{
				Kind:   core.AnomalyMalformedPageMarker,
				Page:   len(pages),
				Line:   n,
				Detail: fmt.Sprintf("%s: page %d follows page %d", core.ErrMalformedPageMarker, num, lastNum),
			})
		}
		if num > lastNum {
			lastNum = num
		}
		current = core.Page{Number: num, Marker: raw}
		marked = true
	}
	flush()

	if len(pages) == 0 {
		pages = []core.Page{{Index: 0, Lines: current.Lines}}
	}
	return pages, anomalies
}

func hasContent(lines []core.Line) bool {
	for _, l := range lines {
		if !l.IsBlank() {
			return true
		}
	}
	return false
}
