package reconcile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkwap/pkscreen/aggregate"
	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/segment"
	"github.com/pkwap/pkscreen/tokenize"
)

// AnnotatedSuffix is appended to a transcript's id to name its annotated file.
const AnnotatedSuffix = "__annotated"

// tagRE matches a leading annotation tag; a trailing "?" marks a tag the
// annotator was unsure of.
var tagRE = regexp.MustCompile(`(?i)^\s*\[(AI|STUDENT|UNK|UNKNOWN)(\?)?\] ?`)

// Recounter rebuilds summaries from annotated transcripts. Tags decide the
// speaker; everything else (pages, label stripping, tokenization,
// aggregation) runs exactly as in screening, so an unmodified annotated file
// reproduces the screening counts.
type Recounter struct {
	rules *config.Rules
	seg   *segment.Segmenter
	tok   *tokenize.Tokenizer
	agg   *aggregate.Aggregator
}

// NewRecounter returns a Recounter using rules.
func NewRecounter(rules *config.Rules) *Recounter {
	return &Recounter{
		rules: rules,
		seg:   segment.New(rules),
		tok:   tokenize.New(rules),
		agg:   aggregate.New(rules),
	}
}

// TranscriptID maps an annotated file stem back to the transcript id.
func TranscriptID(stem string) string {
	return strings.TrimSuffix(stem, AnnotatedSuffix)
}

// Parse segments an annotated transcript and attributes each line from its
// tag. Untagged content lines stay UNKNOWN.
func (r *Recounter) Parse(src *core.Source) (*core.Transcript, []core.Anomaly) {
	t, anomalies := r.seg.Segment(src)
	t.ID = TranscriptID(t.ID)
	t.Filename = t.ID + ".txt"
	t.Case = core.ParseCaseCode(t.ID)
	for i := range anomalies {
		anomalies[i].Transcript = t.ID
	}

	for i := range t.Pages {
		for j := range t.Pages[i].Lines {
			r.line(&t.Pages[i].Lines[j])
		}
	}
	return t, anomalies
}

func (r *Recounter) line(l *core.Line) {
	rest := l.Raw
	sp, conf := core.SpeakerUnknown, core.ConfidenceHeuristic
	if m := tagRE.FindStringSubmatchIndex(rest); m != nil {
		sp, _ = core.ParseSpeaker(rest[m[2]:m[3]])
		if sp != core.SpeakerUnknown && m[4] < 0 {
			conf = core.ConfidenceExplicit
		}
		rest = rest[m[1]:]
	}

	if strings.TrimSpace(rest) == "" || r.rules.IsTurnBreak(rest) {
		l.Content, l.Speaker, l.Confidence, l.Rule = "", core.SpeakerUnknown, core.ConfidenceNone, core.RuleNone
		return
	}
	if _, ok := r.rules.MatchPageMarker(rest); ok {
		l.Content, l.Speaker, l.Confidence, l.Rule = "", core.SpeakerUnknown, core.ConfidenceNone, core.RuleNone
		return
	}

	l.Content = rest
	if label, _, content, ok := r.rules.MatchLabel(rest); ok {
		l.Label, l.Content = label, content
	}
	l.Speaker, l.Confidence, l.Rule = sp, conf, core.RuleLabel
}

// Recount parses, tokenizes and aggregates one annotated transcript.
func (r *Recounter) Recount(src *core.Source) (core.TranscriptSummary, []core.Anomaly, error) {
	t, anomalies := r.Parse(src)
	t, err := r.tok.Apply(t)
	if err != nil {
		return aggregate.ErrorSummary(TranscriptID(src.ID), TranscriptID(src.ID)+".txt", err), nil,
			fmt.Errorf("recount %s: %w", src.Filename, err)
	}
	s, anomalies := r.agg.Summarize(t, anomalies)
	return s, anomalies, nil
}
