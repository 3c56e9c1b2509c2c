// Package attribute assigns a speaker to every line of a segmented transcript.
//
// Explicit labels always win. Unlabelled lines fall through three heuristics
// in order (continuity, lexical, layout) and stay UNKNOWN when none applies.
// Decisions depend only on the line, its page and the compiled rules, so the
// same input always yields the same attribution.
package attribute

import (
	"regexp"
	"strings"

	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/core"
)

var (
	bulletRE   = regexp.MustCompile(`^\s*(?:[-*•+]|\d+[.)]|[a-zA-Z][.)])\s+`)
	indentedRE = regexp.MustCompile(`^(?: {2,}|\t)`)
)

// Attributor resolves speakers.
type Attributor struct {
	rules *config.Rules
}

// New returns an Attributor using the labels and phrase lists in rules.
func New(rules *config.Rules) *Attributor {
	return &Attributor{rules: rules}
}

// Apply implements core.Stage.
func (a *Attributor) Apply(t *core.Transcript) (*core.Transcript, error) {
	return a.Attribute(t), nil
}

// Attribute returns a copy of t with Label, Content, Speaker, Confidence and
// Rule filled in on every line.
func (a *Attributor) Attribute(t *core.Transcript) *core.Transcript {
	out := t.Clone()
	for i := range out.Pages {
		a.page(&out.Pages[i])
	}
	return out
}

func (a *Attributor) page(p *core.Page) {
	var (
		prev   core.Speaker // speaker of the previous non-blank content line
		broken bool         // a turn break sits between prev and the current line
	)

	for i := range p.Lines {
		l := &p.Lines[i]
		l.Label, l.Content = "", l.Raw

		if l.IsBlank() {
			structure(l)
			continue
		}
		if a.rules.IsTurnBreak(l.Raw) {
			structure(l)
			broken = true
			continue
		}
		if _, ok := a.rules.MatchPageMarker(l.Raw); ok {
			structure(l)
			broken = true
			continue
		}

		if label, sp, content, ok := a.rules.MatchLabel(l.Raw); ok {
			l.Label, l.Content = label, content
			l.Speaker, l.Confidence, l.Rule = sp, core.ConfidenceExplicit, core.RuleLabel
		} else {
			l.Speaker, l.Rule = a.infer(l.Raw, prev, broken)
			l.Confidence = core.ConfidenceHeuristic
		}
		prev, broken = l.Speaker, false
	}
}

// infer applies the heuristics to an unlabelled line.
func (a *Attributor) infer(s string, prev core.Speaker, broken bool) (core.Speaker, core.Rule) {
	if !broken && (prev == core.SpeakerAI || prev == core.SpeakerStudent) {
		return prev, core.RuleContinuity
	}

	if a.rules.MatchAIPhrase(s) {
		return core.SpeakerAI, core.RuleLexical
	}

	listed := bulletRE.MatchString(s) || indentedRE.MatchString(s)
	words := len(strings.Fields(s))
	trimmed := strings.TrimSpace(s)
	// A line introducing a list or block reads as neither an answer nor inline prose.
	lead := strings.HasSuffix(trimmed, ":") || strings.HasSuffix(trimmed, "：")

	if !listed && !lead && words <= a.rules.ShortAnswerMaxWords {
		return core.SpeakerStudent, core.RuleShortAnswer
	}

	if listed {
		return core.SpeakerAI, core.RuleLayout
	}
	if !lead && words <= a.rules.InlineProseMaxWords {
		return core.SpeakerStudent, core.RuleLayout
	}
	return core.SpeakerUnknown, core.RuleNone
}

func structure(l *core.Line) {
	l.Content = ""
	l.Speaker = core.SpeakerUnknown
	l.Confidence = core.ConfidenceNone
	l.Rule = core.RuleNone
}
