// Package core defines the screening data model: transcripts split into pages
// and lines, the speaker each line is attributed to, and the token counts that
// every later stage folds into summaries.
package core

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Source is raw transcript text as produced by a reader, before segmentation.
type Source struct {
	ID       string // file stem, e.g. "P01-G8-S4"
	Filename string // base name, e.g. "P01-G8-S4.txt"
	Path     string
	Text     string
}

// NewSource builds a Source for the file at path holding text.
func NewSource(path, text string) *Source {
	name := filepath.Base(path)
	return &Source{
		ID:       strings.TrimSuffix(name, filepath.Ext(name)),
		Filename: name,
		Path:     path,
		Text:     text,
	}
}

// Transcript is one dialogue session. Stages never mutate a Transcript they
// receive; they return a new one.
type Transcript struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	Case     CaseCode `json:"case"`
	Pages    []Page   `json:"pages"`
}

// CaseCode identifies a participant, group and section, parsed from ids like
// "P01-G8-S4". Fields are empty when the id does not follow that shape.
type CaseCode struct {
	Participant string `json:"participant,omitempty"`
	Group       string `json:"group,omitempty"`
	Section     string `json:"section,omitempty"`
}

var caseCodeRE = regexp.MustCompile(`(?i)^P(\w+?)-G(\w+?)-S(\w+?)(?:[-_ ].*)?$`)

// ParseCaseCode extracts the case code from a transcript id.
func ParseCaseCode(id string) CaseCode {
	m := caseCodeRE.FindStringSubmatch(id)
	if m == nil {
		return CaseCode{}
	}
	return CaseCode{Participant: m[1], Group: m[2], Section: m[3]}
}

// String renders the code back in its canonical "P01-G8-S4" form.
func (c CaseCode) String() string {
	if c.Participant == "" {
		return ""
	}
	return "P" + c.Participant + "-G" + c.Group + "-S" + c.Section
}

// Page is a source-defined segment of a transcript.
type Page struct {
	Index  int    `json:"index"`            // 0-based, source order
	Number int    `json:"number,omitempty"` // number declared by the marker, 0 if implicit
	Marker string `json:"marker,omitempty"` // raw marker line, empty if implicit
	Lines  []Line `json:"lines"`
}

// Line is one source line and everything the pipeline learns about it.
type Line struct {
	Number     int        `json:"number"` // 1-based line number in the source
	Raw        string     `json:"raw"`
	Label      string     `json:"label,omitempty"`   // explicit speaker label, as written
	Content    string     `json:"content,omitempty"` // Raw with the label stripped
	Speaker    Speaker    `json:"speaker,omitempty"`
	Confidence Confidence `json:"confidence,omitempty"`
	Rule       Rule       `json:"rule,omitempty"`
	Count      TokenCount `json:"count"`
}

// IsBlank reports whether the line carries no visible text.
func (l Line) IsBlank() bool {
	return strings.TrimSpace(l.Raw) == ""
}

// Heuristic reports whether the speaker was inferred rather than labelled.
func (l Line) Heuristic() bool {
	return l.Confidence == ConfidenceHeuristic
}

// Speaker enumerates who a line is attributed to.
type Speaker string

const (
	SpeakerAI      Speaker = "AI"
	SpeakerStudent Speaker = "STUDENT"
	SpeakerUnknown Speaker = "UNKNOWN"
)

// ParseSpeaker maps a speaker name or annotation tag (e.g. "ai", "UNK") to a
// Speaker. The second result is false for unrecognised names.
func ParseSpeaker(s string) (Speaker, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AI":
		return SpeakerAI, true
	case "STUDENT":
		return SpeakerStudent, true
	case "UNKNOWN", "UNK":
		return SpeakerUnknown, true
	default:
		return "", false
	}
}

// Tag returns the short annotation tag used in annotated transcripts.
func (s Speaker) Tag() string {
	switch s {
	case SpeakerAI:
		return "AI"
	case SpeakerStudent:
		return "STUDENT"
	default:
		return "UNK"
	}
}

// Confidence distinguishes explicitly labelled lines from inferred ones.
type Confidence string

const (
	ConfidenceNone      Confidence = ""
	ConfidenceExplicit  Confidence = "explicit"
	ConfidenceHeuristic Confidence = "heuristic"
)

// Rule names the attribution rule that resolved a line.
type Rule string

const (
	RuleNone        Rule = ""
	RuleLabel       Rule = "label"
	RuleContinuity  Rule = "continuity"
	RuleLexical     Rule = "lexical"
	RuleShortAnswer Rule = "short_answer"
	RuleLayout      Rule = "layout"
)

// Clone returns a deep copy of the transcript so a stage can build its output
// without touching its input.
func (t *Transcript) Clone() *Transcript {
	out := &Transcript{
		ID:       t.ID,
		Filename: t.Filename,
		Case:     t.Case,
		Pages:    make([]Page, len(t.Pages)),
	}
	for i, p := range t.Pages {
		lines := make([]Line, len(p.Lines))
		copy(lines, p.Lines)
		p.Lines = lines
		out.Pages[i] = p
	}
	return out
}

// LineCount returns the number of lines across all pages.
func (t *Transcript) LineCount() int {
	n := 0
	for _, p := range t.Pages {
		n += len(p.Lines)
	}
	return n
}
