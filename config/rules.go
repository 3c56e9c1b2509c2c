package config

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkwap/pkscreen/core"
)

// Rules is the compiled, read-only form of a Config. It is safe for
// concurrent use by any number of workers.
type Rules struct {
	labels      map[string]core.Speaker
	labelRE     *regexp.Regexp
	aiPhrases   []*regexp.Regexp
	preambleRE  *regexp.Regexp
	ignore      []string
	pageMarkers []*regexp.Regexp
	turnBreaks  []*regexp.Regexp
	mathChars   string
	mathOps     string
	mathRE      []*regexp.Regexp

	ShortAnswerMaxWords int
	InlineProseMaxWords int
	UnknownThreshold    float64
	LowStudentPct       float64
	Tolerance           float64
	CJKDivisor          int
	Precision           int
	Workers             int
}

// Compile validates c and compiles its patterns.
func (c *Config) Compile() (*Rules, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	r := &Rules{
		labels:              make(map[string]core.Speaker),
		mathChars:           c.MathChars,
		mathOps:             c.MathOperators,
		ShortAnswerMaxWords: c.ShortAnswerMaxWords,
		InlineProseMaxWords: c.InlineProseMaxWords,
		UnknownThreshold:    c.UnknownThreshold,
		LowStudentPct:       c.LowStudentPct,
		Tolerance:           c.Tolerance,
		CJKDivisor:          c.CJKDivisor,
		Precision:           c.Precision,
		Workers:             c.WorkerCount(),
	}

	var alts []string
	add := func(names []string, sp core.Speaker) {
		for _, n := range names {
			k := labelKey(n)
			if k == "" {
				continue
			}
			r.labels[k] = sp
			alts = append(alts, strings.Join(strings.Fields(regexp.QuoteMeta(k)), `\s+`))
		}
	}
	add(c.Labels.AI, core.SpeakerAI)
	add(c.Labels.Student, core.SpeakerStudent)
	// Longest first so "my answer" wins over "me" style prefixes.
	sort.SliceStable(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	alt := strings.Join(alts, "|")
	r.labelRE = regexp.MustCompile(`(?i)^[\s>*•-]*(?:\[\s*(` + alt + `)\s*\][\s*]*(?:[:：]|-\s)?|(` + alt + `)[\s*]*(?:[:：]|-\s))[\s*]*`)

	var err error
	if r.aiPhrases, err = compileAll("ai_phrases", c.AIPhrases, `(?i)^\s*(?:`, `)`); err != nil {
		return nil, err
	}
	if r.pageMarkers, err = compileAll("page_markers", c.PageMarkers, "", ""); err != nil {
		return nil, err
	}
	if r.turnBreaks, err = compileAll("turn_breaks", c.TurnBreaks, "", ""); err != nil {
		return nil, err
	}
	if r.mathRE, err = compileAll("math_patterns", c.MathPatterns, "", ""); err != nil {
		return nil, err
	}

	if len(c.Preambles) > 0 {
		quoted := make([]string, 0, len(c.Preambles))
		for _, p := range c.Preambles {
			if p = strings.TrimSpace(p); p != "" {
				quoted = append(quoted, regexp.QuoteMeta(p))
			}
		}
		sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
		r.preambleRE = regexp.MustCompile(`(?i)^\s*(?:` + strings.Join(quoted, "|") + `)\b[\s,.!:;-]*`)
	}

	for _, p := range c.IgnorePhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			r.ignore = append(r.ignore, p)
		}
	}
	return r, nil
}

// MustCompile is Compile for configurations known to be valid, such as
// Default(). It panics on error.
func MustCompile(c *Config) *Rules {
	r, err := c.Compile()
	if err != nil {
		panic(err)
	}
	return r
}

func compileAll(key string, patterns []string, prefix, suffix string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(prefix + p + suffix)
		if err != nil {
			return nil, fmt.Errorf("invalid config: %s pattern %q: %w", key, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func labelKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// MatchLabel reports whether line starts with an explicit speaker label. It
// returns the label as written, the speaker, and the content after the label.
func (r *Rules) MatchLabel(line string) (label string, sp core.Speaker, content string, ok bool) {
	m := r.labelRE.FindStringSubmatchIndex(line)
	if m == nil {
		return "", "", line, false
	}
	for g := 1; g <= 2; g++ {
		if m[2*g] >= 0 {
			label = line[m[2*g]:m[2*g+1]]
			break
		}
	}
	sp, ok = r.labels[labelKey(label)]
	if !ok {
		return "", "", line, false
	}
	return label, sp, line[m[1]:], true
}

// MatchAIPhrase reports whether line opens with a configured AI phrase.
func (r *Rules) MatchAIPhrase(line string) bool {
	for _, re := range r.aiPhrases {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// StripPreamble removes one leading AI preamble phrase.
func (r *Rules) StripPreamble(s string) string {
	if r.preambleRE == nil {
		return s
	}
	if loc := r.preambleRE.FindStringIndex(s); loc != nil {
		return s[loc[1]:]
	}
	return s
}

// Ignored reports whether s contains an ignore phrase.
func (r *Rules) Ignored(s string) bool {
	if len(r.ignore) == 0 {
		return false
	}
	low := strings.ToLower(s)
	for _, p := range r.ignore {
		if strings.Contains(low, p) {
			return true
		}
	}
	return false
}

// MatchPageMarker reports whether line is a page marker and returns the
// declared page number, or 0 when the pattern captures none.
func (r *Rules) MatchPageMarker(line string) (int, bool) {
	for _, re := range r.pageMarkers {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n := 0
		if len(m) > 1 {
			n, _ = strconv.Atoi(m[1])
		}
		return n, true
	}
	return 0, false
}

// IsTurnBreak reports whether line is a turn-break marker.
func (r *Rules) IsTurnBreak(line string) bool {
	for _, re := range r.turnBreaks {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// IsMathChar reports whether c is tokenized individually inside math.
func (r *Rules) IsMathChar(c rune) bool {
	return strings.ContainsRune(r.mathChars, c)
}

// IsMathOperator reports whether c starts a math region.
func (r *Rules) IsMathOperator(c rune) bool {
	return strings.ContainsRune(r.mathOps, c)
}

// MatchMathPattern reports whether s contains a configured math pattern.
func (r *Rules) MatchMathPattern(s string) bool {
	for _, re := range r.mathRE {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
