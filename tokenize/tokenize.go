// Package tokenize counts the comparable "word" units in a line of mixed
// content: prose, URLs and email addresses, CJK runs and inline mathematics.
//
// A line is scanned left to right. URLs and emails are cut out first and
// count one each; CJK runs count one per CJK divisor characters, rounded up.
// The rest is split on whitespace into chunks. A chunk holding a strong math
// trigger seeds a math region that extends over neighbouring operator-only
// and operand chunks; inside a region every alphanumeric group and every math
// character is one token. All other chunks are prose and count word groups.
package tokenize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/core"
)

var (
	urlRE   = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	emailRE = regexp.MustCompile(`(?i)\b[\w.+-]+@[\w.-]+\.[a-z]{2,}\b`)
	wordRE  = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*(?:-[\p{L}\p{N}]+)*`)

	// Leading list and quote markers are layout, not content.
	markerRE   = regexp.MustCompile(`^\s*(?:>+\s*)*(?:[*•+]\s+)?`)
	boldRE     = regexp.MustCompile(`\*\*|__`)
	// Single-star or underscore emphasis wrapping a word, e.g. *really*.
	emphasisRE = regexp.MustCompile(`(^|\s)([*_])([^\s*_]|[^\s*_][^*_]*[^\s*_])([*_])`)
)

// Tokenizer counts tokens.
type Tokenizer struct {
	rules *config.Rules
}

// New returns a Tokenizer using the math triggers, phrase lists and CJK
// divisor in rules.
func New(rules *config.Rules) *Tokenizer {
	return &Tokenizer{rules: rules}
}

// Apply implements core.Stage. It fills in the count of every line and fails
// with core.ErrInvariantViolation when a count does not add up.
func (tk *Tokenizer) Apply(t *core.Transcript) (*core.Transcript, error) {
	out := t.Clone()
	for i := range out.Pages {
		for j := range out.Pages[i].Lines {
			l := &out.Pages[i].Lines[j]
			if l.Confidence == core.ConfidenceNone {
				l.Count = core.TokenCount{}
				continue
			}
			l.Count = tk.Count(l.Content, l.Speaker)
			if err := l.Count.Validate(); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", t.ID, l.Number, err)
			}
		}
	}
	return out, nil
}

// Count tokenizes one line's content. For AI lines a single leading preamble
// phrase is dropped first.
func (tk *Tokenizer) Count(content string, sp core.Speaker) core.TokenCount {
	var c core.TokenCount
	if tk.rules.Ignored(content) {
		return c
	}
	if sp == core.SpeakerAI {
		content = tk.rules.StripPreamble(content)
	}
	content = markerRE.ReplaceAllString(content, "")
	content = boldRE.ReplaceAllString(content, "")
	content = stripEmphasis(content)

	pos := 0
	for _, m := range links(content) {
		tk.text(content[pos:m.start], &c)
		c.URL++
		pos = m.end
	}
	tk.text(content[pos:], &c)

	c.Total = c.Sum()
	return c
}

// stripEmphasis drops the markers of *word* and _word_ emphasis so they do
// not read as multiplication.
func stripEmphasis(s string) string {
	return emphasisRE.ReplaceAllStringFunc(s, func(m string) string {
		sub := emphasisRE.FindStringSubmatch(m)
		if sub[2] != sub[4] {
			return m
		}
		return sub[1] + sub[3]
	})
}

type span struct{ start, end int }

// links returns non-overlapping URL and email matches. Overlaps resolve to
// the earliest start, then the longest match.
func links(s string) []span {
	var all []span
	for _, re := range []*regexp.Regexp{urlRE, emailRE} {
		for _, loc := range re.FindAllStringIndex(s, -1) {
			all = append(all, span{loc[0], loc[1]})
		}
	}
	if len(all) == 0 {
		return nil
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end > all[j].end
	})

	out := all[:1]
	for _, sp := range all[1:] {
		if sp.start < out[len(out)-1].end {
			continue
		}
		out = append(out, sp)
	}
	return out
}

// text counts a stretch without links, splitting out CJK runs.
func (tk *Tokenizer) text(s string, c *core.TokenCount) {
	var (
		rest strings.Builder
		run  int
	)
	flushRun := func() {
		if run > 0 {
			c.CJK += (run + tk.rules.CJKDivisor - 1) / tk.rules.CJKDivisor
			run = 0
			// A CJK run separates whatever surrounds it.
			rest.WriteByte(' ')
		}
	}
	for _, r := range s {
		if IsCJK(r) {
			run++
			continue
		}
		flushRun()
		rest.WriteRune(r)
	}
	flushRun()
	tk.chunks(strings.Fields(rest.String()), c)
}

type class int

const (
	classProse class = iota
	classStrong
	classOperator
	classOperand
)

// chunks counts whitespace-separated chunks, grouping math regions.
func (tk *Tokenizer) chunks(chunks []string, c *core.TokenCount) {
	classes := make([]class, len(chunks))
	for i, ch := range chunks {
		classes[i] = tk.classify(ch)
	}

	for i := 0; i < len(chunks); {
		if classes[i] == classProse {
			c.Prose += len(wordRE.FindAllString(chunks[i], -1))
			i++
			continue
		}

		j, strong := i, false
		for j < len(chunks) && classes[j] != classProse {
			strong = strong || classes[j] == classStrong
			j++
		}
		for _, ch := range chunks[i:j] {
			if strong {
				c.Math += tk.mathTokens(ch)
			} else {
				c.Prose += len(wordRE.FindAllString(ch, -1))
			}
		}
		i = j
	}
}

func (tk *Tokenizer) classify(ch string) class {
	onlyMath := true
	for _, r := range ch {
		if tk.rules.IsMathOperator(r) {
			return classStrong
		}
		if !tk.rules.IsMathChar(r) {
			onlyMath = false
		}
	}
	if tk.rules.MatchMathPattern(ch) {
		return classStrong
	}
	if onlyMath {
		return classOperator
	}

	trimmed := strings.TrimRight(ch, ".,;:!?")
	if strings.ContainsFunc(trimmed, unicode.IsDigit) {
		return classOperand
	}
	if rs := []rune(trimmed); len(rs) == 1 && unicode.IsLetter(rs[0]) {
		return classOperand
	}
	if tk.isNotation(trimmed) {
		return classOperand
	}
	return classProse
}

// isNotation reports whether ch is function or bracket notation such as
// f(x) or f'(a)(x: letters, digits and primes mixed with at least one math
// character. It joins a math region only next to a strong trigger.
func (tk *Tokenizer) isNotation(ch string) bool {
	hasMath := false
	for _, r := range ch {
		switch {
		case isAlnum(r), r == '\'', r == '’':
		case tk.rules.IsMathChar(r):
			hasMath = true
		default:
			return false
		}
	}
	return hasMath
}

// mathTokens counts a chunk inside a math region: each alphanumeric group
// (a decimal number such as 3.14 is one group) and each math character.
func (tk *Tokenizer) mathTokens(ch string) int {
	rs := []rune(ch)
	n := 0
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case isAlnum(r):
			n++
			for i+1 < len(rs) {
				next := rs[i+1]
				if isAlnum(next) {
					i++
					continue
				}
				if next == '.' && unicode.IsDigit(rs[i]) && i+2 < len(rs) && unicode.IsDigit(rs[i+2]) {
					i += 2
					continue
				}
				break
			}
		case tk.rules.IsMathChar(r):
			n++
		}
	}
	return n
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsCJK reports whether r falls in the CJK Extension A, CJK Unified, kana or
// Hangul syllable blocks.
func IsCJK(r rune) bool {
	switch {
	case r >= 0x3400 && r <= 0x4DBF,
		r >= 0x4E00 && r <= 0x9FFF,
		r >= 0x3040 && r <= 0x30FF,
		r >= 0xAC00 && r <= 0xD7AF:
		return true
	}
	return false
}
