package redact

import (
	"regexp"
	"sort"

	"github.com/pkwap/pkscreen/core"
)

// Config controls which rules the Redactor applies.
type Config struct {
	PII       bool
	Secrets   bool
	Names     []string // participant names to mask
	Allowlist []string // regex patterns to skip
}

// Redactor applies redaction rules to the text of a Transcript.
type Redactor struct {
	rules     []Rule
	allowlist []*regexp.Regexp
}

// New creates a Redactor from the given config. Invalid allowlist patterns
// are skipped.
func New(cfg Config) *Redactor {
	var rules []Rule
	if cfg.PII {
		rules = append(rules, PIIRules()...)
	}
	if cfg.Secrets {
		rules = append(rules, SecretRules()...)
	}
	if r := NameRule(cfg.Names); r != nil {
		rules = append(rules, r)
	}

	allowlist := make([]*regexp.Regexp, 0, len(cfg.Allowlist))
	for _, pattern := range cfg.Allowlist {
		if re, err := regexp.Compile(pattern); err == nil {
			allowlist = append(allowlist, re)
		}
	}

	return &Redactor{rules: rules, allowlist: allowlist}
}

// Apply implements core.Stage. It returns a copy of t with the raw text and
// content of every line redacted; labels, speakers and counts are kept.
func (r *Redactor) Apply(t *core.Transcript) (*core.Transcript, error) {
	out := t.Clone()
	for i := range out.Pages {
		for j := range out.Pages[i].Lines {
			l := &out.Pages[i].Lines[j]
			l.Raw = r.Redact(l.Raw)
			l.Content = r.Redact(l.Content)
		}
	}
	return out, nil
}

// Redact applies all rules to s. Overlapping matches resolve to earliest
// start, then longest. Allowlisted values are skipped.
func (r *Redactor) Redact(s string) string {
	if len(s) == 0 || len(r.rules) == 0 {
		return s
	}

	type replacement struct {
		start int
		end   int
		text  string
	}

	var reps []replacement
	for _, rule := range r.rules {
		for _, m := range rule.Detect(s) {
			if r.isAllowed(m.Value) {
				continue
			}
			reps = append(reps, replacement{
				start: m.Start,
				end:   m.End,
				text:  rule.Replacement(m),
			})
		}
	}

	if len(reps) == 0 {
		return s
	}

	sort.Slice(reps, func(i, j int) bool {
		if reps[i].start != reps[j].start {
			return reps[i].start < reps[j].start
		}
		return reps[i].end > reps[j].end
	})

	var result []byte
	pos := 0
	for _, rep := range reps {
		if rep.start < pos {
			continue // overlaps with a previous replacement
		}
		result = append(result, s[pos:rep.start]...)
		result = append(result, rep.text...)
		pos = rep.end
	}
	result = append(result, s[pos:]...)
	return string(result)
}

func (r *Redactor) isAllowed(value string) bool {
	for _, re := range r.allowlist {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
