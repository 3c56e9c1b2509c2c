// Package redact masks personal data in transcript text before it is written
// out for reviewers. Counting always happens on the original text; only the
// annotated output is redacted.
package redact

import (
	"regexp"
	"strings"
)

// Rule detects sensitive data in a string and provides a replacement.
type Rule interface {
	Name() string
	Kind() string
	Detect(s string) []Match
	Replacement(m Match) string
}

// Match represents a detected occurrence within a string.
type Match struct {
	Start int
	End   int
	Value string
}

type regexRule struct {
	name    string
	kind    string
	pattern *regexp.Regexp
}

func (r *regexRule) Name() string { return r.name }
func (r *regexRule) Kind() string { return r.kind }

func (r *regexRule) Detect(s string) []Match {
	locs := r.pattern.FindAllStringIndex(s, -1)
	matches := make([]Match, len(locs))
	for i, loc := range locs {
		matches[i] = Match{Start: loc[0], End: loc[1], Value: s[loc[0]:loc[1]]}
	}
	return matches
}

// Replacement is a single bracketed word so a redacted line tokenizes to
// roughly the same count as the original.
func (r *regexRule) Replacement(_ Match) string {
	return "[" + strings.ToUpper(r.name) + "]"
}

// PIIRules returns the built-in personal data rules.
func PIIRules() []Rule {
	return []Rule{
		&regexRule{
			name:    "email",
			kind:    "pii",
			pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		},
		&regexRule{
			name:    "phone",
			kind:    "pii",
			pattern: regexp.MustCompile(`(?:\+\d{1,3}[\s\-]?)?\(?\d{3}\)?[\s\-]?\d{3}[\s\-]?\d{4}`),
		},
		&regexRule{
			name:    "ipv4",
			kind:    "pii",
			pattern: regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
		},
		&regexRule{
			name:    "student_id",
			kind:    "pii",
			pattern: regexp.MustCompile(`(?i)\b(?:student\s*(?:id|no\.?|number)\s*[:#]?\s*)[A-Z0-9-]{4,}\b`),
		},
	}
}

// SecretRules returns rules for credentials pasted into a chat.
func SecretRules() []Rule {
	return []Rule{
		&regexRule{
			name:    "api_key",
			kind:    "secret",
			pattern: regexp.MustCompile(`(?:sk-[a-zA-Z0-9]{32,}|ghp_[a-zA-Z0-9]{36,}|AKIA[0-9A-Z]{16})`),
		},
		&regexRule{
			name:    "jwt",
			kind:    "secret",
			pattern: regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_.+/=]+`),
		},
	}
}

// NameRule masks each of the given names as a whole word, case-insensitively.
// It returns nil when names is empty.
func NameRule(names []string) Rule {
	var alts []string
	for _, n := range names {
		if f := strings.Fields(n); len(f) > 0 {
			for i := range f {
				f[i] = regexp.QuoteMeta(f[i])
			}
			alts = append(alts, strings.Join(f, `\s+`))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return &regexRule{
		name:    "name",
		kind:    "pii",
		pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`),
	}
}
