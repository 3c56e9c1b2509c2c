// Package config holds the screening configuration: speaker labels, phrase
// lists, page and turn markers, math triggers and thresholds. A Config is
// plain data loaded from YAML; Compile turns it into the immutable Rules value
// every pipeline component reads.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the user-editable configuration.
type Config struct {
	Labels        Labels   `yaml:"labels"`
	AIPhrases     []string `yaml:"ai_phrases"`     // regexps anchored at line start
	Preambles     []string `yaml:"preambles"`      // lead-in phrases stripped from AI lines
	IgnorePhrases []string `yaml:"ignore_phrases"` // lines containing one count zero
	PageMarkers   []string `yaml:"page_markers"`   // regexps; first group is the page number
	TurnBreaks    []string `yaml:"turn_breaks"`    // regexps for lines that end a turn
	MathChars     string   `yaml:"math_chars"`     // characters tokenized individually in math
	MathOperators string   `yaml:"math_operators"` // characters that start a math region
	MathPatterns  []string `yaml:"math_patterns"`  // regexps that start a math region

	ShortAnswerMaxWords int     `yaml:"short_answer_max_words"`
	InlineProseMaxWords int     `yaml:"inline_prose_max_words"`
	UnknownThreshold    float64 `yaml:"unknown_threshold"`
	LowStudentPct       float64 `yaml:"low_student_pct"`
	Tolerance           float64 `yaml:"tolerance"`
	CJKDivisor          int     `yaml:"cjk_divisor"`
	Precision           int     `yaml:"precision"`
	Workers             int     `yaml:"workers"` // 0 means one per CPU

	Redact Redact `yaml:"redact"`
}

// Redact lists what --redact masks in annotated output beyond the built-in
// personal data rules.
type Redact struct {
	Names     []string `yaml:"names,omitempty"`
	Allowlist []string `yaml:"allowlist,omitempty"`
}

// Labels lists the explicit speaker labels for each side. Matching is
// case-insensitive and multiword labels match any run of whitespace.
type Labels struct {
	AI      []string `yaml:"ai"`
	Student []string `yaml:"student"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Labels: Labels{
			AI: []string{
				"AI", "Assistant", "ChatGPT", "GPT", "DeepSeek", "Teacher",
				"Tutor", "Instructor", "Bot", "System", "T", "A", "D",
			},
			Student: []string{
				"Student", "User", "You", "Learner", "Person", "Me",
				"S", "U", "P", "Q", "My answer", "Student answer",
			},
		},
		AIPhrases: []string{
			`(?:hello|hi)[!,]?\s+i(?:'|’)?m\b`,
			`i(?:'|’)?m an ai\b`,
			`i am an ai\b`,
			`as an ai\b`,
			`i(?: am|'m|’m) (?:your tutor|the teacher)\b`,
			`let me explain\b`,
			`i will explain\b`,
			`here(?: is|'s|’s) an explanation\b`,
			`you are an?\s`,
			`your goal is\b`,
			`step\s*1\s*:`,
		},
		Preambles: []string{
			"sure", "certainly", "of course", "here is", "here's", "here’s",
			"let's", "let’s", "great question", "absolutely", "happy to",
			"i'd be happy", "i’d be happy", "i can help", "i can explain",
		},
		IgnorePhrases: []string{
			"you are a personality-based ai teacher generator",
			"step 1: personality test",
			"internal teacher profile",
			"the activity (to be revealed step by step)",
			"rule reminder:",
			"step 2 follow-up",
			"historical context (brief & structured)",
		},
		PageMarkers: []string{
			`(?i)^\s*[-=]{2,}\s*Page\s*(\d+)\s*[-=]{2,}\s*$`,
			`(?i)^\s*Page\s*(\d+)\s*$`,
		},
		TurnBreaks: []string{
			`^\s*(?:-{3,}|\*{3,}|_{3,}|={3,})\s*$`,
		},
		MathChars:     "^_+-=*/%<>×÷()[]{}≈≃≅≡∼∑∏√∞°·→←≤≥±∫∂≔⟂⊥∥",
		MathOperators: "^=+*×÷≈≃≅≡∼∑∏√∞·→←≤≥±∫∂≔⟂⊥∥<>",
		MathPatterns: []string{
			`\\[A-Za-z]+`,
			`\$[^$\s]`,
		},
		ShortAnswerMaxWords: 8,
		InlineProseMaxWords: 25,
		UnknownThreshold:    0.10,
		LowStudentPct:       10,
		Tolerance:           10,
		CJKDivisor:          2,
		Precision:           1,
	}
}

// Load reads the configuration at path over the defaults. A missing file
// yields the defaults; an empty path does too.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// WorkerCount resolves Workers, mapping 0 to the number of CPUs.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Validate checks values that Compile cannot catch on its own.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Labels.AI) == 0 || len(c.Labels.Student) == 0 {
		errs = append(errs, errors.New("labels: both ai and student need at least one label"))
	}
	seen := make(map[string]string)
	for _, l := range c.Labels.AI {
		seen[labelKey(l)] = "ai"
	}
	for _, l := range c.Labels.Student {
		if seen[labelKey(l)] == "ai" {
			errs = append(errs, fmt.Errorf("labels: %q is listed for both ai and student", l))
		}
	}
	if c.ShortAnswerMaxWords < 0 || c.InlineProseMaxWords < 0 {
		errs = append(errs, errors.New("word limits must not be negative"))
	}
	if c.UnknownThreshold < 0 || c.UnknownThreshold > 1 {
		errs = append(errs, fmt.Errorf("unknown_threshold %v out of [0, 1]", c.UnknownThreshold))
	}
	if c.LowStudentPct < 0 || c.LowStudentPct > 100 {
		errs = append(errs, fmt.Errorf("low_student_pct %v out of [0, 100]", c.LowStudentPct))
	}
	if c.Tolerance < 0 || c.Tolerance > 100 {
		errs = append(errs, fmt.Errorf("tolerance %v out of [0, 100]", c.Tolerance))
	}
	if c.CJKDivisor < 1 {
		errs = append(errs, fmt.Errorf("cjk_divisor must be at least 1, got %d", c.CJKDivisor))
	}
	if c.Precision < 0 || c.Precision > 6 {
		errs = append(errs, fmt.Errorf("precision %d out of [0, 6]", c.Precision))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	return errors.Join(errs...)
}
