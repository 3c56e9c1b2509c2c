// Screens a small built-in corpus and writes the HTML report to stdout.
// Usage: go run ./render/html/cmd/example > example.html
package main

import (
	"maps"
	"os"
	"slices"
	"time"

	"github.com/pkwap/pkscreen/aggregate"
	"github.com/pkwap/pkscreen/attribute"
	"github.com/pkwap/pkscreen/compact"
	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/render"
	htmlrender "github.com/pkwap/pkscreen/render/html"
	"github.com/pkwap/pkscreen/segment"
	"github.com/pkwap/pkscreen/tokenize"
)

var corpus = map[string]string{
	"P01-G8-S4.txt": `Tutor: Welcome back. Today we solve x^2 + 2x + 1 = 7.
Student: ok
AI: Sure, here is a hint:
  1. move 7 to the left
  2. factor the left side
  3. take the square root of both sides
This gives (x + 1)^2 = 7, so x = -1 ± √7.
Would you like to check the answer by substitution?
`,
	"P02-G1-S1.txt": `Student: I tried factoring but got stuck at x^2 - 5x + 6
AI: Good start. Which two numbers multiply to 6 and add to -5?
Student: -2 and -3 so (x-2)(x-3) and x is 2 or 3
AI: Exactly right.

--- Page 2 ---
Student: can we do one with fractions next, like 1/2 x + 3 = 4
AI: Sure. Subtract 3 from both sides first.
`,
	"P03-G2-S7.txt": `hello
what is a derivative
A derivative measures how a function changes as its input changes.
For f(x) = x^2 the derivative is 2x.
`,
}

func main() {
	cfg := config.Default()
	rules := config.MustCompile(cfg)
	compactor := compact.New(compact.Config{Context: 1, MaxLines: 20})

	start := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	rep := &render.Report{
		RunID:     "0b6e3f52-7c1d-4a8e-9f0a-2d5b1c7e9a44",
		StartedAt: start,
		Elapsed:   1800 * time.Millisecond,
		Input:     "corpus/",
		Precision: cfg.Precision,
	}

	for _, name := range slices.Sorted(maps.Keys(corpus)) {
		src := core.NewSource(name, corpus[name])
		tr, anomalies := segment.New(rules).Segment(src)
		tr, err := core.Chain(tr, attribute.New(rules), tokenize.New(rules))
		if err != nil {
			rep.Summaries = append(rep.Summaries, aggregate.ErrorSummary(src.ID, name, err))
			continue
		}
		s, anomalies := aggregate.New(rules).Summarize(tr, anomalies)
		rep.Summaries = append(rep.Summaries, s)
		rep.Anomalies = append(rep.Anomalies, anomalies...)
		if ex := compactor.Excerpts(tr); len(ex) > 0 {
			rep.Reviews = append(rep.Reviews, render.Review{ID: tr.ID, Excerpts: ex})
		}
	}

	if err := htmlrender.New().Render(os.Stdout, rep); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
