// Package screen runs the screening pipeline over a corpus: each transcript
// is read, segmented, attributed, tokenized and aggregated on its own worker,
// then a single writer step produces every output file.
package screen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/pkwap/pkscreen/aggregate"
	"github.com/pkwap/pkscreen/attribute"
	"github.com/pkwap/pkscreen/compact"
	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/reader"
	"github.com/pkwap/pkscreen/render"
	"github.com/pkwap/pkscreen/segment"
	"github.com/pkwap/pkscreen/tokenize"
)

// ErrNoTranscripts is returned when the input directory holds nothing to
// screen.
var ErrNoTranscripts = errors.New("no transcripts")

// ErrDuplicateID is returned when two input files share a stem, which would
// give two transcripts the same id.
var ErrDuplicateID = errors.New("duplicate transcript id")

// Result is what one transcript produced. Transcript is nil when the
// transcript failed; Summary is then an error row.
type Result struct {
	Path       string
	Transcript *core.Transcript
	Summary    core.TranscriptSummary
	Anomalies  []core.Anomaly
	Excerpts   []compact.Excerpt
	Err        error
}

// Runner screens transcripts. It holds only immutable state and is safe for
// concurrent use.
type Runner struct {
	cfg     *config.Config
	rules   *config.Rules
	readers *reader.Registry
	review  *compact.Compactor
	log     *log.Logger

	seg *segment.Segmenter
	att *attribute.Attributor
	tok *tokenize.Tokenizer
	agg *aggregate.Aggregator
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for progress and per-transcript failures.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithReview sets which lines are collected as review excerpts.
func WithReview(cfg compact.Config) Option {
	return func(r *Runner) { r.review = compact.New(cfg) }
}

// New returns a Runner for cfg, which must already be valid. rules is cfg
// compiled.
func New(cfg *config.Config, rules *config.Rules, readers *reader.Registry, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		rules:   rules,
		readers: readers,
		review:  compact.New(compact.Config{Context: 1, MaxLines: 40}),
		log:     log.Default(),
		seg:     segment.New(rules),
		att:     attribute.New(rules),
		tok:     tokenize.New(rules),
		agg:     aggregate.New(rules),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Process screens one source end to end. Failures are isolated into the
// result: the summary becomes an error row and a transcript_error anomaly is
// recorded.
func (r *Runner) Process(src *core.Source) Result {
	res := Result{Path: src.Path}

	t, anomalies := r.seg.Segment(src)
	t, err := core.Chain(t, r.att, r.tok)
	if err != nil {
		return r.fail(res, src.ID, src.Filename, err)
	}
	s, anomalies := r.agg.Summarize(t, anomalies)
	if err := s.Validate(); err != nil {
		return r.fail(res, src.ID, src.Filename, err)
	}

	res.Transcript = t
	res.Summary = s
	res.Anomalies = anomalies
	res.Excerpts = r.review.Excerpts(t)
	return res
}

// ProcessFile reads path and screens it.
func (r *Runner) ProcessFile(path string) Result {
	src, err := r.readers.ReadFile(path)
	if err != nil {
		ns := core.NewSource(path, "")
		return r.fail(Result{Path: path}, ns.ID, ns.Filename, err)
	}
	return r.Process(src)
}

func (r *Runner) fail(res Result, id, filename string, err error) Result {
	r.log.Error("transcript failed", "transcript", id, "err", err)
	res.Err = err
	res.Summary = aggregate.ErrorSummary(id, filename, err)
	res.Anomalies = []core.Anomaly{{
		Kind: core.AnomalyTranscriptError, Transcript: id, Page: -1,
		Detail: strings.ReplaceAll(err.Error(), "\n", " "),
	}}
	return res
}

// Run screens paths with at most cfg.WorkerCount() transcripts in flight.
// Each worker fills its own slot, so results come back in path order. When
// ctx is cancelled no new transcripts are started and ctx's error is
// returned once running ones finish.
func (r *Runner) Run(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.WorkerCount())
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.ProcessFile(path)
			r.log.Debug("screened", "transcript", results[i].Summary.ID, "status", results[i].Summary.Status)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		if c := strings.Compare(a.Summary.ID, b.Summary.ID); c != 0 {
			return c
		}
		return strings.Compare(a.Summary.Filename, b.Summary.Filename)
	})
	return results, nil
}

// Report assembles the run report from sorted results.
func (r *Runner) Report(runID, input string, started time.Time, elapsed time.Duration, results []Result) *render.Report {
	rep := &render.Report{
		RunID:     runID,
		StartedAt: started,
		Elapsed:   elapsed,
		Input:     input,
		Precision: r.rules.Precision,
		Summaries: make([]core.TranscriptSummary, 0, len(results)),
	}
	for _, res := range results {
		rep.Summaries = append(rep.Summaries, res.Summary)
		rep.Anomalies = append(rep.Anomalies, res.Anomalies...)
		if len(res.Excerpts) > 0 {
			rep.Reviews = append(rep.Reviews, render.Review{ID: res.Summary.ID, Excerpts: res.Excerpts})
		}
	}
	return rep
}

// Discover resolves input to the transcript files to screen: the supported
// files directly inside a directory, or a single file. Failures here are
// corpus-level and abort the run.
func (r *Runner) Discover(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if !info.IsDir() {
		if !r.readers.Supports(input) {
			return nil, fmt.Errorf("%s: %w", input, reader.ErrUnsupported)
		}
		return []string{input}, nil
	}

	paths, err := r.readers.Discover(input)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s (supported: %s)", ErrNoTranscripts, input, strings.Join(r.readers.Extensions(), " "))
	}
	if err := checkIDs(paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// checkIDs rejects paths whose file stems collide.
func checkIDs(paths []string) error {
	seen := make(map[string]string, len(paths))
	var errs []error
	for _, p := range paths {
		src := core.NewSource(p, "")
		if first, ok := seen[src.ID]; ok {
			errs = append(errs, fmt.Errorf("%w %q: %s and %s (rename one)",
				ErrDuplicateID, src.ID, filepath.Base(first), src.Filename))
			continue
		}
		seen[src.ID] = p
	}
	return errors.Join(errs...)
}
