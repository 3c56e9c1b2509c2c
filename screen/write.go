package screen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/manifest"
	"github.com/pkwap/pkscreen/redact"
	"github.com/pkwap/pkscreen/render"
	"github.com/pkwap/pkscreen/render/annotated"
	"github.com/pkwap/pkscreen/render/csv"
	htmlrender "github.com/pkwap/pkscreen/render/html"
	jsonrender "github.com/pkwap/pkscreen/render/json"
)

// Output file names inside the output directory.
const (
	LogFile      = "run.log"
	ReportFile   = "report.html"
	JSONFile     = "report.json"
	AnnotatedDir = "annotated"
)

// Options controls one screening run.
type Options struct {
	Input  string // transcript directory or single file
	OutDir string
	Force  bool // overwrite a previous run's output
	Redact bool // mask personal data in annotated transcripts
	HTML   bool // write report.html
	JSON   bool // write report.json
}

// Screen screens every transcript under opts.Input and writes the outputs to
// opts.OutDir. Per-transcript failures become error rows; only corpus-level
// problems are returned as errors.
func (r *Runner) Screen(ctx context.Context, opts Options) (*render.Report, error) {
	if !opts.Force {
		if err := manifest.CheckOutput(opts.OutDir); err != nil {
			return nil, err
		}
	}
	paths, err := r.Discover(opts.Input)
	if err != nil {
		return nil, err
	}
	r.log.Info("screening", "input", opts.Input, "transcripts", len(paths), "workers", r.cfg.WorkerCount())

	started := time.Now()
	results, err := r.Run(ctx, paths)
	if err != nil {
		return nil, err
	}
	rep := r.Report(uuid.NewString(), opts.Input, started, time.Since(started), results)

	if _, err := r.Write(opts, rep, results); err != nil {
		return nil, err
	}
	return rep, nil
}

// Write is the single writer step: summary.csv, pages.csv, annotated
// transcripts, run.log, the optional reports and finally manifest.json.
func (r *Runner) Write(opts Options, rep *render.Report, results []Result) (*manifest.Manifest, error) {
	w := &writer{
		dir: opts.OutDir,
		m: &manifest.Manifest{
			RunID:       rep.RunID,
			StartedAt:   rep.StartedAt.UTC(),
			Input:       rep.Input,
			Transcripts: len(rep.Summaries),
			Flagged:     len(rep.Flagged()),
		},
	}
	if opts.Force {
		if err := os.RemoveAll(filepath.Join(opts.OutDir, AnnotatedDir)); err != nil {
			return nil, fmt.Errorf("clear annotated transcripts: %w", err)
		}
	}

	w.render(csv.SummaryFile, "summary", csv.SummaryRenderer{}, rep)
	w.render(csv.PagesFile, "pages", csv.PagesRenderer{}, rep)

	var red *redact.Redactor
	if opts.Redact {
		red = redact.New(redact.Config{
			PII:       true,
			Secrets:   true,
			Names:     r.cfg.Redact.Names,
			Allowlist: r.cfg.Redact.Allowlist,
		})
	}
	ar := annotated.New(red)
	for _, res := range results {
		if res.Transcript == nil {
			continue
		}
		w.write(annotated.Path(AnnotatedDir, res.Transcript.ID), "annotated", func(out io.Writer) error {
			return ar.Render(out, res.Transcript)
		})
	}

	w.write(LogFile, "log", func(out io.Writer) error {
		WriteRunLog(out, rep)
		return nil
	})
	if opts.HTML {
		w.render(ReportFile, "report", htmlrender.New(), rep)
	}
	if opts.JSON {
		w.render(JSONFile, "json", jsonrender.Renderer{Indent: true}, rep)
	}
	if w.err != nil {
		return nil, w.err
	}

	if err := w.m.WriteFile(filepath.Join(opts.OutDir, manifest.FileName)); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	r.log.Info("wrote outputs", "dir", opts.OutDir, "files", len(w.m.Entries)+1)
	return w.m, nil
}

// writer writes output files and records them in the manifest. The first
// error stops further writes.
type writer struct {
	dir string
	m   *manifest.Manifest
	err error
}

func (w *writer) render(rel, kind string, rr render.Renderer, rep *render.Report) {
	w.write(rel, kind, func(out io.Writer) error { return rr.Render(out, rep) })
}

func (w *writer) write(rel, kind string, fn func(io.Writer) error) {
	if w.err != nil {
		return
	}
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		w.err = fmt.Errorf("render %s: %w", rel, err)
		return
	}
	if err := manifest.WriteAtomic(filepath.Join(w.dir, rel), buf.Bytes()); err != nil {
		w.err = fmt.Errorf("write %s: %w", rel, err)
		return
	}
	w.m.Upsert(manifest.Entry{Path: rel, Kind: kind, Bytes: int64(buf.Len())})
}

// WriteRunLog writes the run header, every anomaly and every flagged
// transcript as logfmt lines.
func WriteRunLog(w io.Writer, rep *render.Report) {
	l := log.NewWithOptions(w, log.Options{Formatter: log.LogfmtFormatter, Level: log.DebugLevel})
	l.Info("run", "id", rep.RunID, "input", rep.Input, "transcripts", len(rep.Summaries), "flagged", len(rep.Flagged()))

	for _, a := range rep.Anomalies {
		kv := []any{"transcript", a.Transcript}
		if a.Page >= 0 {
			kv = append(kv, "page", a.Page)
		}
		if a.Line > 0 {
			kv = append(kv, "line", a.Line)
		}
		if a.Detail != "" {
			kv = append(kv, "detail", a.Detail)
		}
		if a.Kind == core.AnomalyTranscriptError {
			l.Error(string(a.Kind), kv...)
		} else {
			l.Warn(string(a.Kind), kv...)
		}
	}
	for _, s := range rep.Flagged() {
		l.Info("flagged", "transcript", s.ID, "status", s.Status, "note", s.Note)
	}
}
