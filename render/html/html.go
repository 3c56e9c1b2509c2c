// Package html renders a screening run as a standalone HTML report styled
// with Tailwind CSS v4 (CDN), with markdown tables and highlighted CSV via
// goldmark + chroma.
package html

import (
	"fmt"
	"html/template"
	"io"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/render"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// Renderer renders a run report to a standalone HTML page.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

// New creates an HTML Renderer with goldmark configured for GFM and syntax highlighting.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // inline styles for standalone pages
				),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
		),
	)

	tmpl := template.Must(
		template.New("report.html").
			Funcs(funcMap()).
			ParseFS(content, "templates/*.html"),
	)

	return &Renderer{md: md, tmpl: tmpl}
}

// pageData is the top-level template data passed to report.html.
type pageData struct {
	Report    *render.Report
	Title     string
	Stats     []stat
	Rows      []rowData
	Flagged   template.HTML // markdown table of flagged transcripts
	CSV       template.HTML // highlighted summary.csv
	Anomalies []core.Anomaly
	Reviews   []reviewData
}

type stat struct {
	Value string
	Label string
}

// rowData is one transcript row of the summary table.
type rowData struct {
	Summary  core.TranscriptSummary
	Pct      string
	BarWidth string // css width of the student share bar
}

type reviewData struct {
	ID       string
	Excerpts []excerptData
}

type excerptData struct {
	Page  int
	Gap   string
	Lines []core.Line
}

// Render writes the report as a complete HTML page to w.
func (r *Renderer) Render(w io.Writer, rep *render.Report) error {
	flagged, err := renderMarkdown(r.md, flaggedMarkdown(rep))
	if err != nil {
		return fmt.Errorf("render flagged table: %w", err)
	}
	src, err := csvMarkdown(rep)
	if err != nil {
		return fmt.Errorf("render summary csv: %w", err)
	}
	csvHTML, err := renderMarkdown(r.md, src)
	if err != nil {
		return fmt.Errorf("render summary csv: %w", err)
	}

	title := "Screening report"
	if rep.RunID != "" {
		title = "Screening run " + rep.RunID
	}

	data := pageData{
		Report:    rep,
		Title:     title,
		Stats:     stats(rep),
		Flagged:   flagged,
		CSV:       csvHTML,
		Anomalies: rep.Anomalies,
	}
	for _, s := range rep.Summaries {
		pct := formatPct(s.PctStudent, rep.Precision)
		data.Rows = append(data.Rows, rowData{Summary: s, Pct: pct, BarWidth: pct + "%"})
	}
	for _, rv := range rep.Reviews {
		rd := reviewData{ID: rv.ID}
		for _, ex := range rv.Excerpts {
			rd.Excerpts = append(rd.Excerpts, excerptData{Page: ex.Page, Gap: gap(ex.Skipped), Lines: ex.Lines})
		}
		data.Reviews = append(data.Reviews, rd)
	}
	return r.tmpl.ExecuteTemplate(w, "report.html", data)
}

func stats(rep *render.Report) []stat {
	student, ai, unknown := rep.Totals()
	return []stat{
		{formatNumber(len(rep.Summaries)), "Transcripts"},
		{formatNumber(student), "Student"},
		{formatNumber(ai), "AI"},
		{formatNumber(unknown), "Unknown"},
		{formatPct(core.PctStudent(student, ai, rep.Precision), rep.Precision) + "%", "Student share"},
		{formatNumber(len(rep.Flagged())), "Flagged"},
	}
}
