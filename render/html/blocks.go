package html

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark"

	"github.com/pkwap/pkscreen/compact"
	"github.com/pkwap/pkscreen/render"
	"github.com/pkwap/pkscreen/render/csv"
)

// renderMarkdown converts markdown to HTML wrapped in a prose container.
func renderMarkdown(md goldmark.Markdown, src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("goldmark convert: %w", err)
	}
	return template.HTML(`<div class="prose dark:prose-invert max-w-none">` + buf.String() + `</div>`), nil
}

// flaggedMarkdown builds a GFM table of the transcripts that are not ok.
// It returns "" when nothing is flagged.
func flaggedMarkdown(rep *render.Report) string {
	flagged := rep.Flagged()
	if len(flagged) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("| Transcript | Student | AI | Unknown | % student | Status | Note |\n")
	b.WriteString("|---|---:|---:|---:|---:|---|---|\n")
	for _, s := range flagged {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %s | `%s` | %s |\n",
			cell(s.ID), s.Student, s.AI, s.Unknown,
			formatPct(s.PctStudent, rep.Precision), s.Status, cell(s.Note))
	}
	return b.String()
}

// csvMarkdown wraps the report's summary.csv in a fenced csv block.
func csvMarkdown(rep *render.Report) (string, error) {
	var buf bytes.Buffer
	if err := csv.WriteSummaries(&buf, rep.Summaries, rep.Precision); err != nil {
		return "", err
	}
	return "```" + fenceLang("csv") + "\n" + buf.String() + "```\n", nil
}

// fenceLang returns name when chroma has a lexer for it, else plain text.
func fenceLang(name string) string {
	if lexers.Get(name) != nil {
		return name
	}
	return "text"
}

// cell escapes text for a GFM table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	return s
}

func gap(skipped int) string {
	if skipped == 0 {
		return ""
	}
	return compact.GapSummary(skipped)
}
