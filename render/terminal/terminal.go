// Package terminal renders run reports, comparisons and run history as
// ANSI-styled tables.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"github.com/pkwap/pkscreen/aggregate"
	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/reconcile"
	"github.com/pkwap/pkscreen/render"
	"github.com/pkwap/pkscreen/store"
)

const defaultWidth = 100

// Renderer prints reports to the terminal.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
	// Now fixes the reference time for relative timestamps. Zero means
	// time.Now.
	Now time.Time
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes the run header, totals and one row per transcript to w.
// Rows that are not ok get their note on the line below.
func (r *Renderer) Render(w io.Writer, rep *render.Report) error {
	width := r.termWidth()

	r.writeHeader(w, rep)
	fmt.Fprintln(w)
	writeTotals(w, rep)

	writeSeparator(w, width)
	cols := []column{
		{title: "TRANSCRIPT"},
		{title: "PAGES", right: true},
		{title: "STUDENT", right: true},
		{title: "AI", right: true},
		{title: "UNKNOWN", right: true},
		{title: "%STUDENT", right: true},
		{title: "STATUS"},
	}
	rows := make([][]string, len(rep.Summaries))
	for i, s := range rep.Summaries {
		rows[i] = []string{
			s.ID,
			strconv.Itoa(len(s.Pages)),
			formatNumber(s.Student),
			formatNumber(s.AI),
			formatNumber(s.Unknown),
			aggregate.FormatFloat(s.PctStudent, rep.Precision),
			string(s.Status),
		}
	}
	fitColumns(cols, rows, width)
	fmt.Fprintln(w, headerRow(cols))

	for i, s := range rep.Summaries {
		cells := rows[i]
		styled := make([]string, len(cells))
		for j, c := range cells {
			styled[j] = cols[j].pad(c)
		}
		styled[2] = styleStudent.Render(styled[2])
		styled[3] = styleAI.Render(styled[3])
		styled[4] = styleUnknown.Render(styled[4])
		styled[6] = statusStyle(s.Status).Render(styled[6])
		fmt.Fprintln(w, strings.Join(styled, "  "))
		if s.Status != core.StatusOK && s.Note != "" {
			fmt.Fprintln(w, "  "+styleNote.Render(truncate(s.Note, width-2)))
		}
	}

	writeSeparator(w, width)
	fmt.Fprintln(w, styleMeta.Render(summarizeAnomalies(rep.Anomalies)))
	return nil
}

func (r *Renderer) termWidth() int {
	if r.Width > 0 {
		return r.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

func (r *Renderer) now() time.Time {
	if r.Now.IsZero() {
		return time.Now()
	}
	return r.Now
}

// writeHeader renders the run title and metadata.
func (r *Renderer) writeHeader(w io.Writer, rep *render.Report) {
	title := "Screening report"
	if rep.RunID != "" {
		title = "Run " + shortID(rep.RunID)
	}
	fmt.Fprintln(w, styleTitle.Render(title))

	var parts []string
	if rep.Input != "" {
		parts = append(parts, rep.Input)
	}
	if !rep.StartedAt.IsZero() {
		parts = append(parts, core.RelativeTime(rep.StartedAt, r.now()))
	}
	if rep.Elapsed > 0 {
		parts = append(parts, "took "+formatDuration(rep.Elapsed))
	}
	if len(parts) > 0 {
		fmt.Fprintln(w, styleMeta.Render(strings.Join(parts, "  ")))
	}
}

// writeTotals renders corpus counters in two rows: values then labels.
func writeTotals(w io.Writer, rep *render.Report) {
	student, ai, unknown := rep.Totals()
	type stat struct {
		value string
		label string
	}
	stats := []stat{
		{formatNumber(len(rep.Summaries)), "TRANSCRIPTS"},
		{formatNumber(student), "STUDENT"},
		{formatNumber(ai), "AI"},
		{formatNumber(unknown), "UNKNOWN"},
		{aggregate.FormatFloat(core.PctStudent(student, ai, rep.Precision), rep.Precision), "%STUDENT"},
		{formatNumber(len(rep.Flagged())), "FLAGGED"},
	}

	var values, labels []string
	for _, s := range stats {
		colWidth := max(len(s.value), len(s.label))
		values = append(values, fmt.Sprintf("%*s", colWidth, s.value))
		labels = append(labels, fmt.Sprintf("%-*s", colWidth, s.label))
	}

	fmt.Fprintln(w, "  "+styleStat.Render(strings.Join(values, "    ")))
	fmt.Fprintln(w, "  "+styleStatLabel.Render(strings.Join(labels, "    ")))
}

// RenderComparison writes transcript rows and discrepant page rows of a
// comparison, followed by the match tally.
func (r *Renderer) RenderComparison(w io.Writer, rows []reconcile.Comparison, opts reconcile.Options) error {
	width := r.termWidth()
	cols := []column{
		{title: "TRANSCRIPT"},
		{title: "PAGE", right: true},
		{title: "%A", right: true},
		{title: "%B", right: true},
		{title: "DELTA", right: true},
		{title: "CLASS"},
		{title: "NOTE"},
	}

	var shown []reconcile.Comparison
	var cells [][]string
	for _, c := range rows {
		if c.Page != reconcile.AllPages && c.Class == reconcile.ClassMatch {
			continue
		}
		page := "all"
		if c.Page != reconcile.AllPages {
			page = strconv.Itoa(c.Page)
		}
		row := []string{c.ID, page, "-", "-", "-", string(c.Class), c.Note}
		if c.A.Present {
			row[2] = aggregate.FormatFloat(c.A.PctStudent, opts.Precision)
		}
		if c.B.Present {
			row[3] = aggregate.FormatFloat(c.B.PctStudent, opts.Precision)
		}
		if c.A.Present && c.B.Present {
			row[4] = signed(aggregate.FormatFloat(c.Delta, opts.Precision))
		}
		shown = append(shown, c)
		cells = append(cells, row)
	}
	fitColumns(cols, cells, width)
	fmt.Fprintln(w, headerRow(cols))

	for i, c := range shown {
		styled := make([]string, len(cells[i]))
		for j, cell := range cells[i] {
			styled[j] = cols[j].pad(cell)
		}
		styled[5] = classStyle(c.Class).Render(styled[5])
		styled[6] = styleNote.Render(styled[6])
		fmt.Fprintln(w, strings.TrimRight(strings.Join(styled, "  "), " "))
	}

	matches, discrepancies := reconcile.Tally(rows)
	writeSeparator(w, width)
	fmt.Fprintln(w, styleMeta.Render(fmt.Sprintf("%d match, %d discrepancy (tolerance %s pp)",
		matches, discrepancies, aggregate.FormatFloat(opts.Tolerance, opts.Precision))))
	return nil
}

// RenderHistory writes one row per stored run, newest first.
func (r *Renderer) RenderHistory(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, styleMeta.Render("no runs recorded"))
		return nil
	}
	width := r.termWidth()
	cols := []column{
		{title: "RUN"},
		{title: "STARTED"},
		{title: "TRANSCRIPTS", right: true},
		{title: "FLAGGED", right: true},
		{title: "TOOK", right: true},
		{title: "INPUT"},
	}
	cells := make([][]string, len(runs))
	for i, run := range runs {
		cells[i] = []string{
			shortID(run.ID),
			core.RelativeTime(run.StartedAt, r.now()),
			formatNumber(run.Transcripts),
			formatNumber(run.Flagged),
			formatDuration(run.Elapsed),
			run.Input,
		}
	}
	fitColumns(cols, cells, width)
	fmt.Fprintln(w, headerRow(cols))
	for i, run := range runs {
		styled := make([]string, len(cells[i]))
		for j, cell := range cells[i] {
			styled[j] = cols[j].pad(cell)
		}
		styled[0] = styleTitle.Render(styled[0])
		styled[1] = styleMeta.Render(styled[1])
		if run.Flagged > 0 {
			styled[3] = styleWarn.Render(styled[3])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(styled, "  "), " "))
	}
	return nil
}

// column is one table column; width is filled in by fitColumns.
type column struct {
	title string
	right bool
	width int
}

func (c column) pad(s string) string {
	s = truncate(s, c.width)
	if c.right {
		return fmt.Sprintf("%*s", c.width+len(s)-lipgloss.Width(s), s)
	}
	return fmt.Sprintf("%-*s", c.width+len(s)-lipgloss.Width(s), s)
}

// fitColumns sizes every column to its widest cell, then shrinks the first
// and last columns until the row fits in width.
func fitColumns(cols []column, rows [][]string, width int) {
	for i := range cols {
		cols[i].width = lipgloss.Width(cols[i].title)
		for _, row := range rows {
			cols[i].width = max(cols[i].width, lipgloss.Width(row[i]))
		}
	}
	total := func() int {
		n := 2 * (len(cols) - 1)
		for _, c := range cols {
			n += c.width
		}
		return n
	}
	for _, i := range []int{len(cols) - 1, 0} {
		if over := total() - width; over > 0 {
			cols[i].width = max(cols[i].width-over, min(cols[i].width, 8))
		}
	}
}

func headerRow(cols []column) string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = c.pad(c.title)
	}
	return styleHeader.Render(strings.TrimRight(strings.Join(cells, "  "), " "))
}

// writeSeparator renders a horizontal rule.
func writeSeparator(w io.Writer, width int) {
	n := min(width, 72)
	fmt.Fprintln(w, styleSeparator.Render(strings.Repeat("─", n)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens text to maxWidth, appending "..." if needed.
// Multi-line text is reduced to the first line.
func truncate(s string, maxWidth int) string {
	if maxWidth < 4 {
		maxWidth = 4
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if lipgloss.Width(s) <= maxWidth {
		return s
	}

	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}
