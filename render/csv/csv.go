// Package csv reads and writes the screening CSV files: summary.csv,
// pages.csv and compare.csv. Readers accept the columns in any order so a
// hand-kept count sheet with the same headers can be loaded too.
package csv

import (
	gocsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkwap/pkscreen/aggregate"
	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/reconcile"
	"github.com/pkwap/pkscreen/render"
)

// File names written into a run's output directory.
const (
	SummaryFile = "summary.csv"
	PagesFile   = "pages.csv"
	CompareFile = "compare.csv"
)

var (
	SummaryHeader = []string{"filename", "student_words", "ai_words", "total", "pct_student", "unknown_words", "status", "note"}
	PagesHeader   = []string{"filename", "page", "student_words", "ai_words", "total", "pct_student", "unknown_words"}
	CompareHeader = []string{
		"filename", "page", "student_a", "ai_a", "pct_a", "student_b", "ai_b", "pct_b",
		"delta_pct", "abs_delta_pct", "classification", "note",
	}
)

// allPages is the page cell of a transcript-level comparison row.
const allPages = "all"

// SummaryRenderer writes a report's summary.csv.
type SummaryRenderer struct{}

// Render implements render.Renderer.
func (SummaryRenderer) Render(w io.Writer, r *render.Report) error {
	return WriteSummaries(w, r.Summaries, r.Precision)
}

// PagesRenderer writes a report's pages.csv.
type PagesRenderer struct{}

// Render implements render.Renderer.
func (PagesRenderer) Render(w io.Writer, r *render.Report) error {
	return WritePages(w, r.Summaries, r.Precision)
}

// WriteSummaries writes one row per transcript in the given order.
func WriteSummaries(w io.Writer, rows []core.TranscriptSummary, precision int) error {
	cw := gocsv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	for _, s := range rows {
		rec := []string{
			s.Filename,
			strconv.Itoa(s.Student),
			strconv.Itoa(s.AI),
			strconv.Itoa(s.Total()),
			aggregate.FormatFloat(s.PctStudent, precision),
			strconv.Itoa(s.Unknown),
			string(s.Status),
			s.Note,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePages writes one row per page of every transcript. Error rows have no
// pages and are skipped.
func WritePages(w io.Writer, rows []core.TranscriptSummary, precision int) error {
	cw := gocsv.NewWriter(w)
	if err := cw.Write(PagesHeader); err != nil {
		return err
	}
	for _, s := range rows {
		for _, p := range s.Pages {
			rec := []string{
				s.Filename,
				strconv.Itoa(p.Index),
				strconv.Itoa(p.Student),
				strconv.Itoa(p.AI),
				strconv.Itoa(p.Total()),
				aggregate.FormatFloat(p.PctStudent, precision),
				strconv.Itoa(p.Unknown),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteComparison writes compare.csv. Cells of a side missing from one run
// are left empty.
func WriteComparison(w io.Writer, rows []reconcile.Comparison, precision int) error {
	cw := gocsv.NewWriter(w)
	if err := cw.Write(CompareHeader); err != nil {
		return err
	}
	for _, c := range rows {
		page := allPages
		if c.Page != reconcile.AllPages {
			page = strconv.Itoa(c.Page)
		}
		rec := []string{c.Filename, page}
		rec = append(rec, side(c.A, precision)...)
		rec = append(rec, side(c.B, precision)...)
		if c.A.Present && c.B.Present {
			rec = append(rec, aggregate.FormatFloat(c.Delta, precision), aggregate.FormatFloat(c.AbsDelta, precision))
		} else {
			rec = append(rec, "", "")
		}
		rec = append(rec, string(c.Class), c.Note)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func side(s reconcile.Side, precision int) []string {
	if !s.Present {
		return []string{"", "", ""}
	}
	return []string{strconv.Itoa(s.Student), strconv.Itoa(s.AI), aggregate.FormatFloat(s.PctStudent, precision)}
}

// table is a CSV file read into rows addressed by column name.
type table struct {
	name string
	cols map[string]int
	rows [][]string
}

func readTable(r io.Reader, name string, required ...string) (*table, error) {
	cr := gocsv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty file", name)
	}

	t := &table{name: name, cols: make(map[string]int), rows: records[1:]}
	for i, h := range records[0] {
		t.cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range required {
		if _, ok := t.cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("read %s: missing columns %s", name, strings.Join(missing, ", "))
	}
	return t, nil
}

func (t *table) get(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// atoi parses an integer cell; empty cells are 0.
func (t *table) atoi(row []string, n int, col string) (int, error) {
	v := t.get(row, col)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: %s %q is not an integer", t.name, n, col, v)
	}
	return i, nil
}

// pct parses a percentage cell, computing it from the counts when empty.
func (t *table) pct(row []string, n int, student, ai, precision int) (float64, error) {
	v := t.get(row, "pct_student")
	if v == "" {
		return core.PctStudent(student, ai, precision), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: pct_student %q is not a number", t.name, n, v)
	}
	return f, nil
}

// checkTotal rejects a total column that disagrees with student + ai.
func (t *table) checkTotal(row []string, n, student, ai int) error {
	if t.get(row, "total") == "" {
		return nil
	}
	total, err := t.atoi(row, n, "total")
	if err != nil {
		return err
	}
	if total != student+ai {
		return fmt.Errorf("%s row %d: %w: total %d is not student %d + ai %d",
			t.name, n, core.ErrInvariantViolation, total, student, ai)
	}
	return nil
}

// ReadSummaries reads summary.csv rows. Only filename, student_words and
// ai_words are required; pct_student is derived when absent and status
// defaults to ok.
func ReadSummaries(r io.Reader, precision int) ([]core.TranscriptSummary, error) {
	t, err := readTable(r, SummaryFile, "filename", "student_words", "ai_words")
	if err != nil {
		return nil, err
	}

	var out []core.TranscriptSummary
	var errs []error
	for i, row := range t.rows {
		n := i + 2
		filename := t.get(row, "filename")
		if filename == "" {
			continue
		}
		s := core.TranscriptSummary{
			ID:       stem(filename),
			Filename: filename,
			Status:   core.Status(t.get(row, "status")),
			Note:     t.get(row, "note"),
		}
		if s.Status == "" {
			s.Status = core.StatusOK
		}
		if s.Student, err = t.atoi(row, n, "student_words"); err != nil {
			errs = append(errs, err)
			continue
		}
		if s.AI, err = t.atoi(row, n, "ai_words"); err != nil {
			errs = append(errs, err)
			continue
		}
		if s.Unknown, err = t.atoi(row, n, "unknown_words"); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := t.checkTotal(row, n, s.Student, s.AI); err != nil {
			errs = append(errs, err)
			continue
		}
		if s.PctStudent, err = t.pct(row, n, s.Student, s.AI, precision); err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, s)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	aggregate.Sort(out)
	return out, nil
}

// ReadPages reads pages.csv rows grouped by transcript id, in file order.
func ReadPages(r io.Reader, precision int) (map[string][]core.PageSummary, error) {
	t, err := readTable(r, PagesFile, "filename", "page", "student_words", "ai_words")
	if err != nil {
		return nil, err
	}

	out := make(map[string][]core.PageSummary)
	var errs []error
	for i, row := range t.rows {
		n := i + 2
		filename := t.get(row, "filename")
		if filename == "" {
			continue
		}
		var p core.PageSummary
		if p.Index, err = t.atoi(row, n, "page"); err != nil {
			errs = append(errs, err)
			continue
		}
		if p.Student, err = t.atoi(row, n, "student_words"); err != nil {
			errs = append(errs, err)
			continue
		}
		if p.AI, err = t.atoi(row, n, "ai_words"); err != nil {
			errs = append(errs, err)
			continue
		}
		if p.Unknown, err = t.atoi(row, n, "unknown_words"); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := t.checkTotal(row, n, p.Student, p.AI); err != nil {
			errs = append(errs, err)
			continue
		}
		if p.PctStudent, err = t.pct(row, n, p.Student, p.AI, precision); err != nil {
			errs = append(errs, err)
			continue
		}
		id := stem(filename)
		out[id] = append(out[id], p)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// Load reads a summary set from path. A directory is read as a run output
// directory (summary.csv plus pages.csv when present); a file is read as a
// summary CSV on its own.
func Load(path string, precision int) ([]core.TranscriptSummary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path, precision)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	defer f.Close()
	return ReadSummaries(f, precision)
}

// LoadDir reads summary.csv from a run output directory and attaches the
// pages from pages.csv when that file exists.
func LoadDir(dir string, precision int) ([]core.TranscriptSummary, error) {
	f, err := os.Open(filepath.Join(dir, SummaryFile))
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	defer f.Close()

	rows, err := ReadSummaries(f, precision)
	if err != nil {
		return nil, err
	}

	pf, err := os.Open(filepath.Join(dir, PagesFile))
	if errors.Is(err, os.ErrNotExist) {
		return rows, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	defer pf.Close()

	pages, err := ReadPages(pf, precision)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Pages = pages[rows[i].ID]
	}
	return rows, nil
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
