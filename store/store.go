// Package store keeps the history of screening runs in SQLite so a later run
// can be compared against an earlier one without keeping its CSV files.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/render"
)

// DefaultName is the database file name under the user config directory.
const DefaultName = "history.db"

var (
	// ErrRunNotFound means no stored run matches the requested id.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousRun means an id prefix matches more than one stored run.
	ErrAmbiguousRun = errors.New("ambiguous run id")
)

// Store is a run history database.
type Store struct {
	db *sql.DB
}

// Run is the listing entry of a stored run.
type Run struct {
	ID          string
	StartedAt   time.Time
	Elapsed     time.Duration
	Input       string
	Transcripts int
	Flagged     int
}

// DefaultPath returns the history database path under the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "pkscreen", DefaultName), nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Open opens or creates the database at path and initialises its schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.InitSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a run report in one transaction. A report without a run id
// gets a new one, which is written back to r and returned.
func (s *Store) SaveRun(ctx context.Context, r *render.Report) (string, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, elapsed_ms, input, precision) VALUES (?, ?, ?, ?, ?)`,
		r.RunID, r.StartedAt.UTC().Format(time.RFC3339Nano), r.Elapsed.Milliseconds(), r.Input, r.Precision,
	); err != nil {
		return "", fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	for _, sum := range r.Summaries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO summaries (run_id, transcript_id, filename, student_words, ai_words, unknown_words,
				heuristic_words, pct_student, status, note, student_turns, ai_turns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, sum.ID, sum.Filename, sum.Student, sum.AI, sum.Unknown,
			sum.Heuristic, sum.PctStudent, string(sum.Status), sum.Note, sum.StudentTurns, sum.AITurns,
		); err != nil {
			return "", fmt.Errorf("insert summary %s: %w", sum.ID, err)
		}
		for _, p := range sum.Pages {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pages (run_id, transcript_id, page_index, student_words, ai_words, unknown_words,
					heuristic_words, pct_student, high_unknown)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				r.RunID, sum.ID, p.Index, p.Student, p.AI, p.Unknown, p.Heuristic, p.PctStudent, p.HighUnknown,
			); err != nil {
				return "", fmt.Errorf("insert page %s/%d: %w", sum.ID, p.Index, err)
			}
		}
	}

	for _, a := range r.Anomalies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO anomalies (run_id, kind, transcript_id, page, line, detail) VALUES (?, ?, ?, ?, ?, ?)`,
			r.RunID, string(a.Kind), a.Transcript, a.Page, a.Line, a.Detail,
		); err != nil {
			return "", fmt.Errorf("insert anomaly: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", r.RunID, err)
	}
	return r.RunID, nil
}

// ListRuns returns stored runs newest first. A limit of 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT r.run_id, r.started_at, r.elapsed_ms, r.input,
			COUNT(s.transcript_id),
			COALESCE(SUM(CASE WHEN s.status != 'ok' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN summaries s ON s.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.started_at DESC, r.run_id`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			started string
			elapsed int64
		)
		if err := rows.Scan(&run.ID, &started, &elapsed, &run.Input, &run.Transcripts, &run.Flagged); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s: bad started_at %q: %w", run.ID, started, err)
		}
		run.Elapsed = time.Duration(elapsed) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Resolve maps a full run id or a unique prefix of one to the full id.
func (s *Store) Resolve(ctx context.Context, prefix string) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id FROM runs WHERE substr(run_id, 1, length(?)) = ? ORDER BY run_id LIMIT 2`, prefix, prefix)
	if err != nil {
		return "", fmt.Errorf("resolve run %s: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch {
	case prefix == "" || len(ids) == 0:
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, prefix)
	case len(ids) > 1 && ids[0] != prefix:
		return "", fmt.Errorf("%w: %q", ErrAmbiguousRun, prefix)
	}
	return ids[0], nil
}

// LoadRun reads a stored run back as a report, summaries sorted by id and
// pages by index.
func (s *Store) LoadRun(ctx context.Context, id string) (*render.Report, error) {
	id, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	r := &render.Report{RunID: id}
	var (
		started string
		elapsed int64
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT started_at, elapsed_ms, input, precision FROM runs WHERE run_id = ?`, id,
	).Scan(&started, &elapsed, &r.Input, &r.Precision)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("run %s: bad started_at %q: %w", id, started, err)
	}
	r.Elapsed = time.Duration(elapsed) * time.Millisecond

	if r.Summaries, err = s.summaries(ctx, id); err != nil {
		return nil, err
	}
	if r.Anomalies, err = s.anomalies(ctx, id); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) summaries(ctx context.Context, id string) ([]core.TranscriptSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transcript_id, filename, student_words, ai_words, unknown_words, heuristic_words,
			pct_student, status, note, student_turns, ai_turns
		FROM summaries WHERE run_id = ? ORDER BY transcript_id`, id)
	if err != nil {
		return nil, fmt.Errorf("load summaries: %w", err)
	}
	defer rows.Close()

	var out []core.TranscriptSummary
	for rows.Next() {
		var (
			sum    core.TranscriptSummary
			status string
		)
		if err := rows.Scan(&sum.ID, &sum.Filename, &sum.Student, &sum.AI, &sum.Unknown, &sum.Heuristic,
			&sum.PctStudent, &status, &sum.Note, &sum.StudentTurns, &sum.AITurns); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Status = core.Status(status)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pages, err := s.pages(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Pages = pages[out[i].ID]
	}
	return out, nil
}

func (s *Store) pages(ctx context.Context, id string) (map[string][]core.PageSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transcript_id, page_index, student_words, ai_words, unknown_words, heuristic_words,
			pct_student, high_unknown
		FROM pages WHERE run_id = ? ORDER BY transcript_id, page_index`, id)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]core.PageSummary)
	for rows.Next() {
		var (
			tid string
			p   core.PageSummary
		)
		if err := rows.Scan(&tid, &p.Index, &p.Student, &p.AI, &p.Unknown, &p.Heuristic,
			&p.PctStudent, &p.HighUnknown); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		out[tid] = append(out[tid], p)
	}
	return out, rows.Err()
}

func (s *Store) anomalies(ctx context.Context, id string) ([]core.Anomaly, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, transcript_id, page, line, detail
		FROM anomalies WHERE run_id = ? ORDER BY anomaly_id`, id)
	if err != nil {
		return nil, fmt.Errorf("load anomalies: %w", err)
	}
	defer rows.Close()

	var out []core.Anomaly
	for rows.Next() {
		var (
			a    core.Anomaly
			kind string
		)
		if err := rows.Scan(&kind, &a.Transcript, &a.Page, &a.Line, &a.Detail); err != nil {
			return nil, fmt.Errorf("scan anomaly: %w", err)
		}
		a.Kind = core.AnomalyKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and everything stored with it.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	id, err := s.Resolve(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}
