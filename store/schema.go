package store

const schema = `
PRAGMA foreign_keys = ON;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

-- One row per screening or recount run
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,      -- RFC 3339, UTC
    elapsed_ms INTEGER NOT NULL DEFAULT 0,
    input TEXT NOT NULL DEFAULT '',
    precision INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

-- Transcript summaries of a run
CREATE TABLE IF NOT EXISTS summaries (
    run_id TEXT NOT NULL,
    transcript_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    student_words INTEGER NOT NULL,
    ai_words INTEGER NOT NULL,
    unknown_words INTEGER NOT NULL,
    heuristic_words INTEGER NOT NULL,
    pct_student REAL NOT NULL,
    status TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    student_turns INTEGER NOT NULL DEFAULT 0,
    ai_turns INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, transcript_id),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

-- Page summaries of a run
CREATE TABLE IF NOT EXISTS pages (
    run_id TEXT NOT NULL,
    transcript_id TEXT NOT NULL,
    page_index INTEGER NOT NULL,
    student_words INTEGER NOT NULL,
    ai_words INTEGER NOT NULL,
    unknown_words INTEGER NOT NULL,
    heuristic_words INTEGER NOT NULL,
    pct_student REAL NOT NULL,
    high_unknown BOOLEAN NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, transcript_id, page_index),
    FOREIGN KEY (run_id, transcript_id) REFERENCES summaries(run_id, transcript_id) ON DELETE CASCADE
);

-- Anomalies found during a run, in report order
CREATE TABLE IF NOT EXISTS anomalies (
    anomaly_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    transcript_id TEXT NOT NULL,
    page INTEGER NOT NULL,
    line INTEGER NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_anomalies_run ON anomalies(run_id);
`
