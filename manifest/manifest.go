// Package manifest manages the run index file (manifest.json) written into
// every screening output directory. It records which run produced the
// directory and every file the run wrote.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileName is the manifest's name inside an output directory.
const FileName = "manifest.json"

// ErrOutputExists is returned by CheckOutput when a directory already holds
// screening output.
var ErrOutputExists = errors.New("output directory already holds a screening run")

// Entry describes one output file, relative to the output directory.
type Entry struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"` // summary, pages, annotated, log, report, json
	Bytes int64  `json:"bytes"`
}

// Manifest is the index of one run's output directory.
type Manifest struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	Input       string    `json:"input"`
	Transcripts int       `json:"transcripts"`
	Flagged     int       `json:"flagged"`
	Entries     []Entry   `json:"entries"`
}

// ReadFile reads a manifest from disk. Returns an empty Manifest if the file
// does not exist.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &m, nil
}

// Upsert adds or replaces an entry matched by Path. Entries stay sorted by
// path.
func (m *Manifest) Upsert(entry Entry) {
	entry.Path = filepath.ToSlash(entry.Path)
	for i, e := range m.Entries {
		if e.Path == entry.Path {
			m.Entries[i] = entry
			m.sort()
			return
		}
	}
	m.Entries = append(m.Entries, entry)
	m.sort()
}

// Count returns how many entries have the given kind.
func (m *Manifest) Count(kind string) int {
	n := 0
	for _, e := range m.Entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (m *Manifest) sort() {
	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].Path < m.Entries[j].Path
	})
}

// WriteFile writes the manifest to disk atomically.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return WriteAtomic(path, data)
}

// WriteAtomic writes data to path through a temporary file and rename, so a
// reader never sees a partial file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}

// outputs are the files whose presence marks dir as used by a previous run.
var outputs = []string{FileName, "summary.csv", "pages.csv", "run.log"}

// CheckOutput returns ErrOutputExists when dir already holds screening
// output. A missing or empty dir is fine.
func CheckOutput(dir string) error {
	for _, name := range outputs {
		_, err := os.Stat(filepath.Join(dir, name))
		if err == nil {
			return fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, dir)
		}
		if !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
