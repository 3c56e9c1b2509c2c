package screen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/manifest"
	"github.com/pkwap/pkscreen/reconcile"
	"github.com/pkwap/pkscreen/render"
	"github.com/pkwap/pkscreen/render/annotated"
	"github.com/pkwap/pkscreen/render/csv"
)

func TestScreen(t *testing.T) {
	in := writeCorpus(t)
	out := filepath.Join(t.TempDir(), "out")
	r, _ := newRunner(t, 2)

	rep, err := r.Screen(context.Background(), Options{Input: in, OutDir: out, HTML: true, JSON: true})
	require.NoError(t, err)
	assert.Len(t, rep.RunID, 36)
	assert.Len(t, rep.Summaries, 3)

	m, err := manifest.ReadFile(filepath.Join(out, manifest.FileName))
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, m.RunID)
	assert.Equal(t, 3, m.Transcripts)
	assert.Equal(t, 1, m.Flagged)
	assert.Equal(t, 3, m.Count("annotated"))
	for _, kind := range []string{"summary", "pages", "log", "report", "json"} {
		assert.Equal(t, 1, m.Count(kind), kind)
	}
	for _, e := range m.Entries {
		info, err := os.Stat(filepath.Join(out, filepath.FromSlash(e.Path)))
		require.NoError(t, err, e.Path)
		assert.Equal(t, e.Bytes, info.Size(), e.Path)
	}

	rows, err := csv.LoadDir(out, 1)
	require.NoError(t, err)
	assert.NoError(t, reconcile.Validate(rows, 1))
	assert.Equal(t, rep.Summaries[0].Student, rows[0].Student)

	runLog, err := os.ReadFile(filepath.Join(out, LogFile))
	require.NoError(t, err)
	assert.Contains(t, string(runLog), "msg=unresolved_speaker transcript=P02-G1-S1 page=0 line=1")
	assert.Contains(t, string(runLog), "msg=flagged transcript=P02-G1-S1 status=high_unknown")
}

func TestScreenRefusesExistingOutput(t *testing.T) {
	in := writeCorpus(t)
	out := t.TempDir()
	r, _ := newRunner(t, 1)

	_, err := r.Screen(context.Background(), Options{Input: in, OutDir: out})
	require.NoError(t, err)

	_, err = r.Screen(context.Background(), Options{Input: in, OutDir: out})
	assert.ErrorIs(t, err, manifest.ErrOutputExists)

	// --force replaces the previous annotated transcripts
	stale := filepath.Join(out, AnnotatedDir, "OLD__annotated.txt")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	_, err = r.Screen(context.Background(), Options{Input: in, OutDir: out, Force: true})
	require.NoError(t, err)
	_, err = os.Stat(stale)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScreenDeterministicCSV(t *testing.T) {
	in := writeCorpus(t)
	r, _ := newRunner(t, 4)

	read := func(dir string) string {
		var b strings.Builder
		for _, name := range []string{csv.SummaryFile, csv.PagesFile} {
			data, err := os.ReadFile(filepath.Join(dir, name))
			require.NoError(t, err)
			b.Write(data)
		}
		return b.String()
	}

	a, b := t.TempDir(), t.TempDir()
	_, err := r.Screen(context.Background(), Options{Input: in, OutDir: a})
	require.NoError(t, err)
	_, err = r.Screen(context.Background(), Options{Input: in, OutDir: b})
	require.NoError(t, err)
	assert.Equal(t, read(a), read(b))
}

func TestWriteRedactsAnnotated(t *testing.T) {
	r, _ := newRunner(t, 1)
	res := r.Process(core.NewSource("P05-G1-S1.txt", "Student: write to jane@uni.edu\nAI: noted\n"))
	rep := r.Report("run-2", "in", time.Time{}, 0, []Result{res})

	out := t.TempDir()
	_, err := r.Write(Options{OutDir: out, Redact: true}, rep, []Result{res})
	require.NoError(t, err)

	data, err := os.ReadFile(annotated.Path(filepath.Join(out, AnnotatedDir), "P05-G1-S1"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[STUDENT] Student: write to [EMAIL]")
	assert.NotContains(t, string(data), "jane@uni.edu")

	// counts come from the unredacted text
	summary, err := os.ReadFile(filepath.Join(out, csv.SummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "P05-G1-S1.txt,3,1,4,75.0,0,ok,")
}

func TestWriteRunLog(t *testing.T) {
	rep := &render.Report{
		RunID: "run-3",
		Summaries: []core.TranscriptSummary{
			{ID: "P01", Status: core.StatusError, Note: "boom"},
		},
		Anomalies: []core.Anomaly{
			{Kind: core.AnomalyTranscriptError, Transcript: "P01", Page: -1, Detail: "boom"},
			{Kind: core.AnomalyMalformedPageMarker, Transcript: "P02", Page: 2, Line: 14, Detail: "page 2 follows page 3"},
		},
	}
	var buf bytes.Buffer
	WriteRunLog(&buf, rep)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "msg=run id=run-3")
	assert.Equal(t, "level=error msg=transcript_error transcript=P01 detail=boom", lines[1])
	assert.Equal(t, `level=warn msg=malformed_page_marker transcript=P02 page=2 line=14 detail="page 2 follows page 3"`, lines[2])
	assert.Contains(t, lines[3], "msg=flagged transcript=P01 status=error note=boom")
}
