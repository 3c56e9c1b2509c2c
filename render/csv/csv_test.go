package csv

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/reconcile"
	"github.com/pkwap/pkscreen/render"
)

func summaries() []core.TranscriptSummary {
	return []core.TranscriptSummary{
		{
			ID: "P01-G8-S4", Filename: "P01-G8-S4.txt",
			Student: 1, AI: 15, Unknown: 2, PctStudent: 6.3,
			Status: core.StatusLowStudent, Note: "unknown=11.1%;heuristic=0.0%",
			Pages: []core.PageSummary{
				{Index: 0, Student: 1, AI: 5, PctStudent: 16.7},
				{Index: 1, AI: 10, Unknown: 2},
			},
		},
		{
			ID: "P02-G1-S1", Filename: "P02-G1-S1.txt",
			Status: core.StatusError, Note: "input read failure: permission denied",
		},
	}
}

func TestWriteSummaries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SummaryRenderer{}.Render(&buf, &render.Report{Summaries: summaries(), Precision: 1}))

	want := "filename,student_words,ai_words,total,pct_student,unknown_words,status,note\n" +
		"P01-G8-S4.txt,1,15,16,6.3,2,low_student,unknown=11.1%;heuristic=0.0%\n" +
		"P02-G1-S1.txt,0,0,0,0.0,0,error,input read failure: permission denied\n"
	assert.Equal(t, want, buf.String())
}

func TestWritePages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PagesRenderer{}.Render(&buf, &render.Report{Summaries: summaries(), Precision: 1}))

	want := "filename,page,student_words,ai_words,total,pct_student,unknown_words\n" +
		"P01-G8-S4.txt,0,1,5,6,16.7,0\n" +
		"P01-G8-S4.txt,1,0,10,10,0.0,2\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteComparison(t *testing.T) {
	rows := []reconcile.Comparison{
		{
			ID: "P01", Filename: "P01.txt", Page: reconcile.AllPages,
			A:     reconcile.Side{Present: true, Student: 10, AI: 90, PctStudent: 10},
			B:     reconcile.Side{Present: true, Student: 25, AI: 75, PctStudent: 25},
			Delta: 15, AbsDelta: 15, Class: reconcile.ClassDiscrepancy,
		},
		{
			ID: "P01", Filename: "P01.txt", Page: 0,
			A:     reconcile.Side{Present: true, Student: 10, AI: 90, PctStudent: 10},
			Class: reconcile.ClassDiscrepancy, Note: "missing in b",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteComparison(&buf, rows, 1))

	want := strings.Join(CompareHeader, ",") + "\n" +
		"P01.txt,all,10,90,10.0,25,75,25.0,15.0,15.0,discrepancy,\n" +
		"P01.txt,0,10,90,10.0,,,,,,discrepancy,missing in b\n"
	assert.Equal(t, want, buf.String())
}

func TestReadSummaries(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []core.TranscriptSummary
		wantErr string
	}{
		{
			name: "round trip columns",
			input: "filename,student_words,ai_words,total,pct_student,unknown_words,status,note\n" +
				"P02.txt,3,1,4,75.0,0,ok,\n" +
				"P01.txt,1,15,16,6.3,2,low_student,unknown=11.1%\n",
			want: []core.TranscriptSummary{
				{ID: "P01", Filename: "P01.txt", Student: 1, AI: 15, Unknown: 2, PctStudent: 6.3, Status: core.StatusLowStudent, Note: "unknown=11.1%"},
				{ID: "P02", Filename: "P02.txt", Student: 3, AI: 1, PctStudent: 75, Status: core.StatusOK},
			},
		},
		{
			name:  "manual sheet with reordered columns and no pct",
			input: "\ufeffAI_Words, Filename, Student_Words\n12,P03-G1-S1.txt,4\n,,\n",
			want: []core.TranscriptSummary{
				{ID: "P03-G1-S1", Filename: "P03-G1-S1.txt", Student: 4, AI: 12, PctStudent: 25, Status: core.StatusOK},
			},
		},
		{
			name:    "missing column",
			input:   "filename,student_words\nP01.txt,3\n",
			wantErr: "missing columns ai_words",
		},
		{
			name:    "bad integer",
			input:   "filename,student_words,ai_words\nP01.txt,three,1\n",
			wantErr: `row 2: student_words "three" is not an integer`,
		},
		{
			name:    "total disagrees",
			input:   "filename,student_words,ai_words,total\nP01.txt,3,1,5\n",
			wantErr: "total 5 is not student 3 + ai 1",
		},
		{
			name:    "empty",
			input:   "",
			wantErr: "empty file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadSummaries(strings.NewReader(tt.input), 1)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadSummariesInvariant(t *testing.T) {
	_, err := ReadSummaries(strings.NewReader("filename,student_words,ai_words,total\nP01.txt,3,1,5\n"), 1)
	assert.True(t, errors.Is(err, core.ErrInvariantViolation))
}

func TestLoadDirRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rep := &render.Report{Summaries: summaries(), Precision: 1}

	for name, r := range map[string]render.Renderer{SummaryFile: SummaryRenderer{}, PagesFile: PagesRenderer{}} {
		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf, rep))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
	}

	got, err := Load(dir, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "P01-G8-S4", got[0].ID)
	assert.Equal(t, 18, got[0].Words())
	require.Len(t, got[0].Pages, 2)
	assert.Equal(t, 16.7, got[0].Pages[0].PctStudent)
	assert.Equal(t, 2, got[0].Pages[1].Unknown)
	assert.NoError(t, got[0].Validate())

	assert.Equal(t, core.StatusError, got[1].Status)
	assert.Empty(t, got[1].Pages)
	assert.NoError(t, reconcile.Validate(got, 1))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.csv")
	require.NoError(t, os.WriteFile(path, []byte("filename,student_words,ai_words\nP01.txt,1,3\n"), 0o644))

	got, err := Load(path, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 25.0, got[0].PctStudent)
}

func TestLoadDirWithoutPages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SummaryFile), []byte("filename,student_words,ai_words\nP01.txt,1,3\n"), 0o644))

	got, err := LoadDir(dir, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Pages)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), 1)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
