package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkwap/pkscreen/core"
)

func summary(id string, student, ai int, pages ...core.PageSummary) core.TranscriptSummary {
	return core.TranscriptSummary{
		ID: id, Filename: id + ".txt",
		Student: student, AI: ai,
		PctStudent: core.PctStudent(student, ai, 1),
		Status:     core.StatusOK,
		Pages:      pages,
	}
}

func page(i, student, ai int) core.PageSummary {
	return core.PageSummary{Index: i, Student: student, AI: ai, PctStudent: core.PctStudent(student, ai, 1)}
}

var opts = Options{Tolerance: 10, Precision: 1}

func TestCompareClassification(t *testing.T) {
	tests := []struct {
		name      string
		a, b      []core.TranscriptSummary
		wantClass Class
		wantDelta float64
		wantNote  string
	}{
		{
			name:      "identical",
			a:         []core.TranscriptSummary{summary("P01", 20, 80)},
			b:         []core.TranscriptSummary{summary("P01", 20, 80)},
			wantClass: ClassMatch,
		},
		{
			name:      "within tolerance",
			a:         []core.TranscriptSummary{summary("P01", 20, 80)},
			b:         []core.TranscriptSummary{summary("P01", 25, 75)},
			wantClass: ClassMatch,
			wantDelta: 5,
		},
		{
			name:      "exactly at tolerance",
			a:         []core.TranscriptSummary{summary("P01", 20, 80)},
			b:         []core.TranscriptSummary{summary("P01", 30, 70)},
			wantClass: ClassMatch,
			wantDelta: 10,
		},
		{
			name:      "just past tolerance",
			a:         []core.TranscriptSummary{summary("P01", 20, 80)},
			b:         []core.TranscriptSummary{summary("P01", 301, 699)},
			wantClass: ClassDiscrepancy,
			wantDelta: 10.1,
		},
		{
			name:      "beyond tolerance",
			a:         []core.TranscriptSummary{summary("P01", 40, 60)},
			b:         []core.TranscriptSummary{summary("P01", 20, 80)},
			wantClass: ClassDiscrepancy,
			wantDelta: -20,
		},
		{
			name:      "missing in b",
			a:         []core.TranscriptSummary{summary("P01", 20, 80)},
			wantClass: ClassDiscrepancy,
			wantNote:  "missing in b",
		},
		{
			name:      "missing in a",
			b:         []core.TranscriptSummary{summary("P01", 20, 80)},
			wantClass: ClassDiscrepancy,
			wantNote:  "missing in a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Compare(tt.a, tt.b, opts)
			require.Len(t, rows, 1)
			r := rows[0]
			assert.Equal(t, "P01", r.ID)
			assert.Equal(t, "P01.txt", r.Filename)
			assert.Equal(t, AllPages, r.Page)
			assert.Equal(t, tt.wantClass, r.Class)
			assert.InDelta(t, tt.wantDelta, r.Delta, 1e-9)
			assert.InDelta(t, abs(tt.wantDelta), r.AbsDelta, 1e-9)
			assert.Equal(t, tt.wantNote, r.Note)
		})
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestCompareErrorRowIsDiscrepancy(t *testing.T) {
	a := summary("P01", 0, 0)
	a.Status = core.StatusError
	b := summary("P01", 0, 0)

	rows := Compare([]core.TranscriptSummary{a}, []core.TranscriptSummary{b}, opts)
	require.Len(t, rows, 1)
	assert.Equal(t, ClassDiscrepancy, rows[0].Class)
	assert.Equal(t, "error in a", rows[0].Note)
}

func TestComparePages(t *testing.T) {
	a := []core.TranscriptSummary{summary("P01", 30, 70, page(0, 10, 40), page(1, 20, 30))}
	b := []core.TranscriptSummary{summary("P01", 31, 79, page(0, 10, 40), page(1, 1, 9), page(2, 20, 30))}

	rows := Compare(a, b, opts)
	require.Len(t, rows, 4)

	assert.Equal(t, AllPages, rows[0].Page)
	assert.Equal(t, ClassMatch, rows[0].Class)

	assert.Equal(t, 0, rows[1].Page)
	assert.Equal(t, ClassMatch, rows[1].Class)

	assert.Equal(t, 1, rows[2].Page)
	assert.Equal(t, ClassDiscrepancy, rows[2].Class)
	assert.InDelta(t, -30.0, rows[2].Delta, 1e-9)

	assert.Equal(t, 2, rows[3].Page)
	assert.Equal(t, "missing in a", rows[3].Note)
}

func TestCompareOrdersByID(t *testing.T) {
	a := []core.TranscriptSummary{summary("P03", 1, 1), summary("P01", 1, 1)}
	b := []core.TranscriptSummary{summary("P02", 1, 1), summary("P01", 1, 1)}

	rows := Compare(a, b, opts)
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"P01", "P02", "P03"}, ids)
}

func TestTally(t *testing.T) {
	a := []core.TranscriptSummary{
		summary("P01", 20, 80, page(0, 20, 80)),
		summary("P02", 50, 50),
		summary("P03", 10, 10),
	}
	b := []core.TranscriptSummary{
		summary("P01", 20, 80, page(0, 20, 80)),
		summary("P02", 10, 90),
	}
	matches, discrepancies := Tally(Compare(a, b, opts))
	assert.Equal(t, 1, matches)
	assert.Equal(t, 2, discrepancies)
}
