package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkwap/pkscreen/core"
)

func TestValidate(t *testing.T) {
	good := summary("P01", 30, 70, page(0, 10, 40), page(1, 20, 30))

	tests := []struct {
		name    string
		rows    func() []core.TranscriptSummary
		wantErr string
	}{
		{
			name: "consistent",
			rows: func() []core.TranscriptSummary { return []core.TranscriptSummary{good} },
		},
		{
			name: "empty",
			rows: func() []core.TranscriptSummary { return nil },
		},
		{
			name: "error rows are skipped",
			rows: func() []core.TranscriptSummary {
				return []core.TranscriptSummary{aggregateError("P02")}
			},
		},
		{
			name: "duplicate id",
			rows: func() []core.TranscriptSummary {
				return []core.TranscriptSummary{good, good}
			},
			wantErr: "P01: invariant violation: duplicate transcript",
		},
		{
			name: "pages disagree with totals",
			rows: func() []core.TranscriptSummary {
				s := good
				s.Student = 31
				s.PctStudent = core.PctStudent(31, 70, 1)
				return []core.TranscriptSummary{s}
			},
			wantErr: "pages sum to student=30",
		},
		{
			name: "pct disagrees with counts",
			rows: func() []core.TranscriptSummary {
				s := good
				s.PctStudent = 31
				return []core.TranscriptSummary{s}
			},
			wantErr: "pct_student 31, counts give 30",
		},
		{
			name: "page pct disagrees with counts",
			rows: func() []core.TranscriptSummary {
				s := summary("P01", 10, 40, page(0, 10, 40))
				s.Pages[0].PctStudent = 50
				return []core.TranscriptSummary{s}
			},
			wantErr: "P01 page 0: invariant violation: pct_student 50, counts give 20",
		},
		{
			name: "pct out of range",
			rows: func() []core.TranscriptSummary {
				s := summary("P01", 10, 40)
				s.PctStudent = 120
				return []core.TranscriptSummary{s}
			},
			wantErr: "out of [0, 100]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.rows(), 1)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
			assert.True(t, errors.Is(err, core.ErrInvariantViolation))
		})
	}
}

func TestValidateRoundingSlack(t *testing.T) {
	// 1/3 rounds to 33.3; a hand-typed 33.33 is within half a unit.
	s := summary("P01", 1, 2)
	s.PctStudent = 33.33
	assert.NoError(t, Validate([]core.TranscriptSummary{s}, 1))
}

func TestValidateJoinsAllViolations(t *testing.T) {
	a := summary("P01", 10, 40)
	a.PctStudent = 90
	b := summary("P02", 10, 40)
	b.PctStudent = 90
	err := Validate([]core.TranscriptSummary{a, b}, 1)
	assert.ErrorContains(t, err, "P01:")
	assert.ErrorContains(t, err, "P02:")
}

func aggregateError(id string) core.TranscriptSummary {
	return core.TranscriptSummary{ID: id, Filename: id + ".txt", Status: core.StatusError, Note: "boom"}
}
