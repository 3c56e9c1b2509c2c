package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPctStudent(t *testing.T) {
	tests := []struct {
		name      string
		student   int
		ai        int
		precision int
		want      float64
	}{
		{"zero denominator", 0, 0, 1, 0},
		{"all student", 10, 0, 1, 100},
		{"all ai", 0, 10, 1, 0},
		{"half rounds away from zero", 1, 15, 1, 6.3},
		{"one third", 1, 2, 1, 33.3},
		{"two decimals", 1, 2, 2, 33.33},
		{"no decimals", 1, 7, 0, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PctStudent(tt.student, tt.ai, tt.precision))
		})
	}
}

func TestTranscriptSummaryValidate(t *testing.T) {
	ok := TranscriptSummary{
		ID: "P01-G8-S4",
		Pages: []PageSummary{
			{Index: 0, Student: 5, AI: 5, Unknown: 1, PctStudent: 50},
			{Index: 1, Student: 0, AI: 0, PctStudent: 0},
		},
		Student: 5, AI: 5, Unknown: 1, PctStudent: 50, Status: StatusOK,
	}
	require.NoError(t, ok.Validate())

	tests := []struct {
		name   string
		mutate func(s *TranscriptSummary)
	}{
		{"student mismatch", func(s *TranscriptSummary) { s.Student = 6 }},
		{"unknown mismatch", func(s *TranscriptSummary) { s.Unknown = 0 }},
		{"pct above 100", func(s *TranscriptSummary) { s.PctStudent = 101 }},
		{"page pct with zero total", func(s *TranscriptSummary) { s.Pages[1].PctStudent = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ok
			s.Pages = append([]PageSummary(nil), ok.Pages...)
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvariantViolation))
		})
	}

	t.Run("error rows skip checks", func(t *testing.T) {
		s := TranscriptSummary{Student: 3, PctStudent: 200, Status: StatusError}
		assert.NoError(t, s.Validate())
	})
}

func TestSummaryShares(t *testing.T) {
	s := TranscriptSummary{Student: 40, AI: 40, Unknown: 20, Heuristic: 10}
	assert.Equal(t, 80, s.Total())
	assert.Equal(t, 100, s.Words())
	assert.InDelta(t, 0.2, s.UnknownShare(), 1e-12)
	assert.InDelta(t, 0.1, s.HeuristicShare(), 1e-12)
	assert.Zero(t, TranscriptSummary{}.UnknownShare())
}

func TestTokenCountValidate(t *testing.T) {
	c := TokenCount{Prose: 3, CJK: 2, URL: 1, Math: 7, Total: 13}
	require.NoError(t, c.Validate())

	var sum TokenCount
	sum.Add(c)
	sum.Add(c)
	assert.Equal(t, 26, sum.Total)
	require.NoError(t, sum.Validate())

	bad := c
	bad.Total = 12
	assert.ErrorIs(t, bad.Validate(), ErrInvariantViolation)

	neg := TokenCount{Prose: -1, Math: 1, Total: 0}
	assert.ErrorIs(t, neg.Validate(), ErrInvariantViolation)
}
