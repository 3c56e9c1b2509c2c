package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/core"
)

func newSegmenter() *Segmenter {
	return New(config.MustCompile(config.Default()))
}

func raws(p core.Page) []string {
	var out []string
	for _, l := range p.Lines {
		out = append(out, l.Raw)
	}
	return out
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		pages     int
		anomalies int
		checks    func(t *testing.T, tr *core.Transcript)
	}{
		{
			name:  "no markers single page",
			text:  "Student: hi\n\nAI: hello\n",
			pages: 1,
			checks: func(t *testing.T, tr *core.Transcript) {
				assert.Equal(t, []string{"Student: hi", "", "AI: hello"}, raws(tr.Pages[0]))
				assert.Equal(t, 3, tr.Pages[0].Lines[2].Number)
			},
		},
		{
			name:  "empty text",
			text:  "",
			pages: 1,
			checks: func(t *testing.T, tr *core.Transcript) {
				assert.Empty(t, tr.Pages[0].Lines)
			},
		},
		{
			name:  "markers with leading content",
			text:  "intro line\n--- Page 1 ---\nStudent: a\n--- Page 2 ---\nAI: b\n",
			pages: 3,
			checks: func(t *testing.T, tr *core.Transcript) {
				assert.Equal(t, []string{"intro line"}, raws(tr.Pages[0]))
				assert.Empty(t, tr.Pages[0].Marker)
				assert.Equal(t, 1, tr.Pages[1].Number)
				assert.Equal(t, "--- Page 1 ---", tr.Pages[1].Marker)
				assert.Equal(t, 2, tr.Pages[2].Index)
				assert.Equal(t, 5, tr.Pages[2].Lines[0].Number)
			},
		},
		{
			name:  "blank leading content makes no page",
			text:  "\n  \nPage 1\nStudent: a\n",
			pages: 1,
			checks: func(t *testing.T, tr *core.Transcript) {
				assert.Equal(t, 0, tr.Pages[0].Index)
				assert.Equal(t, 1, tr.Pages[0].Number)
			},
		},
		{
			name:  "empty page is kept",
			text:  "=== Page 1 ===\n=== Page 2 ===\nAI: x\n",
			pages: 2,
			checks: func(t *testing.T, tr *core.Transcript) {
				assert.Empty(t, tr.Pages[0].Lines)
			},
		},
		{
			name:      "duplicate page number",
			text:      "Page 1\na\nPage 1\nb\n",
			pages:     2,
			anomalies: 1,
		},
		{
			name:      "decreasing page numbers keep source order",
			text:      "Page 3\na\nPage 2\nb\nPage 4\nc\n",
			pages:     3,
			anomalies: 1,
			checks: func(t *testing.T, tr *core.Transcript) {
				assert.Equal(t, []int{3, 2, 4}, []int{tr.Pages[0].Number, tr.Pages[1].Number, tr.Pages[2].Number})
			},
		},
		{
			name:  "form feed splits pages",
			text:  "Student: a\nAI: b\n\fAI: c\n\f",
			pages: 2,
			checks: func(t *testing.T, tr *core.Transcript) {
				assert.Equal(t, []string{"Student: a", "AI: b"}, raws(tr.Pages[0]))
				assert.Equal(t, []string{"AI: c"}, raws(tr.Pages[1]))
				assert.Equal(t, 3, tr.Pages[1].Lines[0].Number)
				assert.Equal(t, FormFeed, tr.Pages[1].Marker)
			},
		},
		{
			name:  "form feed wins over markers",
			text:  "--- Page 1 ---\na\n\f--- Page 2 ---\nb\n",
			pages: 2,
			checks: func(t *testing.T, tr *core.Transcript) {
				assert.Equal(t, []string{"--- Page 2 ---", "b"}, raws(tr.Pages[1]))
			},
		},
		{
			name:  "crlf normalised",
			text:  "Student: a\r\nAI: b\r\n",
			pages: 1,
			checks: func(t *testing.T, tr *core.Transcript) {
				assert.Equal(t, []string{"Student: a", "AI: b"}, raws(tr.Pages[0]))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := core.NewSource("P01-G8-S4.txt", tt.text)
			tr, anomalies := newSegmenter().Segment(src)
			require.Len(t, tr.Pages, tt.pages)
			assert.Len(t, anomalies, tt.anomalies)
			assert.Equal(t, "P01-G8-S4", tr.ID)
			assert.Equal(t, "01", tr.Case.Participant)
			for i, p := range tr.Pages {
				assert.Equal(t, i, p.Index)
			}
			if tt.checks != nil {
				tt.checks(t, tr)
			}
		})
	}
}

func TestSegmentAnomalyDetail(t *testing.T) {
	_, anomalies := newSegmenter().Segment(core.NewSource("t.txt", "Page 2\na\nPage 1\nb\n"))
	require.Len(t, anomalies, 1)
	a := anomalies[0]
	assert.Equal(t, core.AnomalyMalformedPageMarker, a.Kind)
	assert.Equal(t, "t", a.Transcript)
	assert.Equal(t, 1, a.Page)
	assert.Equal(t, 3, a.Line)
	assert.Contains(t, a.Detail, "page 1 follows page 2")
}

func TestSegmentLineOrderPreserved(t *testing.T) {
	tr, _ := newSegmenter().Segment(core.NewSource("t.txt", "a\nb\n--- Page 2 ---\nc\n\nd\n"))
	var numbers []int
	for _, p := range tr.Pages {
		for _, l := range p.Lines {
			numbers = append(numbers, l.Number)
		}
	}
	assert.Equal(t, []int{1, 2, 4, 5, 6}, numbers)
}
