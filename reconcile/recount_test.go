package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/core"
)

const annotatedSample = `[STUDENT] Student: I have two apples
[AI] AI: Great, how many do you see now
[AI?] maybe this one
plain untagged line here

--- Page 2 ---
[UNK] ---
[STUDENT] five
`

func TestTranscriptID(t *testing.T) {
	assert.Equal(t, "P01-G8-S4", TranscriptID("P01-G8-S4__annotated"))
	assert.Equal(t, "P01-G8-S4", TranscriptID("P01-G8-S4"))
}

func TestParseTags(t *testing.T) {
	r := NewRecounter(config.MustCompile(config.Default()))
	tr, _ := r.Parse(core.NewSource("annotated/P01-G8-S4__annotated.txt", annotatedSample))

	assert.Equal(t, "P01-G8-S4", tr.ID)
	assert.Equal(t, "P01-G8-S4.txt", tr.Filename)
	assert.Equal(t, "01", tr.Case.Participant)
	require.Len(t, tr.Pages, 2)

	lines := tr.Pages[0].Lines
	require.GreaterOrEqual(t, len(lines), 4)

	assert.Equal(t, core.SpeakerStudent, lines[0].Speaker)
	assert.Equal(t, core.ConfidenceExplicit, lines[0].Confidence)
	assert.Equal(t, "Student", lines[0].Label)
	assert.Equal(t, "I have two apples", lines[0].Content)

	assert.Equal(t, core.SpeakerAI, lines[1].Speaker)
	assert.Equal(t, "Great, how many do you see now", lines[1].Content)

	// a trailing ? keeps the speaker but marks it unsure
	assert.Equal(t, core.SpeakerAI, lines[2].Speaker)
	assert.Equal(t, core.ConfidenceHeuristic, lines[2].Confidence)
	assert.Equal(t, "maybe this one", lines[2].Content)

	assert.Equal(t, core.SpeakerUnknown, lines[3].Speaker)
	assert.Equal(t, core.ConfidenceHeuristic, lines[3].Confidence)
}

func TestRecount(t *testing.T) {
	r := NewRecounter(config.MustCompile(config.Default()))
	s, anomalies, err := r.Recount(core.NewSource("P01-G8-S4__annotated.txt", annotatedSample))
	require.NoError(t, err)

	assert.Equal(t, "P01-G8-S4", s.ID)
	assert.Equal(t, 5, s.Student)
	assert.Equal(t, 10, s.AI)
	assert.Equal(t, 4, s.Unknown)
	assert.Equal(t, 7, s.Heuristic)
	assert.Equal(t, 33.3, s.PctStudent)
	assert.Equal(t, core.StatusHighUnknown, s.Status)

	require.Len(t, s.Pages, 2)
	assert.Equal(t, 4, s.Pages[0].Student)
	assert.Equal(t, 1, s.Pages[1].Student)
	assert.Equal(t, 0, s.Pages[1].Unknown, "tagged separators count nothing")

	kinds := map[core.AnomalyKind]int{}
	for _, a := range anomalies {
		kinds[a.Kind]++
	}
	assert.Equal(t, 1, kinds[core.AnomalyUnresolvedSpeaker])
	assert.Equal(t, 1, kinds[core.AnomalyHighUnknown])

	assert.NoError(t, Validate([]core.TranscriptSummary{s}, 1))
}

func TestRecountUnannotatedFileIsAllUnknown(t *testing.T) {
	r := NewRecounter(config.MustCompile(config.Default()))
	s, _, err := r.Recount(core.NewSource("P09.txt", "Student: hi there\nAI: hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Student)
	assert.Equal(t, 0, s.AI)
	assert.Equal(t, 3, s.Unknown)
}
