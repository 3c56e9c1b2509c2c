package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkwap/pkscreen/attribute"
	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/segment"
)

func newTokenizer() *Tokenizer {
	return New(config.MustCompile(config.Default()))
}

func TestCount(t *testing.T) {
	tests := []struct {
		name    string
		content string
		speaker core.Speaker
		want    core.TokenCount
	}{
		{
			name:    "polynomial",
			content: "x^2 + 2x + 1",
			want:    core.TokenCount{Math: 7, Total: 7},
		},
		{
			name:    "equation",
			content: "x^2 + 2x + 1 = 7",
			want:    core.TokenCount{Math: 9, Total: 9},
		},
		{
			name:    "cjk run of five",
			content: "你好世界啊",
			want:    core.TokenCount{CJK: 3, Total: 3},
		},
		{
			name:    "cjk run of four",
			content: "你好世界",
			want:    core.TokenCount{CJK: 2, Total: 2},
		},
		{
			name:    "cjk split by latin",
			content: "我用Python写代码",
			want:    core.TokenCount{Prose: 1, CJK: 3, Total: 4},
		},
		{
			name:    "url counts once",
			content: "Visit https://example.com/a?b=c now",
			want:    core.TokenCount{Prose: 2, URL: 1, Total: 3},
		},
		{
			name:    "email counts once",
			content: "mail me at jane.doe@uni.edu.",
			want:    core.TokenCount{Prose: 3, URL: 1, Total: 4},
		},
		{
			name:    "email inside url is not double counted",
			content: "see www.site.com/user@host.org",
			want:    core.TokenCount{Prose: 1, URL: 1, Total: 2},
		},
		{
			name:    "prose with apostrophes and hyphens",
			content: "Hello, world! It's a well-known fact.",
			want:    core.TokenCount{Prose: 6, Total: 6},
		},
		{
			name:    "numbers without operators are prose",
			content: "In 2020 we had 3 tests - maybe 4",
			want:    core.TokenCount{Prose: 8, Total: 8},
		},
		{
			name:    "math region inside prose",
			content: "The area is 3.14 * r^2",
			want:    core.TokenCount{Prose: 3, Math: 5, Total: 8},
		},
		{
			name:    "function notation",
			content: "f(x) = x^2 + 1",
			want:    core.TokenCount{Math: 10, Total: 10},
		},
		{
			name:    "function notation matches numeric coefficient",
			content: "2(x) = x^2 + 1",
			want:    core.TokenCount{Math: 10, Total: 10},
		},
		{
			name:    "taylor term",
			content: "f(a) + f'(a)(x - a)",
			want:    core.TokenCount{Math: 14, Total: 14},
		},
		{
			name:    "hyphenated word next to prose stays prose",
			content: "a well-known (and simple) idea",
			want:    core.TokenCount{Prose: 5, Total: 5},
		},
		{
			name:    "binary minus is not a region trigger",
			content: "5 - 3",
			want:    core.TokenCount{Prose: 2, Total: 2},
		},
		{
			name:    "latex command",
			content: `\frac{1}{2}`,
			want:    core.TokenCount{Math: 7, Total: 7},
		},
		{
			name:    "markdown bold and quote markers",
			content: "> **bold** text",
			want:    core.TokenCount{Prose: 2, Total: 2},
		},
		{
			name:    "markdown italics are not multiplication",
			content: "This is *really* important",
			want:    core.TokenCount{Prose: 4, Total: 4},
		},
		{
			name:    "underscore emphasis",
			content: "_note_ that 2 * 3 = 6",
			want:    core.TokenCount{Prose: 2, Math: 5, Total: 7},
		},
		{
			name:    "pure punctuation",
			content: "... !!! ,",
			want:    core.TokenCount{},
		},
		{
			name:    "empty",
			content: "",
			want:    core.TokenCount{},
		},
		{
			name:    "ignore phrase counts zero",
			content: "Rule reminder: be brief and kind",
			want:    core.TokenCount{},
		},
		{
			name:    "ai preamble stripped",
			content: "Sure, the answer is 4",
			speaker: core.SpeakerAI,
			want:    core.TokenCount{Prose: 4, Total: 4},
		},
		{
			name:    "student keeps preamble words",
			content: "Sure, the answer is 4",
			speaker: core.SpeakerStudent,
			want:    core.TokenCount{Prose: 5, Total: 5},
		},
	}

	tk := newTokenizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tk.Count(tt.content, tt.speaker)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestCJKDivisor(t *testing.T) {
	cfg := config.Default()
	cfg.CJKDivisor = 3
	tk := New(config.MustCompile(cfg))
	assert.Equal(t, 2, tk.Count("你好世界", core.SpeakerStudent).CJK)
	assert.Equal(t, 1, tk.Count("你好世", core.SpeakerStudent).CJK)
}

func TestLinksResolveOverlaps(t *testing.T) {
	got := links("a www.x.com/u@h.org b c@d.io")
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].start)
	assert.Equal(t, "c@d.io", "a www.x.com/u@h.org b c@d.io"[got[1].start:got[1].end])
}

func TestApply(t *testing.T) {
	rules := config.MustCompile(config.Default())
	tr, _ := segment.New(rules).Segment(core.NewSource("t.txt", "Student: what is 2 + 2?\n\n---\nAI: Sure, it is 4."))
	tr = attribute.New(rules).Attribute(tr)

	out, err := New(rules).Apply(tr)
	require.NoError(t, err)
	lines := out.Pages[0].Lines
	require.Len(t, lines, 4)

	assert.Equal(t, core.TokenCount{Prose: 2, Math: 3, Total: 5}, lines[0].Count)
	assert.Zero(t, lines[1].Count.Total)
	assert.Zero(t, lines[2].Count.Total)
	assert.Equal(t, core.TokenCount{Prose: 3, Total: 3}, lines[3].Count)

	// The input transcript is left untouched.
	assert.Zero(t, tr.Pages[0].Lines[0].Count.Total)
}

func TestIsCJK(t *testing.T) {
	for _, r := range []rune{'中', 'ひ', 'カ', '한', '㐀'} {
		assert.True(t, IsCJK(r), "%q", r)
	}
	for _, r := range []rune{'a', 'é', 'я', '1', '。'} {
		assert.False(t, IsCJK(r), "%q", r)
	}
}
