package jsonl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkwap/pkscreen/core"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{
			name: "flat messages",
			input: `{"role":"system","content":"You are a tutor"}
{"role":"user","content":"what is 2+2"}
{"role":"assistant","content":"It is 4.\nAnything else?"}`,
			want: "Student: what is 2+2\n\nAI: It is 4.\nAnything else?\n",
		},
		{
			name: "session entries with blocks",
			input: `{"type":"user","message":{"role":"user","content":[{"type":"text","text":"explain slope"}]}}
{"type":"assistant","message":{"role":"assistant","content":[{"type":"thinking","thinking":"hmm"},{"type":"text","text":"Slope is rise over run."}]}}
{"type":"user","message":{"role":"user","content":[{"type":"tool_result","content":"ok"}]}}
{"type":"assistant","isSidechain":true,"message":{"role":"assistant","content":"side"}}`,
			want: "Student: explain slope\n\nAI: Slope is rise over run.\n",
		},
		{
			name:  "invalid lines skipped",
			input: "not json\n{\"role\":\"user\",\"content\":\"hi\"}\n",
			want:  "Student: hi\n",
		},
		{
			name:    "no messages",
			input:   `{"role":"system","content":"x"}`,
			wantErr: "no messages found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "P05-G1-S2.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"role":"user","content":"hi"}`+"\n"), 0o644))

	src, err := Reader{}.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "P05-G1-S2", src.ID)
	assert.Equal(t, "Student: hi\n", src.Text)
}

func TestReadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := Reader{}.ReadFile(path)
	assert.True(t, errors.Is(err, core.ErrInputRead))
}
