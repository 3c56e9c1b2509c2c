// Package jsonl reads chat logs stored as JSON Lines, one message per line.
//
// Two shapes are accepted: flat chat-completion messages
// ({"role":"user","content":"..."}) and agent session entries that wrap the
// message ({"type":"user","message":{"role":"user","content":[...]}}).
// Content is a string or an array of typed blocks; only text blocks are
// dialogue, so thinking, tool calls and tool results are skipped.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/reader"
)

// maxLineSize is the maximum JSONL line size (1 MB). Long messages can exceed
// the default 64 KB bufio.Scanner buffer.
const maxLineSize = 1 << 20

// Reader reads JSONL chat logs.
type Reader struct{}

type rawEntry struct {
	Type        string          `json:"type"`
	Role        string          `json:"role"`
	Content     json.RawMessage `json:"content"`
	IsSidechain bool            `json:"isSidechain"`
	Message     *rawMessage     `json:"message"`
}

type rawMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type rawContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Extensions implements reader.Reader.
func (Reader) Extensions() []string { return []string{".jsonl"} }

// ReadFile converts the log at path into labelled transcript text.
func (Reader) ReadFile(path string) (*core.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, reader.ReadError(path, err)
	}
	defer f.Close()

	text, err := Convert(f)
	if err != nil {
		return nil, reader.ReadError(path, err)
	}
	return core.NewSource(path, text), nil
}

// Convert renders every user and assistant message as a labelled turn. The
// first line of a turn carries "Student:" or "AI:"; turns are separated by a
// blank line. Lines that are not valid JSON are skipped.
func Convert(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, maxLineSize), maxLineSize)

	var (
		b     strings.Builder
		turns int
	)
	for scanner.Scan() {
		var entry rawEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry.IsSidechain {
			continue
		}
		role, content := entry.Role, entry.Content
		if entry.Message != nil {
			role, content = entry.Message.Role, entry.Message.Content
		}
		label := roleLabel(role)
		if label == "" {
			continue
		}
		text := strings.TrimSpace(extractText(content))
		if text == "" {
			continue
		}

		if turns > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(label + ": " + text + "\n")
		turns++
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan jsonl: %w", err)
	}
	if turns == 0 {
		return "", fmt.Errorf("no messages found")
	}
	return b.String(), nil
}

func roleLabel(role string) string {
	switch strings.ToLower(role) {
	case "user", "human":
		return "Student"
	case "assistant", "model":
		return "AI"
	default:
		return ""
	}
}

// extractText handles content that is a string or an array of blocks.
func extractText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var blocks []rawContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var parts []string
	for _, bl := range blocks {
		if bl.Type == "text" && strings.TrimSpace(bl.Text) != "" {
			parts = append(parts, bl.Text)
		}
	}
	return strings.Join(parts, "\n")
}
