// Package html reads chat transcripts exported as HTML. Block-level elements
// become lines, horizontal rules and page-break elements become page markers,
// and messages tagged with an author role get an explicit speaker label.
package html

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/reader"
)

const (
	blockSel   = "h1,h2,h3,h4,h5,h6,p,li,pre,blockquote,dt,dd,th,td,figcaption"
	breakSel   = "hr,.page-break,.pagebreak"
	messageSel = "[data-message-author-role],[data-role],[data-speaker]"
)

// Reader reads HTML chat exports.
type Reader struct{}

// Extensions implements reader.Reader.
func (Reader) Extensions() []string { return []string{".html", ".htm"} }

// ReadFile parses the export at path into transcript text.
func (Reader) ReadFile(path string) (*core.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, reader.ReadError(path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, reader.ReadError(path, fmt.Errorf("parse html: %w", err))
	}
	return core.NewSource(path, Extract(doc)), nil
}

// Extract flattens doc into transcript text, one block per line.
func Extract(doc *goquery.Document) string {
	doc.Find("script,style,noscript,template,head").Remove()

	var (
		b         strings.Builder
		page      = 1
		content   bool
		lastOwner *html.Node
	)
	doc.Find(blockSel + "," + breakSel).Each(func(_ int, s *goquery.Selection) {
		if s.Is(breakSel) {
			if content {
				page++
				fmt.Fprintf(&b, "--- Page %d ---\n", page)
				content = false
			}
			return
		}
		// the outermost block carries the text of nested ones
		if s.ParentsFiltered(blockSel).Length() > 0 {
			return
		}

		lines := blockLines(s)
		if len(lines) == 0 {
			return
		}

		owner := s.Closest(messageSel)
		if owner.Length() > 0 && owner.Get(0) != lastOwner {
			lastOwner = owner.Get(0)
			if label := roleLabel(owner); label != "" {
				lines[0] = label + ": " + lines[0]
			}
		}
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		content = true
	})
	return b.String()
}

// blockLines returns the non-empty lines of a block. Preformatted text keeps
// its line structure; elsewhere whitespace runs collapse to one space.
func blockLines(s *goquery.Selection) []string {
	text := s.Text()
	if s.Is("pre") {
		var out []string
		for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
			if strings.TrimSpace(l) != "" {
				out = append(out, strings.TrimRight(l, " \t"))
			}
		}
		return out
	}
	if line := strings.Join(strings.Fields(text), " "); line != "" {
		return []string{line}
	}
	return nil
}

// roleLabel maps a message element's author role to a speaker label.
func roleLabel(s *goquery.Selection) string {
	for _, attr := range []string{"data-message-author-role", "data-role", "data-speaker"} {
		v, ok := s.Attr(attr)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "user", "human", "student":
			return "Student"
		case "assistant", "ai", "model", "bot", "tutor":
			return "AI"
		}
	}
	return ""
}
