// Package text reads plain-text transcripts, including text converted from
// PDFs where form feeds separate pages.
package text

import (
	"os"
	"strings"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/reader"
)

// Reader reads UTF-8 text files.
type Reader struct{}

// Extensions implements reader.Reader.
func (Reader) Extensions() []string { return []string{".txt", ".text", ".md"} }

// ReadFile loads the file at path. Bytes that are not valid UTF-8 are dropped.
func (Reader) ReadFile(path string) (*core.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, reader.ReadError(path, err)
	}
	return core.NewSource(path, strings.ToValidUTF8(string(data), "")), nil
}
