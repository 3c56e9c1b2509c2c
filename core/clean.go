package core

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// lineEndings folds CRLF and bare CR into LF.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeText prepares raw transcript text for segmentation.
//
// Text is converted to Unicode NFC so composed and decomposed forms count the
// same, line endings become LF, and a leading byte-order mark is dropped.
// Form feeds are kept since they delimit pages.
func NormalizeText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = lineEndings.Replace(s)
	return norm.NFC.String(s)
}

// SplitLines splits normalised text into lines. A trailing newline does not
// produce a final empty line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
