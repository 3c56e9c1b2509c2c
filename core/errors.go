package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPageMarker marks a page marker whose number is duplicated or
	// out of order. It is reported as an Anomaly, never returned as fatal.
	ErrMalformedPageMarker = errors.New("malformed page marker")

	// ErrInputRead means a transcript could not be read. Fatal for that
	// transcript only.
	ErrInputRead = errors.New("input read failure")

	// ErrInvariantViolation means a count or summary broke a checked invariant.
	// It indicates a bug, so the affected transcript row is always an error.
	ErrInvariantViolation = errors.New("invariant violation")
)

// AnomalyKind classifies a non-fatal finding.
type AnomalyKind string

const (
	AnomalyMalformedPageMarker AnomalyKind = "malformed_page_marker"
	AnomalyHighUnknownPage     AnomalyKind = "high_unknown_page"
	AnomalyHighUnknown         AnomalyKind = "high_unknown"
	AnomalyUnresolvedSpeaker   AnomalyKind = "unresolved_speaker"
	AnomalyTranscriptError     AnomalyKind = "transcript_error"
)

// Anomaly is something a reviewer should look at. Page is the 0-based page
// index and Line the 1-based source line; -1 and 0 mean "not applicable".
type Anomaly struct {
	Kind       AnomalyKind `json:"kind"`
	Transcript string      `json:"transcript"`
	Page       int         `json:"page"`
	Line       int         `json:"line"`
	Detail     string      `json:"detail"`
}

func (a Anomaly) String() string {
	s := fmt.Sprintf("%s transcript=%s", a.Kind, a.Transcript)
	if a.Page >= 0 {
		s += fmt.Sprintf(" page=%d", a.Page)
	}
	if a.Line > 0 {
		s += fmt.Sprintf(" line=%d", a.Line)
	}
	if a.Detail != "" {
		s += " " + a.Detail
	}
	return s
}
