package core

// Turn is a run of consecutive non-blank lines on one page attributed to the
// same speaker.
type Turn struct {
	Speaker Speaker
	Page    int // page index
	Lines   []Line
}

// Words returns the token total of the turn.
func (t Turn) Words() int {
	n := 0
	for _, l := range t.Lines {
		n += l.Count.Total
	}
	return n
}

// GroupTurns splits an attributed page into speaker turns. Blank lines and
// lines with no confidence (structure such as horizontal rules) end the
// current turn without starting a new one.
func GroupTurns(p Page) []Turn {
	var turns []Turn
	var current *Turn

	for _, l := range p.Lines {
		if l.IsBlank() || l.Confidence == ConfidenceNone {
			if current != nil {
				turns = append(turns, *current)
				current = nil
			}
			continue
		}
		if current != nil && current.Speaker != l.Speaker {
			turns = append(turns, *current)
			current = nil
		}
		if current == nil {
			current = &Turn{Speaker: l.Speaker, Page: p.Index}
		}
		current.Lines = append(current.Lines, l)
	}
	if current != nil {
		turns = append(turns, *current)
	}
	return turns
}

// TurnCounts returns how many turns each speaker took across the transcript.
// Adjacent same-speaker turns separated only by blank lines count once.
func TurnCounts(t *Transcript) map[Speaker]int {
	counts := make(map[Speaker]int)
	for _, p := range t.Pages {
		var last Speaker
		for _, turn := range GroupTurns(p) {
			if turn.Speaker == last {
				continue
			}
			counts[turn.Speaker]++
			last = turn.Speaker
		}
	}
	return counts
}
