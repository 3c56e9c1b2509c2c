package core

// Stage is one step of the screening pipeline. A stage returns a new
// Transcript and leaves its input untouched.
type Stage interface {
	Apply(t *Transcript) (*Transcript, error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc func(t *Transcript) (*Transcript, error)

// Apply calls f(t).
func (f StageFunc) Apply(t *Transcript) (*Transcript, error) { return f(t) }

// Chain applies stages in order, stopping at the first error.
func Chain(t *Transcript, stages ...Stage) (*Transcript, error) {
	for _, s := range stages {
		var err error
		if t, err = s.Apply(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}
