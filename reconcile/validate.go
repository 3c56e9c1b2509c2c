package reconcile

import (
	"errors"
	"fmt"

	"github.com/pkwap/pkscreen/core"
)

// Validate re-checks every summary's invariants: page totals add up to the
// transcript totals and percentages are within bounds and consistent with
// the counts they derive from. All violations are returned joined.
func Validate(rows []core.TranscriptSummary, precision int) error {
	var errs []error
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if seen[r.ID] {
			errs = append(errs, fmt.Errorf("%s: %w: duplicate transcript", r.ID, core.ErrInvariantViolation))
		}
		seen[r.ID] = true

		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.ID, err))
			continue
		}
		if r.Status == core.StatusError {
			continue
		}
		if want := core.PctStudent(r.Student, r.AI, precision); !closeTo(want, r.PctStudent, precision) {
			errs = append(errs, fmt.Errorf("%s: %w: pct_student %v, counts give %v",
				r.ID, core.ErrInvariantViolation, r.PctStudent, want))
		}
		for _, p := range r.Pages {
			if want := core.PctStudent(p.Student, p.AI, precision); !closeTo(want, p.PctStudent, precision) {
				errs = append(errs, fmt.Errorf("%s page %d: %w: pct_student %v, counts give %v",
					r.ID, p.Index, core.ErrInvariantViolation, p.PctStudent, want))
			}
		}
	}
	return errors.Join(errs...)
}

// closeTo allows half a unit in the last kept decimal.
func closeTo(want, got float64, precision int) bool {
	unit := 1.0
	for range precision {
		unit /= 10
	}
	d := want - got
	if d < 0 {
		d = -d
	}
	return d <= unit/2+epsilon
}
