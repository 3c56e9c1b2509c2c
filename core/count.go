package core

import "fmt"

// TokenCount is a line's token count decomposed by content category. The
// categories exist for auditing; Total must always equal their sum.
type TokenCount struct {
	Prose int `json:"prose"`
	CJK   int `json:"cjk"`
	URL   int `json:"url"` // URLs and email addresses
	Math  int `json:"math"`
	Total int `json:"total"`
}

// Sum returns the sum of the category counts.
func (c TokenCount) Sum() int {
	return c.Prose + c.CJK + c.URL + c.Math
}

// Add accumulates other into c.
func (c *TokenCount) Add(other TokenCount) {
	c.Prose += other.Prose
	c.CJK += other.CJK
	c.URL += other.URL
	c.Math += other.Math
	c.Total += other.Total
}

// Validate checks the category-sum invariant.
func (c TokenCount) Validate() error {
	if c.Prose < 0 || c.CJK < 0 || c.URL < 0 || c.Math < 0 {
		return fmt.Errorf("%w: negative category in %+v", ErrInvariantViolation, c)
	}
	if c.Sum() != c.Total {
		return fmt.Errorf("%w: categories sum to %d, total is %d", ErrInvariantViolation, c.Sum(), c.Total)
	}
	return nil
}
