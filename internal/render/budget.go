package render

// Budget counts how many expensive mesh rebuilds may still happen this frame.
type Budget struct {
	remaining int
}

// NewBudget grants n rebuilds. Negative values grant none.
func NewBudget(n int) *Budget {
	if n < 0 {
		n = 0
	}
	return &Budget{remaining: n}
}

// Take consumes one unit and reports whether one was available.
// A nil budget never grants anything.
func (b *Budget) Take() bool {
	if b == nil || b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// Remaining is the number of rebuilds still available.
func (b *Budget) Remaining() int {
	if b == nil {
		return 0
	}
	return b.remaining
}
