package session

// Strategy selects which steps a render derives.
type Strategy struct {
	mutable bool
	start   int
}

// Static renders only the next step of a thread.
func Static() Strategy { return Strategy{} }

// Mutable re-derives the steps of a thread from start up to the next step.
// A start >= 0 is an absolute step; a negative start counts back from the next step.
func Mutable(start int) Strategy { return Strategy{mutable: true, start: start} }

// IsMutable reports whether earlier steps are re-derived.
func (s Strategy) IsMutable() bool { return s.mutable }

// first returns the first step to derive given the next step of the thread.
func (s Strategy) first(next int) int {
	if !s.mutable {
		return next
	}
	start := s.start
	if start < 0 {
		start = next + start
	}
	if start < 0 {
		return 0
	}
	if start > next {
		return next
	}
	return start
}
