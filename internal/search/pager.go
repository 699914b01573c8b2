package search

// Page sizes for result lists.
const (
	DefaultPageStart = 3
	DefaultPageStep  = 5
)

// Pager tracks how many items of a list are shown.
type Pager struct {
	start int
	step  int
	count int
}

// NewPager creates a Pager. Non-positive sizes fall back to the defaults.
func NewPager(start, step int) Pager {
	if start <= 0 {
		start = DefaultPageStart
	}
	if step <= 0 {
		step = DefaultPageStep
	}
	return Pager{start: start, step: step, count: start}
}

// Count returns the requested count, which may exceed the list length.
func (p *Pager) Count() int {
	return p.count
}

// Shown returns how many of n items are visible.
func (p *Pager) Shown(n int) int {
	if n < p.count {
		return n
	}
	return p.count
}

// HasMore reports whether the show-more affordance is visible for n items.
func (p *Pager) HasMore(n int) bool {
	return n > p.count
}

// Advance grows the count by one step, clamped to n. It is a no-op when
// nothing is hidden.
func (p *Pager) Advance(n int) {
	if !p.HasMore(n) {
		return
	}
	if p.count+p.step < n {
		p.count += p.step
	} else {
		p.count = n
	}
}

// Reset returns to the first page.
func (p *Pager) Reset() {
	p.count = p.start
}
