package planner

// budget counts plan combinations materialised during one search.
//
// It bounds the linear explosion of the AND/OR cross product, where the
// depth bound and the visiting set bound the recursion itself. Running out
// is not an error: the search stops enumerating and returns what it has.
type budget struct {
	limit int
	used  int
}

func newBudget(limit int) *budget {
	return &budget{limit: limit}
}

// take consumes one unit, reporting false once the limit is reached.
func (b *budget) take() bool {
	if b.used >= b.limit {
		return false
	}
	b.used++
	return true
}

func (b *budget) exhausted() bool {
	return b.used >= b.limit
}

func (b *budget) remaining() int {
	return b.limit - b.used
}
