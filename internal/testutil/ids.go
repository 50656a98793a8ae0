package testutil

// FixedQueryIDGenerator returns the same query id every time.
//
// Harness scenarios run one query each; a constant id keeps golden output
// byte-identical between runs. planner.FixedGenerator, by contrast, yields
// ids in sequence and panics when they run out.
//
// Thread-safety: stateless and safe for concurrent use.
type FixedQueryIDGenerator struct {
	id string
}

// NewFixedQueryIDGenerator returns a generator for id.
// An empty id becomes "test-query-default".
func NewFixedQueryIDGenerator(id string) *FixedQueryIDGenerator {
	if id == "" {
		id = "test-query-default"
	}
	return &FixedQueryIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedQueryIDGenerator) Generate() string {
	return g.id
}
