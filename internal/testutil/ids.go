package testutil

// FixedIDGenerator returns the same run identifier every time.
//
// Reports stamped with it are byte-identical across runs, which keeps
// golden snapshots stable.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator for id. If id is empty,
// Generate returns "test-run-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed run identifier.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
