package match

import "sync/atomic"

// IDGenerator hands out monotonically increasing ids. It is safe to share
// between order books running on different goroutines.
type IDGenerator struct {
	seq atomic.Uint64
}

// NewIDGenerator returns a generator whose first id is 1.
func NewIDGenerator() *IDGenerator {
	return NewIDGeneratorFrom(1)
}

// NewIDGeneratorFrom returns a generator whose first id is start (at least 1).
func NewIDGeneratorFrom(start uint64) *IDGenerator {
	if start == 0 {
		start = 1
	}
	gen := &IDGenerator{}
	gen.seq.Store(start - 1)
	return gen
}

// Next returns the next id.
func (gen *IDGenerator) Next() uint64 {
	return gen.seq.Add(1)
}

// Last returns the most recently issued id, or start-1 if none was issued yet.
func (gen *IDGenerator) Last() uint64 {
	return gen.seq.Load()
}
