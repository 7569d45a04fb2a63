package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator produces sequential, predictable record identifiers.
//
// This enables deterministic harness runs and golden snapshot comparison.
// The same dataset with the same FixedIDGenerator produces byte-identical
// reports.
//
// Production code uses store.UUIDGenerator instead; this generator
// exists so tests never depend on random UUIDs.
//
// Thread-safety: Generate is safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewFixedIDGenerator creates a generator producing "<prefix>-0001",
// "<prefix>-0002", and so on.
//
// If prefix is empty, "record" is used.
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "record"
	}
	return &FixedIDGenerator{prefix: prefix}
}

// Generate returns the next sequential identifier.
//
// Implements store.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}
