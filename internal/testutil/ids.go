package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out call ids "<prefix>-0001", "<prefix>-0002", ...
// It satisfies engine.IDGenerator and never runs out, which suits
// scenarios whose call count is not known up front.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix means "call".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "call"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
