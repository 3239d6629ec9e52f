// Package testutil holds deterministic stand-ins for tests and the scenario
// harness. It imports nothing from the rest of the module.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// SequentialIDs generates "<prefix>-1", "<prefix>-2", ... in order.
//
// Identities are otherwise UUIDv7 values that change every run; a
// predictable sequence keeps golden traces and assertions stable.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix defaults to "id".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next identifier.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Issued returns how many identifiers have been generated.
func (g *SequentialIDs) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
