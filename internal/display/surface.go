// Package display holds the display-surface collaborator boundary. The
// physical matrix driver lives outside this repository; the implementations
// here log or capture the composed scene instead of rasterizing it.
package display

import (
	"log/slog"
	"sync"

	"github.com/distantsignal/distantsignal/internal/scene"
)

// Log is a scene.Surface that reports each new content root to the logger.
// It stands in for the matrix driver on hosts without one.
type Log struct {
	Logger *slog.Logger
}

// SetRoot logs a summary of the newly composed scene.
func (l *Log) SetRoot(g *scene.Graph) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("display: new content root",
		slog.Int("visible_nodes", len(g.VisibleNodes())),
		slog.Int("states", len(g.States)),
		slog.Int("blocks", len(g.Blocks)))
}

// Snapshot is a scene.Surface that keeps the latest composed scene for
// read-side consumers (the debug HTTP endpoints and tests). It is the only
// loop-owned state the HTTP server may observe, and it is copied out under
// a lock rather than shared.
type Snapshot struct {
	mu    sync.Mutex
	root  *scene.Graph
	nodes []scene.Node
	next  scene.Surface
}

// NewSnapshot returns a Snapshot that forwards each root to next after
// capturing it. next may be nil.
func NewSnapshot(next scene.Surface) *Snapshot {
	return &Snapshot{next: next}
}

// SetRoot captures the visible nodes of the new root, then forwards it.
func (s *Snapshot) SetRoot(g *scene.Graph) {
	s.mu.Lock()
	s.root = g
	s.nodes = g.VisibleNodes()
	s.mu.Unlock()
	if s.next != nil {
		s.next.SetRoot(g)
	}
}

// VisibleNodes returns the visible nodes captured at the last render, in
// paint order.
func (s *Snapshot) VisibleNodes() []scene.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]scene.Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// HasRoot reports whether a scene has been rendered at least once.
func (s *Snapshot) HasRoot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root != nil
}
