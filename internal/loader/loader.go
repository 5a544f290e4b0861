// Package loader owns the canonical current script, active state, and block
// activations, and decides when recompiling, persisting, and re-rendering
// are necessary.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"log/slog"

	"github.com/distantsignal/distantsignal/internal/nvm"
	"github.com/distantsignal/distantsignal/internal/scene"
)

// Compiler compiles script text into a scene graph. Satisfied by
// *scene.Compiler.
type Compiler interface {
	Compile(text string) (*scene.Graph, error)
}

// Loader tracks the current script by content hash, re-invoking the
// compiler only when the text actually changes. State and block setters are
// cheap data mutations behind a dirty flag; RenderIfDirty is the single
// point that touches the display surface, decoupling message-rate mutation
// from refresh-rate rendering.
//
// A Loader is owned by the control loop and is not safe for concurrent use.
type Loader struct {
	compiler Compiler
	region   *nvm.Region
	surface  scene.Surface
	logger   *slog.Logger

	graph        *scene.Graph
	scriptHash   string
	activeState  string
	activeBlocks map[string]bool
	dirty        bool
}

// New creates a Loader. region may be nil, in which case persist requests
// are ignored.
func New(compiler Compiler, region *nvm.Region, surface scene.Surface, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		compiler:     compiler,
		region:       region,
		surface:      surface,
		logger:       logger,
		activeBlocks: map[string]bool{},
		dirty:        true,
	}
}

// AcceptScript hashes text against the currently compiled script and, on
// mismatch, recompiles. It returns true only when a new script was compiled
// and adopted. A script that fails to compile is discarded: the previous
// scene, hash, and activations all stay in place.
//
// persist controls write-through to the durable region; boot-time loads
// pass false, network-delivered scripts pass true.
func (l *Loader) AcceptScript(text string, persist bool) (bool, error) {
	h := contentHash(text)
	if h == l.scriptHash {
		return false, nil
	}

	g, err := l.compiler.Compile(text)
	if err != nil {
		return false, err
	}

	if persist && l.region != nil {
		if err := l.region.Store(text); err != nil {
			// A failed save must not reject the script: the scene is
			// already live, it just will not survive a power cycle.
			l.logger.Warn("loader: persist failed", slog.String("error", err.Error()))
		}
	}

	l.graph = g
	l.scriptHash = h
	l.dirty = true

	if l.activeState == "" {
		if initial := g.Settings.InitialState(); initial != "" {
			l.activeState = initial
		}
	}

	l.logger.Info("loader: script adopted",
		slog.String("hash", h),
		slog.Int("states", len(g.States)),
		slog.Int("blocks", len(g.Blocks)),
		slog.Bool("persisted", persist))
	return true, nil
}

// SetActiveState records the active state name. No-op if unchanged.
func (l *Loader) SetActiveState(name string) {
	if l.activeState != name {
		l.activeState = name
		l.dirty = true
	}
}

// SetBlockActive records one block's activation. No-op if unchanged.
func (l *Loader) SetBlockActive(name string, active bool) {
	if l.activeBlocks[name] != active {
		l.activeBlocks[name] = active
		l.dirty = true
	}
}

// RenderIfDirty composes and hands the scene to the display surface when
// anything changed since the last render, then clears the dirty flag.
func (l *Loader) RenderIfDirty() {
	if !l.dirty || l.graph == nil {
		return
	}
	scene.Render(l.graph, l.activeState, l.activeBlocks, l.surface)
	l.dirty = false
}

// BlockNames returns the block names of the current script, in document
// order, for topic subscription. Nil when no script is loaded.
func (l *Loader) BlockNames() []string {
	if l.graph == nil {
		return nil
	}
	return l.graph.BlockNames()
}

// ScriptHash returns the content hash of the current script ("" before the
// first accepted script).
func (l *Loader) ScriptHash() string { return l.scriptHash }

// ActiveState returns the current active state name.
func (l *Loader) ActiveState() string { return l.activeState }

// ActiveBlocks returns a copy of the block activation map.
func (l *Loader) ActiveBlocks() map[string]bool {
	out := make(map[string]bool, len(l.activeBlocks))
	for k, v := range l.activeBlocks {
		out[k] = v
	}
	return out
}

// contentHash is a 160-bit collision-resistant digest of the script text,
// used purely for change detection.
func contentHash(text string) string {
	h := sha1.Sum([]byte(text))
	return hex.EncodeToString(h[:])
}
