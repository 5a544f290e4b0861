// Package testutil provides shared test helpers.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/distantsignal/distantsignal/internal/nvm"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TempRegion creates a durable region in a temporary directory that is
// automatically cleaned up.
func TempRegion(t *testing.T) *nvm.Region {
	t.Helper()
	r, err := nvm.NewRegion(filepath.Join(t.TempDir(), "script.nvm"))
	if err != nil {
		t.Fatalf("NewRegion: %v", err)
	}
	return r
}

// SampleScript is a small but representative script: a title, two states
// (one block-suppressing), two blocks, and a template with variables and
// relative offsets.
const SampleScript = `{
  "settings": {"initial_state": "normal"},
  "lamp": [
    {"op": "rect", "x": 0, "y": 0, "w": 3, "h": 3, "rgb": "C"}
  ],
  "title": [
    {"op": "text", "x": 2, "y": 2, "t": "T330", "rgb": "#FFFF00"}
  ],
  "states": {
    "normal": [
      {"op": "line", "x1": 0, "y1": 10, "x2": 20, "y2": 10, "rgb": "#00FF00"},
      {"tmpl": "lamp", "x": 10, "y": 20, "vars": {"C": "#00FF00"}}
    ],
    "reverse": [
      {"op": "poly", "pts": [{"x": 0, "y": 0}, {"x": 4, "y": 0}, {"x": 2, "y": 4}], "rgb": "#FF0000"}
    ],
    "error:no-blocks": [
      {"op": "text", "x": 2, "y": 12, "t": "ERR", "rgb": "#FF0000", "scale": 2}
    ]
  },
  "blocks": {
    "b330": {
      "active":   [{"tmpl": "lamp", "x": "64-4", "y": 0, "vars": {"C": "#FF0000"}}],
      "inactive": [{"tmpl": "lamp", "x": "64-4", "y": 0, "vars": {"C": "#202020"}}]
    },
    "b331": {
      "active":   [{"op": "rect", "x": -4, "y": 8, "w": 3, "h": 3, "rgb": "#FF0000"}],
      "inactive": [{"op": "rect", "x": -4, "y": 8, "w": 3, "h": 3, "rgb": "#202020"}]
    }
  }
}`
