package scene_test

import (
	"testing"

	"github.com/distantsignal/distantsignal/internal/scene"
	"github.com/distantsignal/distantsignal/internal/testutil"
)

// captureSurface records the roots handed to it.
type captureSurface struct {
	root *scene.Graph
	sets int
}

func (s *captureSurface) SetRoot(g *scene.Graph) {
	s.root = g
	s.sets++
}

func compileSample(t *testing.T) *scene.Graph {
	t.Helper()
	g, err := scene.NewCompiler(64, 32, 2, testutil.DiscardLogger()).Compile(testutil.SampleScript)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return g
}

func TestRenderStateVisibility(t *testing.T) {
	g := compileSample(t)
	var s captureSurface

	scene.Render(g, "reverse", nil, &s)

	if s.root != g {
		t.Fatal("surface must receive the graph as its new root")
	}
	for _, st := range g.States {
		want := st.Name == "reverse"
		if st.Group.Visible != want {
			t.Errorf("state %s visible = %v, want %v", st.Name, st.Group.Visible, want)
		}
	}
	if g.Title == nil || !g.Title.Visible {
		t.Error("title must stay visible")
	}
}

func TestRenderBlockVisibility(t *testing.T) {
	g := compileSample(t)
	var s captureSurface

	scene.Render(g, "normal", map[string]bool{"b330": true}, &s)

	for _, b := range g.Blocks {
		wantActive := b.Name == "b330"
		if b.Active.Visible != wantActive {
			t.Errorf("block %s active visible = %v, want %v", b.Name, b.Active.Visible, wantActive)
		}
		if b.Inactive.Visible != !wantActive {
			t.Errorf("block %s inactive visible = %v, want %v", b.Name, b.Inactive.Visible, !wantActive)
		}
	}
}

func TestRenderSuppressesBlocksForReservedSuffix(t *testing.T) {
	g := compileSample(t)
	var s captureSurface

	// Every block activation combination must render no block nodes while
	// the no-blocks state is active.
	scene.Render(g, "error:no-blocks", map[string]bool{"b330": true, "b331": false}, &s)

	for _, b := range g.Blocks {
		if b.Active.Visible || b.Inactive.Visible {
			t.Errorf("block %s rendered during a no-blocks state", b.Name)
		}
	}

	// Leaving the state restores block rendering.
	scene.Render(g, "normal", map[string]bool{"b330": true}, &s)
	if !g.Blocks[0].Active.Visible {
		t.Error("block rendering must resume after the no-blocks state")
	}
}

func TestRenderUnknownStateHidesAllStates(t *testing.T) {
	g := compileSample(t)
	var s captureSurface

	scene.Render(g, "does-not-exist", nil, &s)

	for _, st := range g.States {
		if st.Group.Visible {
			t.Errorf("state %s visible for an unknown active state", st.Name)
		}
	}
}

func TestVisibleNodesPaintOrder(t *testing.T) {
	g := compileSample(t)
	var s captureSurface

	scene.Render(g, "normal", map[string]bool{"b330": true}, &s)
	nodes := g.VisibleNodes()

	// Title (1) + normal (2) + b330 active (1) + b331 inactive (1).
	if len(nodes) != 5 {
		t.Fatalf("visible nodes = %d, want 5", len(nodes))
	}
	if _, ok := nodes[0].(scene.TextNode); !ok {
		t.Errorf("paint order must start with the title node, got %T", nodes[0])
	}
}

func TestBlocksSuppressed(t *testing.T) {
	cases := []struct {
		state string
		want  bool
	}{
		{"error:no-blocks", true},
		{"anything:no-blocks", true},
		{"normal", false},
		{"", false},
		{"no-blocks-ish", false},
	}
	for _, tc := range cases {
		if got := scene.BlocksSuppressed(tc.state); got != tc.want {
			t.Errorf("BlocksSuppressed(%q) = %v, want %v", tc.state, got, tc.want)
		}
	}
}
