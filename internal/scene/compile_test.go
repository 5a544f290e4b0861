package scene_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/distantsignal/distantsignal/internal/apperr"
	"github.com/distantsignal/distantsignal/internal/scene"
	"github.com/distantsignal/distantsignal/internal/testutil"
)

func newCompiler(t *testing.T) *scene.Compiler {
	t.Helper()
	return scene.NewCompiler(64, 32, 2, testutil.DiscardLogger())
}

func TestCompileSampleScript(t *testing.T) {
	g, err := newCompiler(t).Compile(testutil.SampleScript)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if g.Title == nil || !g.Title.Visible {
		t.Error("title group must exist and be visible")
	}
	if len(g.Title.Nodes) != 1 {
		t.Errorf("title nodes = %d, want 1", len(g.Title.Nodes))
	}

	var stateNames []string
	for _, s := range g.States {
		stateNames = append(stateNames, s.Name)
		if s.Group.Visible {
			t.Errorf("state %s compiled visible, want hidden", s.Name)
		}
	}
	want := []string{"normal", "reverse", "error:no-blocks"}
	if !reflect.DeepEqual(stateNames, want) {
		t.Errorf("states = %v, want %v (document order)", stateNames, want)
	}

	if got := g.BlockNames(); !reflect.DeepEqual(got, []string{"b330", "b331"}) {
		t.Errorf("blocks = %v, want document order [b330 b331]", got)
	}
	for _, b := range g.Blocks {
		if b.Active.Visible || b.Inactive.Visible {
			t.Errorf("block %s compiled visible, want hidden", b.Name)
		}
	}

	if g.Settings.InitialState() != "normal" {
		t.Errorf("initial state = %q, want normal", g.Settings.InitialState())
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	c := newCompiler(t)
	g1, err := c.Compile(testutil.SampleScript)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	g2, err := c.Compile(testutil.SampleScript)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	activations := []struct {
		state  string
		blocks map[string]bool
	}{
		{"normal", map[string]bool{"b330": true}},
		{"reverse", map[string]bool{"b331": true}},
		{"error:no-blocks", map[string]bool{"b330": true, "b331": true}},
		{"", nil},
	}
	var s1, s2 captureSurface
	for _, a := range activations {
		scene.Render(g1, a.state, a.blocks, &s1)
		scene.Render(g2, a.state, a.blocks, &s2)
		if !reflect.DeepEqual(g1.VisibleNodes(), g2.VisibleNodes()) {
			t.Errorf("visible sets differ for state %q", a.state)
		}
	}
}

func TestTemplateOffsetAndVariables(t *testing.T) {
	g, err := newCompiler(t).Compile(testutil.SampleScript)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// states.normal[1] is lamp at (10, 20) with C=#00FF00.
	normal := g.States[0].Group
	if len(normal.Nodes) != 2 {
		t.Fatalf("normal nodes = %d, want 2", len(normal.Nodes))
	}
	rect, ok := normal.Nodes[1].(scene.RectNode)
	if !ok {
		t.Fatalf("node = %T, want RectNode", normal.Nodes[1])
	}
	want := scene.RectNode{X: 10, Y: 20, W: 3, H: 3, Color: scene.RGB{G: 0xFF}}
	if rect != want {
		t.Errorf("rect = %+v, want %+v", rect, want)
	}

	// blocks.b330.active places lamp at x "64-4" (an expression).
	active := g.Blocks[0].Active
	rect, ok = active.Nodes[0].(scene.RectNode)
	if !ok {
		t.Fatalf("node = %T, want RectNode", active.Nodes[0])
	}
	if rect.X != 60 || rect.Color != (scene.RGB{R: 0xFF}) {
		t.Errorf("block lamp = %+v, want X=60 color #ff0000", rect)
	}
}

func TestNestedTemplateOffsetsCompose(t *testing.T) {
	script := `{
	  "inner": [{"op": "rect", "x": 1, "y": 2, "w": 1, "h": 1, "rgb": "#FFFFFF"}],
	  "outer": [{"tmpl": "inner", "x": 10, "y": 10, "vars": {}}],
	  "states": {"s": [{"tmpl": "outer", "x": -20, "y": 5, "vars": {}}]}
	}`
	g, err := newCompiler(t).Compile(script)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rect := g.States[0].Group.Nodes[0].(scene.RectNode)
	// Offsets accumulate without wrapping (-20+10 = -10), then the leaf
	// coordinate wraps: -10+1 -> 55 on a 64-wide axis.
	if rect.X != 55 || rect.Y != 17 {
		t.Errorf("rect at (%d,%d), want (55,17)", rect.X, rect.Y)
	}
}

func TestTemplateVariablesShadowOuter(t *testing.T) {
	script := `{
	  "leaf": [{"op": "rect", "x": 0, "y": 0, "w": 1, "h": 1, "rgb": "C"}],
	  "mid": [{"tmpl": "leaf", "x": 0, "y": 0, "vars": {"C": "#111111"}}],
	  "states": {"s": [{"tmpl": "mid", "x": 0, "y": 0, "vars": {"C": "#222222"}}]}
	}`
	g, err := newCompiler(t).Compile(script)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rect := g.States[0].Group.Nodes[0].(scene.RectNode)
	if rect.Color != (scene.RGB{R: 0x11, G: 0x11, B: 0x11}) {
		t.Errorf("color = %v, want the innermost template's binding", rect.Color)
	}
}

func TestSelfReferentialTemplateFails(t *testing.T) {
	script := `{
	  "loop": [{"tmpl": "loop", "x": 0, "y": 0, "vars": {}}],
	  "states": {"s": [{"tmpl": "loop", "x": 0, "y": 0, "vars": {}}]}
	}`
	_, err := newCompiler(t).Compile(script)
	if !errors.Is(err, apperr.ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
}

func TestMissingTemplateFails(t *testing.T) {
	script := `{"states": {"s": [{"tmpl": "nope", "x": 0, "y": 0, "vars": {}}]}}`
	_, err := newCompiler(t).Compile(script)
	if !errors.Is(err, apperr.ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
}

func TestInvalidJSONFails(t *testing.T) {
	_, err := newCompiler(t).Compile(`{"states": `)
	if !errors.Is(err, apperr.ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
}

func TestBadColorFails(t *testing.T) {
	script := `{"states": {"s": [{"op": "rect", "x": 0, "y": 0, "w": 1, "h": 1, "rgb": "red"}]}}`
	_, err := newCompiler(t).Compile(script)
	if !errors.Is(err, apperr.ErrMalformedDocument) {
		t.Fatalf("err = %v, want ErrMalformedDocument", err)
	}
}

func TestUnknownOpIsSkipped(t *testing.T) {
	script := `{"states": {"s": [
	  {"op": "sparkle", "x": 0, "y": 0},
	  {"op": "rect", "x": 0, "y": 0, "w": 1, "h": 1, "rgb": "#FFFFFF"}
	]}}`
	g, err := newCompiler(t).Compile(script)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if n := len(g.States[0].Group.Nodes); n != 1 {
		t.Errorf("nodes = %d, want 1 (unknown op skipped)", n)
	}
}

func TestCommentsAreNoOps(t *testing.T) {
	script := `{"states": {"s": [
	  {"op": "comment", "t": "top lamp row"},
	  {"comment": "also ignored"}
	]}}`
	g, err := newCompiler(t).Compile(script)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if n := len(g.States[0].Group.Nodes); n != 0 {
		t.Errorf("nodes = %d, want 0", n)
	}
}

func TestHorizontalLineCompilesToQuad(t *testing.T) {
	script := `{"states": {"s": [{"op": "line", "x1": 0, "y1": 10, "x2": 20, "y2": 10, "rgb": "#00FF00"}]}}`
	g, err := newCompiler(t).Compile(script)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	poly, ok := g.States[0].Group.Nodes[0].(scene.PolygonNode)
	if !ok {
		t.Fatalf("node = %T, want PolygonNode", g.States[0].Group.Nodes[0])
	}
	wantPts := []scene.Point{{0, -1}, {0, 1}, {20, 1}, {20, -1}}
	if poly.X != 0 || poly.Y != 10 || !reflect.DeepEqual(poly.Points, wantPts) {
		t.Errorf("line quad = %+v, want origin (0,10) points %v", poly, wantPts)
	}
}

func TestTextBaselineAndFont(t *testing.T) {
	script := `{"states": {"s": [
	  {"op": "text", "x": 2, "y": 10, "t": "HI", "rgb": "#FFFFFF"},
	  {"op": "text", "x": 2, "y": 10, "t": "BIG", "rgb": "#FFFFFF", "scale": 2, "font": 2}
	]}}`
	g, err := newCompiler(t).Compile(script)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	nodes := g.States[0].Group.Nodes

	small := nodes[0].(scene.TextNode)
	if small.Y != 10+scene.FontYOffset || small.Scale != 1 || small.FontIndex != 1 {
		t.Errorf("small = %+v, want Y=13 scale=1 font_index=1", small)
	}
	big := nodes[1].(scene.TextNode)
	if big.Y != 10+2*scene.FontYOffset || big.Scale != 2 || big.FontIndex != 0 {
		t.Errorf("big = %+v, want Y=16 scale=2 font_index=0", big)
	}
}
