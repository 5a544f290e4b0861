// Package scene compiles the JSON drawing script into a paint-ordered scene
// graph and composes group visibility for the display surface.
package scene

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/distantsignal/distantsignal/internal/apperr"
	"github.com/distantsignal/distantsignal/internal/geom"
)

// FontYOffset is the baseline adjustment applied to text nodes, scaled by
// the text scale. It matches the pixel fonts the display ships with.
const FontYOffset = 3

// maxTemplateDepth bounds template nesting so a self-referential template
// fails the document instead of exhausting the stack.
const maxTemplateDepth = 8

// Compiler turns script text into a Graph. A Compiler is sized once for the
// display it targets and reused for every script.
type Compiler struct {
	width     int
	height    int
	fontCount int
	logger    *slog.Logger
}

// NewCompiler returns a Compiler for a width x height display with
// fontCount loadable fonts.
func NewCompiler(width, height, fontCount int, logger *slog.Logger) *Compiler {
	if fontCount < 1 {
		fontCount = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{width: width, height: height, fontCount: fontCount, logger: logger}
}

// Compile parses and compiles a script. On error the returned graph is nil
// and the caller keeps whatever scene it had before.
func (c *Compiler) Compile(text string) (*Graph, error) {
	doc, err := parseDocument(text)
	if err != nil {
		return nil, err
	}

	g := &Graph{Settings: doc.settings}

	if doc.title != nil {
		grp, err := c.compileList(doc, doc.title)
		if err != nil {
			return nil, fmt.Errorf("title: %w", err)
		}
		grp.Visible = true
		g.Title = grp
	}

	for _, st := range doc.states {
		grp, err := c.compileList(doc, st.instructions)
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", st.name, err)
		}
		g.States = append(g.States, &StateGroup{Name: st.name, Group: grp})
	}

	for _, b := range doc.blocks {
		active, err := c.compileList(doc, b.active)
		if err != nil {
			return nil, fmt.Errorf("block %s active: %w", b.name, err)
		}
		inactive, err := c.compileList(doc, b.inactive)
		if err != nil {
			return nil, fmt.Errorf("block %s inactive: %w", b.name, err)
		}
		g.Blocks = append(g.Blocks, &BlockGroup{Name: b.name, Active: active, Inactive: inactive})
	}

	return g, nil
}

// compileList compiles one instruction list into a fresh, hidden group.
func (c *Compiler) compileList(doc *document, insts []Instruction) (*Group, error) {
	grp := &Group{}
	if err := c.compileInto(grp, doc, insts, nil, 0, 0, 0); err != nil {
		return nil, err
	}
	return grp, nil
}

// compileInto processes instructions in order, appending drawable nodes to
// grp. vars is the active variable map; ofx/ofy is the current template
// offset.
func (c *Compiler) compileInto(grp *Group, doc *document, insts []Instruction, vars map[string]any, ofx, ofy, depth int) error {
	for _, inst := range insts {
		inst = substituteVars(inst, vars)

		if _, ok := inst["tmpl"]; ok {
			if err := c.expandTemplate(grp, doc, inst, vars, ofx, ofy, depth); err != nil {
				return err
			}
			continue
		}

		op, ok := inst["op"].(string)
		if !ok {
			// No op and no tmpl: a comment entry.
			continue
		}

		var err error
		switch op {
		case "line":
			err = c.compileLine(grp, inst, ofx, ofy)
		case "poly":
			err = c.compilePoly(grp, inst, ofx, ofy)
		case "rect":
			err = c.compileRect(grp, inst, ofx, ofy)
		case "text":
			err = c.compileText(grp, inst, ofx, ofy)
		case "comment":
			// No-op.
		default:
			c.logger.Warn("scene: unknown op skipped", slog.String("op", op))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// expandTemplate resolves a template reference and recurses into its
// instruction list with merged variables and accumulated offsets. Template
// offsets do not wrap; only leaf coordinates do.
func (c *Compiler) expandTemplate(grp *Group, doc *document, inst Instruction, vars map[string]any, ofx, ofy, depth int) error {
	if depth >= maxTemplateDepth {
		return fmt.Errorf("%w: template nesting exceeds %d levels", apperr.ErrMalformedDocument, maxTemplateDepth)
	}
	name, ok := inst["tmpl"].(string)
	if !ok {
		return fmt.Errorf("%w: tmpl must be a string", apperr.ErrMalformedDocument)
	}
	target, ok := doc.lists[name]
	if !ok {
		return fmt.Errorf("%w: template %q not found", apperr.ErrMalformedDocument, name)
	}

	merged := make(map[string]any, len(vars))
	for k, v := range vars {
		merged[k] = v
	}
	if tv, ok := inst["vars"].(map[string]any); ok {
		for k, v := range tv {
			merged[k] = v
		}
	}

	x, err := field(inst, "x")
	if err != nil {
		return err
	}
	y, err := field(inst, "y")
	if err != nil {
		return err
	}
	tofx, err := geom.Resolve(x, 0, ofx)
	if err != nil {
		return err
	}
	tofy, err := geom.Resolve(y, 0, ofy)
	if err != nil {
		return err
	}

	return c.compileInto(grp, doc, target, merged, tofx, tofy, depth+1)
}

func (c *Compiler) compileLine(grp *Group, inst Instruction, ofx, ofy int) error {
	color, err := colorField(inst)
	if err != nil {
		return err
	}
	x1, err := c.xField(inst, "x1", ofx)
	if err != nil {
		return err
	}
	y1, err := c.yField(inst, "y1", ofy)
	if err != nil {
		return err
	}
	x2, err := c.xField(inst, "x2", ofx)
	if err != nil {
		return err
	}
	y2, err := c.yField(inst, "y2", ofy)
	if err != nil {
		return err
	}

	// A line is drawn as a thin quad so the surface only needs filled
	// polygons.
	w := x2 - x1
	h := y2 - y1
	var pts []Point
	if h == 0 {
		pts = []Point{{0, -1}, {0, 1}, {w, h + 1}, {w, h - 1}}
	} else {
		pts = []Point{{-1, 0}, {1, 0}, {w + 1, h}, {w - 1, h}}
	}
	grp.Nodes = append(grp.Nodes, PolygonNode{X: x1, Y: y1, Points: pts, Color: color})
	return nil
}

func (c *Compiler) compilePoly(grp *Group, inst Instruction, ofx, ofy int) error {
	color, err := colorField(inst)
	if err != nil {
		return err
	}
	raw, ok := inst["pts"].([]any)
	if !ok {
		return fmt.Errorf("%w: poly: pts must be a list of points", apperr.ErrMalformedDocument)
	}
	pts := make([]Point, 0, len(raw))
	for _, rp := range raw {
		p, ok := rp.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: poly: point must be an object with x and y", apperr.ErrMalformedDocument)
		}
		x, err := c.xField(Instruction(p), "x", ofx)
		if err != nil {
			return err
		}
		y, err := c.yField(Instruction(p), "y", ofy)
		if err != nil {
			return err
		}
		pts = append(pts, Point{X: x, Y: y})
	}
	grp.Nodes = append(grp.Nodes, PolygonNode{X: 0, Y: 0, Points: pts, Color: color})
	return nil
}

func (c *Compiler) compileRect(grp *Group, inst Instruction, ofx, ofy int) error {
	color, err := colorField(inst)
	if err != nil {
		return err
	}
	x, err := c.xField(inst, "x", ofx)
	if err != nil {
		return err
	}
	y, err := c.yField(inst, "y", ofy)
	if err != nil {
		return err
	}
	// Width and height wrap on their axis but are not offset-adjusted.
	w, err := c.xField(inst, "w", 0)
	if err != nil {
		return err
	}
	h, err := c.yField(inst, "h", 0)
	if err != nil {
		return err
	}
	grp.Nodes = append(grp.Nodes, RectNode{X: x, Y: y, W: w, H: h, Color: color})
	return nil
}

func (c *Compiler) compileText(grp *Group, inst Instruction, ofx, ofy int) error {
	color, err := colorField(inst)
	if err != nil {
		return err
	}
	x, err := c.xField(inst, "x", ofx)
	if err != nil {
		return err
	}
	y, err := c.yField(inst, "y", ofy)
	if err != nil {
		return err
	}
	content, err := field(inst, "t")
	if err != nil {
		return err
	}

	scale := 1
	if v, ok := inst["scale"]; ok {
		if scale, err = asInt(v); err != nil {
			return fmt.Errorf("text scale: %w", err)
		}
	}
	font := 1
	if v, ok := inst["font"]; ok {
		if font, err = asInt(v); err != nil {
			return fmt.Errorf("text font: %w", err)
		}
	}

	grp.Nodes = append(grp.Nodes, TextNode{
		X:         x,
		Y:         y + FontYOffset*scale,
		Content:   fmt.Sprint(content),
		Color:     color,
		Scale:     scale,
		FontIndex: ((font % c.fontCount) + c.fontCount) % c.fontCount,
	})
	return nil
}

func (c *Compiler) xField(inst Instruction, key string, offset int) (int, error) {
	v, err := field(inst, key)
	if err != nil {
		return 0, err
	}
	return geom.Resolve(v, c.width, offset)
}

func (c *Compiler) yField(inst Instruction, key string, offset int) (int, error) {
	v, err := field(inst, key)
	if err != nil {
		return 0, err
	}
	return geom.Resolve(v, c.height, offset)
}

func field(inst Instruction, key string) (any, error) {
	v, ok := inst[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", apperr.ErrMalformedDocument, key)
	}
	return v, nil
}

func colorField(inst Instruction) (RGB, error) {
	v, err := field(inst, "rgb")
	if err != nil {
		return RGB{}, err
	}
	return ParseRGB(v)
}

// asInt converts a JSON number or numeric string to an int. Variable
// substitution can put either shape into a numeric field.
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: expected an integer, got %q", apperr.ErrMalformedDocument, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: expected an integer, got %T", apperr.ErrMalformedDocument, v)
	}
}

// substituteVars returns inst with every field whose string value names a
// variable replaced by that variable's value. The original instruction is
// never mutated, so templates stay reusable.
func substituteVars(inst Instruction, vars map[string]any) Instruction {
	if len(vars) == 0 {
		return inst
	}
	needsCopy := false
	for _, v := range inst {
		if s, ok := v.(string); ok {
			if _, hit := vars[s]; hit {
				needsCopy = true
				break
			}
		}
	}
	if !needsCopy {
		return inst
	}
	out := make(Instruction, len(inst))
	for k, v := range inst {
		if s, ok := v.(string); ok {
			if repl, hit := vars[s]; hit {
				out[k] = repl
				continue
			}
		}
		out[k] = v
	}
	return out
}
