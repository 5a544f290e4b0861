package scene

// Point is a polygon vertex, relative to the polygon's origin.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Node is a concrete drawable in the compiled scene graph.
type Node interface {
	// Kind identifies the drawable for the display surface ("polygon",
	// "rect", "text").
	Kind() string
}

// PolygonNode is a filled polygon anchored at (X, Y). Lines compile to a
// thin quad polygon, so the display surface only ever sees polygons, rects,
// and text.
type PolygonNode struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Points []Point `json:"points"`
	Color  RGB     `json:"color"`
}

func (PolygonNode) Kind() string { return "polygon" }

// RectNode is a filled axis-aligned rectangle.
type RectNode struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	W     int `json:"w"`
	H     int `json:"h"`
	Color RGB `json:"color"`
}

func (RectNode) Kind() string { return "rect" }

// TextNode is a text label. Y already includes the font baseline offset.
type TextNode struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Content   string `json:"content"`
	Color     RGB    `json:"color"`
	Scale     int    `json:"scale"`
	FontIndex int    `json:"font_index"`
}

func (TextNode) Kind() string { return "text" }

// Group is an ordered list of drawables toggled visible as one unit.
type Group struct {
	Visible bool   `json:"visible"`
	Nodes   []Node `json:"nodes"`
}

// StateGroup is the sub-scene for one named state.
type StateGroup struct {
	Name  string `json:"name"`
	Group *Group `json:"group"`
}

// BlockGroup holds the two alternative sub-scenes for one named block.
type BlockGroup struct {
	Name     string `json:"name"`
	Active   *Group `json:"active"`
	Inactive *Group `json:"inactive"`
}

// Graph is the compiled scene: paint order is Title, then States in document
// order, then Blocks in document order with Active before Inactive. There is
// no z-index beyond this list order.
type Graph struct {
	Title    *Group        `json:"title,omitempty"`
	States   []*StateGroup `json:"states"`
	Blocks   []*BlockGroup `json:"blocks"`
	Settings Settings      `json:"settings,omitempty"`
}

// BlockNames returns the block names in document order.
func (g *Graph) BlockNames() []string {
	names := make([]string, 0, len(g.Blocks))
	for _, b := range g.Blocks {
		names = append(names, b.Name)
	}
	return names
}

// HasState reports whether the graph defines the named state.
func (g *Graph) HasState(name string) bool {
	for _, s := range g.States {
		if s.Name == name {
			return true
		}
	}
	return false
}

// VisibleNodes returns every node of every visible group, in paint order.
func (g *Graph) VisibleNodes() []Node {
	var out []Node
	appendGroup := func(grp *Group) {
		if grp != nil && grp.Visible {
			out = append(out, grp.Nodes...)
		}
	}
	appendGroup(g.Title)
	for _, s := range g.States {
		appendGroup(s.Group)
	}
	for _, b := range g.Blocks {
		appendGroup(b.Active)
		appendGroup(b.Inactive)
	}
	return out
}
