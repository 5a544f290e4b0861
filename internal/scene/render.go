package scene

import "strings"

// NoBlocksSuffix is the reserved state-name suffix that suppresses all block
// rendering while that state is active (e.g. an error splash that must not
// be overdrawn by block indicators).
const NoBlocksSuffix = ":no-blocks"

// Surface is the external display collaborator. Render hands it the
// composed graph as its new content root; the core never touches the
// display anywhere else.
type Surface interface {
	SetRoot(g *Graph)
}

// Render composes group visibility for the given activation and hands the
// graph to the surface.
//
// Exactly one state group is visible (the active one, if the graph defines
// it). Each block shows its active or inactive sub-scene according to
// activeBlocks, unless the active state suppresses blocks entirely.
func Render(g *Graph, activeState string, activeBlocks map[string]bool, surface Surface) {
	suppressed := BlocksSuppressed(activeState)
	for _, st := range g.States {
		st.Group.Visible = st.Name == activeState
	}
	for _, b := range g.Blocks {
		on := activeBlocks[b.Name]
		b.Active.Visible = !suppressed && on
		b.Inactive.Visible = !suppressed && !on
	}
	surface.SetRoot(g)
}

// BlocksSuppressed reports whether the named state suppresses block
// rendering.
func BlocksSuppressed(stateName string) bool {
	return strings.HasSuffix(stateName, NoBlocksSuffix)
}
