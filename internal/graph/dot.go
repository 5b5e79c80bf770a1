package graph

import (
	"fmt"
	"strings"
)

// DOT renders the element set as a Graphviz digraph.
func DOT(el Elements) string {
	var b strings.Builder
	b.WriteString("digraph fwdash {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, n := range el.Nodes {
		color := "#00bcd4"
		if n.Role == RoleDst {
			color = "#3f51b5"
		}
		label := n.Label
		if n.Country != "" {
			label = fmt.Sprintf("%s (%s)", n.Label, n.Country)
		}
		fmt.Fprintf(&b, "  %q [label=%q, style=filled, fillcolor=%q, fontcolor=\"#ffffff\"];\n", n.ID, label, color)
	}
	for _, e := range el.Edges {
		fmt.Fprintf(&b, "  %q -> %q [label=\"%d\", penwidth=%.1f, color=\"#8bc34a\"];\n",
			e.Source, e.Target, e.Weight, EdgeWidth(e.Weight))
	}
	b.WriteString("}\n")
	return b.String()
}

// EdgeWidth maps a weight from [1,100] onto a width in [1,10], clamped.
func EdgeWidth(weight int64) float64 {
	return MapData(float64(weight), 1, 100, 1, 10)
}

// MapData linearly maps v from [dMin,dMax] to [rMin,rMax], clamping at the ends.
func MapData(v, dMin, dMax, rMin, rMax float64) float64 {
	if dMax <= dMin {
		return rMin
	}
	if v <= dMin {
		return rMin
	}
	if v >= dMax {
		return rMax
	}
	return rMin + (v-dMin)/(dMax-dMin)*(rMax-rMin)
}
