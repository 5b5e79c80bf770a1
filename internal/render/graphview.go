package render

import (
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/coal/fwdash/internal/graph"
)

// GraphStyle is the style sheet handed to a graph view on construction.
type GraphStyle struct {
	SrcColor   string  `json:"src_color"`
	DstColor   string  `json:"dst_color"`
	EdgeColor  string  `json:"edge_color"`
	LabelColor string  `json:"label_color"`
	Arrow      string  `json:"arrow"`
	WidthMin   float64 `json:"width_min"`
	WidthMax   float64 `json:"width_max"`
}

// DefaultGraphStyle colours source and destination nodes distinctly and
// maps edge weight 1..100 onto width 1..10.
func DefaultGraphStyle(t Theme) GraphStyle {
	return GraphStyle{
		SrcColor:   "#00bcd4",
		DstColor:   "#3f51b5",
		EdgeColor:  "#8bc34a",
		LabelColor: t.TextColor(),
		Arrow:      "triangle",
		WidthMin:   1,
		WidthMax:   10,
	}
}

// GraphView is a stateful graph renderer.
type GraphView interface {
	SetElements(el graph.Elements)
	RunLayout(opt graph.LayoutOptions)
	Fit()
}

// GraphFactory constructs graph views.
type GraphFactory interface {
	NewGraphView(style GraphStyle) (GraphView, error)
}

// TermGraphFactory builds TermGraph views.
type TermGraphFactory struct{}

// NewGraphView implements GraphFactory.
func (TermGraphFactory) NewGraphView(style GraphStyle) (GraphView, error) {
	return &TermGraph{style: style, zoom: 1, center: graph.Point{X: 0.5, Y: 0.5}}, nil
}

// TermGraph draws the element set on a character canvas.
type TermGraph struct {
	mu     sync.RWMutex
	style  GraphStyle
	el     graph.Elements
	pos    map[string]graph.Point
	center graph.Point
	zoom   float64
	layout int
}

func (g *TermGraph) SetElements(el graph.Elements) {
	g.mu.Lock()
	g.el = el
	g.pos = nil
	g.mu.Unlock()
}

// RunLayout positions nodes in the unit square.
func (g *TermGraph) RunLayout(opt graph.LayoutOptions) {
	g.mu.Lock()
	defer g.mu.Unlock()
	opt.Width, opt.Height = 1, 1
	g.pos = graph.ForceLayout(g.el, opt)
	g.layout++
}

// Fit centres the viewport on the laid out nodes and resets zoom.
func (g *TermGraph) Fit() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.zoom = 1
	if len(g.pos) == 0 {
		g.center = graph.Point{X: 0.5, Y: 0.5}
		return
	}
	lo, hi := graph.Bounds(g.pos)
	g.center = graph.Point{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}
	span := math.Max(hi.X-lo.X, hi.Y-lo.Y)
	if span > 0 {
		g.zoom = 0.9 / span
	}
}

// Zoom scales the viewport by factor.
func (g *TermGraph) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	g.mu.Lock()
	g.zoom *= factor
	g.mu.Unlock()
}

// Pan moves the viewport centre in layout units.
func (g *TermGraph) Pan(dx, dy float64) {
	g.mu.Lock()
	g.center.X += dx / g.zoom
	g.center.Y += dy / g.zoom
	g.mu.Unlock()
}

// Elements returns the current element set.
func (g *TermGraph) Elements() graph.Elements {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.el
}

// Layouts is the number of layout runs since construction.
func (g *TermGraph) Layouts() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.layout
}

const (
	cellEmpty = iota
	cellEdge
	cellSrc
	cellDst
	cellLabel
)

// View draws nodes, edges and labels in a width x height box.
func (g *TermGraph) View(width, height int) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if width < 4 || height < 2 {
		return ""
	}
	if len(g.el.Nodes) == 0 {
		return lipgloss.NewStyle().Faint(true).Render("(no flows)")
	}

	runes := make([][]rune, height)
	kinds := make([][]int, height)
	for y := range runes {
		runes[y] = []rune(strings.Repeat(" ", width))
		kinds[y] = make([]int, width)
	}

	project := func(p graph.Point) (int, int) {
		x := (p.X-g.center.X)*g.zoom + 0.5
		y := (p.Y-g.center.Y)*g.zoom + 0.5
		return int(math.Round(x * float64(width-1))), int(math.Round(y * float64(height-1)))
	}
	in := func(x, y int) bool { return x >= 0 && y >= 0 && x < width && y < height }

	pos := g.pos
	if pos == nil {
		pos = graph.ForceLayout(g.el, graph.LayoutOptions{Iterations: 50, Width: 1, Height: 1})
	}

	for _, e := range g.el.Edges {
		x0, y0 := project(pos[e.Source])
		x1, y1 := project(pos[e.Target])
		line(x0, y0, x1, y1, func(x, y int) {
			if in(x, y) && kinds[y][x] == cellEmpty {
				runes[y][x] = '·'
				kinds[y][x] = cellEdge
			}
		})
		if ax, ay := arrowCell(x0, y0, x1, y1); in(ax, ay) {
			runes[ay][ax] = arrowRune(x1-x0, y1-y0)
			kinds[ay][ax] = cellEdge
		}
	}

	for _, n := range g.el.Nodes {
		x, y := project(pos[n.ID])
		if !in(x, y) {
			continue
		}
		kind := cellSrc
		if n.Role == graph.RoleDst {
			kind = cellDst
		}
		runes[y][x] = '●'
		kinds[y][x] = kind
		label := n.Label
		if n.Country != "" {
			label += " " + n.Country
		}
		lr := []rune(label)
		start := x + 2
		if start+len(lr) > width {
			start = max(0, x-1-len(lr))
		}
		for i, r := range lr {
			lx := start + i
			if !in(lx, y) || kinds[y][lx] == cellSrc || kinds[y][lx] == cellDst {
				break
			}
			runes[y][lx] = r
			kinds[y][lx] = cellLabel
		}
	}

	styles := map[int]lipgloss.Style{
		cellEmpty: lipgloss.NewStyle(),
		cellEdge:  lipgloss.NewStyle().Foreground(lipgloss.Color(g.style.EdgeColor)),
		cellSrc:   lipgloss.NewStyle().Foreground(lipgloss.Color(g.style.SrcColor)),
		cellDst:   lipgloss.NewStyle().Foreground(lipgloss.Color(g.style.DstColor)),
		cellLabel: lipgloss.NewStyle().Foreground(lipgloss.Color(g.style.LabelColor)),
	}

	var sb strings.Builder
	for y := range runes {
		start := 0
		for x := 1; x <= width; x++ {
			if x == width || kinds[y][x] != kinds[y][start] {
				sb.WriteString(styles[kinds[y][start]].Render(string(runes[y][start:x])))
				start = x
			}
		}
		if y < height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// line walks the cells between two points (Bresenham).
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// arrowCell is the cell just before the target on the edge.
func arrowCell(x0, y0, x1, y1 int) (int, int) {
	px, py := x0, y0
	line(x0, y0, x1, y1, func(x, y int) {
		if x != x1 || y != y1 {
			px, py = x, y
		}
	})
	return px, py
}

func arrowRune(dx, dy int) rune {
	if abs(dx) >= abs(dy) {
		if dx >= 0 {
			return '▸'
		}
		return '◂'
	}
	if dy > 0 {
		return '▾'
	}
	return '▴'
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
